package common

import (
	"github.com/futig/interview-flow/internal/config"
	pkgHTTP "github.com/futig/interview-flow/pkg/http"
	"go.uber.org/zap"
)

// NewBaseConnector builds a connector from the shared client settings.
// Extra options are applied after the defaults, e.g. an API key header.
func NewBaseConnector(cfg config.HTTPClientConfig, logger *zap.Logger, extra ...pkgHTTP.HttpOpts) *pkgHTTP.Connector {
	connCfg := &pkgHTTP.ConnectorConfig{
		Logger:  logger,
		BaseURL: cfg.Url,
	}

	opts := []pkgHTTP.HttpOpts{
		pkgHTTP.WithTimeouts(pkgHTTP.Timeouts{
			Dial:           cfg.ConnTimeout,
			Request:        cfg.RequestTimeout,
			KeepAlive:      cfg.KeepAlive,
			IdleConn:       cfg.IdleConnTimeout,
			ResponseHeader: cfg.ResponseHeaderTimeout,
		}),
		pkgHTTP.WithRequestLogging(),
		pkgHTTP.WithAuthToken(cfg.Token),
	}

	return pkgHTTP.NewConnector(connCfg, append(opts, extra...)...)
}
