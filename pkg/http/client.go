package http

import (
	"net"
	"net/http"
	"time"
)

const userAgent = "interview-flow"

type TransportFunc func(http.RoundTripper) http.RoundTripper

type httpConfig struct {
	timeouts   Timeouts
	transports []TransportFunc
}

var defaultTimeouts = Timeouts{
	Dial:           5 * time.Second,
	Request:        30 * time.Second,
	KeepAlive:      30 * time.Second,
	IdleConn:       90 * time.Second,
	ResponseHeader: 30 * time.Second,
}

func newClient(opts ...HttpOpts) *http.Client {
	cfg := &httpConfig{timeouts: defaultTimeouts}
	for _, opt := range opts {
		opt(cfg)
	}

	dialer := &net.Dialer{
		Timeout:   cfg.timeouts.Dial,
		KeepAlive: cfg.timeouts.KeepAlive,
	}

	var rt http.RoundTripper = &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       cfg.timeouts.IdleConn,
		ResponseHeaderTimeout: cfg.timeouts.ResponseHeader,
		TLSHandshakeTimeout:   10 * time.Second,
	}

	rt = &headerTransport{header: "User-Agent", value: userAgent, transport: rt}
	for _, wrap := range cfg.transports {
		rt = wrap(rt)
	}

	return &http.Client{
		Timeout:   cfg.timeouts.Request,
		Transport: rt,
	}
}
