package http

import "time"

type HttpOpts func(*httpConfig)

// Timeouts bounds each phase of an outbound call. Zero fields keep the defaults.
type Timeouts struct {
	Dial           time.Duration
	Request        time.Duration
	KeepAlive      time.Duration
	IdleConn       time.Duration
	ResponseHeader time.Duration
}

func (t Timeouts) merge(base Timeouts) Timeouts {
	pick := func(v, def time.Duration) time.Duration {
		if v > 0 {
			return v
		}
		return def
	}

	return Timeouts{
		Dial:           pick(t.Dial, base.Dial),
		Request:        pick(t.Request, base.Request),
		KeepAlive:      pick(t.KeepAlive, base.KeepAlive),
		IdleConn:       pick(t.IdleConn, base.IdleConn),
		ResponseHeader: pick(t.ResponseHeader, base.ResponseHeader),
	}
}

func WithTimeouts(t Timeouts) HttpOpts {
	return func(c *httpConfig) {
		c.timeouts = t.merge(c.timeouts)
	}
}

// WithTransport wraps the client transport. Wrappers apply in the order given.
func WithTransport(transport TransportFunc) HttpOpts {
	return func(c *httpConfig) {
		c.transports = append(c.transports, transport)
	}
}
