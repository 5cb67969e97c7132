package http

import "net/http"

// headerTransport sets one header on every outgoing request.
type headerTransport struct {
	header    string
	value     string
	transport http.RoundTripper
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.value == "" || req.Header.Get(t.header) != "" {
		return t.transport.RoundTrip(req)
	}

	reqCopy := req.Clone(req.Context())
	reqCopy.Header.Set(t.header, t.value)

	return t.transport.RoundTrip(reqCopy)
}

// WithAuthToken sends "Authorization: Bearer <token>" when token is set.
func WithAuthToken(token string) HttpOpts {
	value := ""
	if token != "" {
		value = "Bearer " + token
	}

	return withHeaderTransport("Authorization", value)
}

// WithAPIKey sends the key in a custom header, e.g. X-API-Key.
func WithAPIKey(header, key string) HttpOpts {
	return withHeaderTransport(header, key)
}

func withHeaderTransport(header, value string) HttpOpts {
	return WithTransport(func(rt http.RoundTripper) http.RoundTripper {
		return &headerTransport{
			header:    header,
			value:     value,
			transport: rt,
		}
	})
}
