package httpclient

import (
	"net/http"
	"time"

	"github.com/AmirAgassi/rizzly/internal/logging"
)

// New builds an HTTP client with a hard timeout and debug logging of
// request/response round trips.
func New(timeout time.Duration, logger logging.Logger) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &loggingRoundTripper{
			base:   http.DefaultTransport,
			logger: logging.OrNop(logger),
		},
	}
}

type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logging.Logger
}

func (t *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	elapsed := time.Since(start).Round(time.Millisecond)
	if err != nil {
		t.logger.Debug("%s %s failed after %v: %v", req.Method, req.URL.Host, elapsed, err)
		return nil, err
	}
	t.logger.Debug("%s %s -> %d in %v", req.Method, req.URL.Host, resp.StatusCode, elapsed)
	return resp, nil
}
