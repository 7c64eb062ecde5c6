package probe

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a whole probe, redirects included.
const DefaultTimeout = 30 * time.Second

// drained before close so the connection can be reused
const maxDrainBytes = 1 << 20

type HTTPProber struct {
	Client    *http.Client
	UserAgent string
}

func NewHTTPProber(timeout time.Duration) *HTTPProber {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	// CheckRedirect is left nil: the client follows up to 10 redirects.
	return &HTTPProber{
		Client: &http.Client{Timeout: timeout},
	}
}

func (h *HTTPProber) Probe(ctx context.Context, target string) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return TransportFailure{Kind: KindOther, Detail: err.Error()}
	}
	if h.UserAgent != "" {
		req.Header.Set("User-Agent", h.UserAgent)
	}

	start := time.Now()
	resp, err := h.Client.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	return Responded{StatusCode: resp.StatusCode, Elapsed: elapsed}
}
