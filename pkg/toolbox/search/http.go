package search

import (
	"context"
	"io"
	"net/http"

	"github.com/go-go-golems/toolchat/pkg/security"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const maxBodySize = 4 << 20

type httpBackend struct {
	name       string
	endpoint   string
	client     *http.Client
	maxResults int
}

func newHTTPBackend(name, endpoint string, cfg Config) (httpBackend, error) {
	if cfg.BaseURL != "" {
		endpoint = cfg.BaseURL
	}
	opts := security.OutboundURLOptions{}
	if cfg.AllowLocalNetworks {
		opts = security.DevOptions()
	}
	if err := security.ValidateOutboundURL(endpoint, opts); err != nil {
		return httpBackend{}, errors.Wrapf(err, "invalid %s endpoint", name)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return httpBackend{name: name, endpoint: endpoint, client: client, maxResults: maxResults}, nil
}

// do sends req and returns the body of a 2xx response. Network failures,
// 429 and 5xx come back as *TransientError.
func (b httpBackend) do(ctx context.Context, req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", UserAgent)
	resp, err := b.client.Do(req.WithContext(ctx))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Backend: b.name, Cause: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &TransientError{Backend: b.name, Cause: err}
	}

	log.Debug().
		Str("backend", b.name).
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Msg("search response received")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		cause := errors.Errorf("unexpected status %s", resp.Status)
		if isTransientStatus(resp.StatusCode) {
			return nil, &TransientError{Backend: b.name, StatusCode: resp.StatusCode, Cause: cause}
		}
		return nil, errors.Wrapf(cause, "%s search", b.name)
	}
	return body, nil
}
