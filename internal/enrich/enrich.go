// Package enrich calls the third-party stats service that annotates
// outgoing messages with a cosmetic display label. The label is never
// persisted; a failed lookup only costs the label.
package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Lookup resolves an enrichment linkage into a display label.
type Lookup interface {
	// Label returns the display label for the given linkage ref.
	// An empty label with nil error means the service knows no label.
	Label(ctx context.Context, ref string) (string, error)
}

// HTTPLookup queries the enrichment service over HTTP.
type HTTPLookup struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLookup builds a lookup against baseURL with a hard per-call timeout.
func NewHTTPLookup(baseURL string, timeout time.Duration) *HTTPLookup {
	return &HTTPLookup{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

type labelResponse struct {
	Label string `json:"label"`
}

// Label fetches the display label for ref. Not-found is not an error.
func (l *HTTPLookup) Label(ctx context.Context, ref string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/labels/"+url.PathEscape(ref), nil)
	if err != nil {
		return "", fmt.Errorf("build enrichment request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("enrichment lookup: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", nil
	default:
		return "", fmt.Errorf("enrichment lookup: unexpected status %d", resp.StatusCode)
	}

	var body labelResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode enrichment response: %w", err)
	}
	return body.Label, nil
}

// Noop is a Lookup that never returns a label. Used when no enrichment
// service is configured.
type Noop struct{}

// Label always reports no label.
func (Noop) Label(context.Context, string) (string, error) { return "", nil }
