package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Benny93/prefill-go/internal/graph"
)

// maxBodySize caps the size of a blueprint API response.
const maxBodySize = 32 << 20

// HTTPSource fetches a blueprint graph from the blueprint API:
//
//	GET {BaseURL}/api/v1/{tenant}/actions/blueprints/{blueprint}/graph
type HTTPSource struct {
	BaseURL     string
	TenantID    string
	BlueprintID string
	Client      *http.Client
}

// NewHTTPSource creates an API source with its own client. A zero timeout
// leaves requests bounded only by their context.
func NewHTTPSource(baseURL, tenantID, blueprintID string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		BaseURL:     baseURL,
		TenantID:    tenantID,
		BlueprintID: blueprintID,
		Client:      &http.Client{Timeout: timeout},
	}
}

// URL returns the graph endpoint of the selected blueprint.
func (s *HTTPSource) URL() string {
	return fmt.Sprintf("%s/api/v1/%s/actions/blueprints/%s/graph",
		strings.TrimRight(s.BaseURL, "/"),
		url.PathEscape(s.TenantID),
		url.PathEscape(s.BlueprintID),
	)
}

// Load implements Source.
func (s *HTTPSource) Load(ctx context.Context) (*graph.Blueprint, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("building blueprint request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching blueprint: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("reading blueprint response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, s.TenantID, s.BlueprintID)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("fetching blueprint: unexpected status %s", resp.Status)
	}

	format := FormatJSON
	if strings.Contains(resp.Header.Get("Content-Type"), "yaml") {
		format = FormatYAML
	}

	doc, err := Decode(body, format)
	if err != nil {
		return nil, err
	}

	// The API omits ids that are implied by the URL.
	if doc.ID == "" {
		doc.ID = s.BlueprintID
	}
	if doc.TenantID == "" {
		doc.TenantID = s.TenantID
	}
	return doc, nil
}
