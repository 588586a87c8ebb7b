package docgen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPGenerator calls a remote document generation service
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
}

// NewHTTPGenerator creates a client for the service at baseURL. The timeout
// bounds each call in addition to the caller's context.
func NewHTTPGenerator(baseURL string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: strings.TrimRight(baseURL, "/") + "/v1/letters",
		client:   &http.Client{Timeout: timeout},
	}
}

// Generate implements Generator
func (g *HTTPGenerator) Generate(ctx context.Context, req Request) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.ApplicationID+":"+req.LetterType)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("document service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read document service response: %w", err)
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("document service returned %d with undecodable body: %w", resp.StatusCode, err)
	}

	if resp.StatusCode >= 300 || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("document service failed (%d): %s", resp.StatusCode, msg)
	}
	if out.StorageReference == "" {
		return "", errors.New("document service reported success without a storage reference")
	}

	return out.StorageReference, nil
}
