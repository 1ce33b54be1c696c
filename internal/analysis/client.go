package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

// AnalyzePath is the inference service endpoint.
const AnalyzePath = "/api/analyze"

// ErrAnalysisRequest is returned for every failed submission: transport
// errors, non-2xx responses and malformed payloads alike. Its message is the
// only text shown to the user.
var ErrAnalysisRequest = errors.New("an error occurred while analyzing the experiment, please try again")

// Submitter sends a validated request to the inference service.
type Submitter interface {
	Submit(ctx context.Context, req Request) (*Result, error)
}

// Client talks to the inference service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a client for the service at baseURL. A nil httpClient
// uses http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Submit posts req and decodes the response. Exactly one HTTP request is
// made; there is no retry.
func (c *Client) Submit(ctx context.Context, req Request) (*Result, error) {
	result, err := c.submit(ctx, req)
	if err != nil {
		c.logger.Error("analysis request failed",
			slog.String("url", c.baseURL+AnalyzePath),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("%w: %v", ErrAnalysisRequest, err)
	}
	return result, nil
}

func (c *Client) submit(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+AnalyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var result Result
	dec := json.NewDecoder(resp.Body)
	if err := dec.Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("trailing data after response")
	}

	if err := checkShape(&result); err != nil {
		return nil, err
	}

	return &result, nil
}

// checkShape rejects responses missing whole sections. Missing optional
// fields inside a stat are not errors.
func checkShape(r *Result) error {
	switch {
	case r.Summary == nil:
		return errors.New("response has no summary")
	case r.ConversionStats == nil:
		return errors.New("response has no conversion_stats")
	case r.ARPUStats == nil:
		return errors.New("response has no arpu_stats")
	case r.RevenuePerSaleStats == nil:
		return errors.New("response has no revenue_per_sale_stats")
	}
	return nil
}
