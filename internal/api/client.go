// Package api is the HTTP client for the cultural-context analysis service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/bunka/internal/models"
)

// RequestIDHeader carries the per-request id sent to the service.
const RequestIDHeader = "X-Request-ID"

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 64 << 10

// Service is the set of remote operations the front ends rely on.
type Service interface {
	Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error)
	History(ctx context.Context, skip, limit int) ([]models.AnalysisResult, error)
	Get(ctx context.Context, id string) (*models.AnalysisResult, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context) (*models.Stats, error)
}

// Client talks to the analysis service over JSON.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithLogger sets a logger for request diagnostics.
func WithLogger(l *zap.Logger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the service at baseURL. timeout bounds each
// request; zero means no timeout.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the service root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// Analyze submits a passage and returns the stored analysis.
func (c *Client) Analyze(ctx context.Context, req *models.AnalysisRequest) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := c.do(ctx, http.MethodPost, "/api/analyze", nil, req, &result); err != nil {
		return nil, err
	}
	c.logDropped(&result)
	return &result, nil
}

// History lists stored analyses, most recent first. skip is omitted from the
// query when zero.
func (c *Client) History(ctx context.Context, skip, limit int) ([]models.AnalysisResult, error) {
	q := url.Values{}
	if skip > 0 {
		q.Set("skip", strconv.Itoa(skip))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	var raw []json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/history", q, nil, &raw); err != nil {
		return nil, err
	}
	entries := make([]models.AnalysisResult, 0, len(raw))
	for i, item := range raw {
		var e models.AnalysisResult
		if err := json.Unmarshal(item, &e); err != nil {
			c.logger.Warn("skipping unreadable history entry", zap.Int("index", i), zap.Error(err))
			continue
		}
		c.logDropped(&e)
		entries = append(entries, e)
	}
	return entries, nil
}

// Get fetches one stored analysis.
func (c *Client) Get(ctx context.Context, id string) (*models.AnalysisResult, error) {
	var result models.AnalysisResult
	if err := c.do(ctx, http.MethodGet, "/api/analysis/"+url.PathEscape(id), nil, nil, &result); err != nil {
		return nil, err
	}
	c.logDropped(&result)
	return &result, nil
}

// Delete removes one stored analysis. Any response body is ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/analysis/"+url.PathEscape(id), nil, nil, nil)
}

// Stats returns aggregate counts.
func (c *Client) Stats(ctx context.Context) (*models.Stats, error) {
	var stats models.Stats
	if err := c.do(ctx, http.MethodGet, "/api/stats", nil, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *Client) logDropped(res *models.AnalysisResult) {
	if len(res.Dropped) > 0 {
		c.logger.Warn("dropped unreadable analysis sections",
			zap.String("id", res.ID.String()),
			zap.Strings("sections", res.Dropped))
	}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set(RequestIDHeader, requestID)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Error(err))
		return fmt.Errorf("%w: %s %s: %v", ErrUnreachable, method, path, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("request done",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
		zap.String("request_id", requestID))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return newAPIError(resp.StatusCode, b, requestID)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
