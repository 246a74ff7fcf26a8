// Package statsapi implements the typed request/response boundary to the
// remote statistics service. Calls carry no retries and no caching: every
// call reflects current server state.
package statsapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/kitaoji/hensachi/internal/config"
	"github.com/kitaoji/hensachi/internal/domain/model"
	"github.com/kitaoji/hensachi/pkg/logger"
	"github.com/kitaoji/hensachi/pkg/metrics"
)

const defaultTimeout = 10 * time.Second

// Client talks to the remote statistics service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     logger.Logger
}

// New creates a client for the service rooted at baseURL (no trailing
// slash required).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    trimTrailingSlash(baseURL),
		httpClient: &http.Client{Timeout: defaultTimeout},
		userAgent:  "hensachi-client/1",
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logger.Get().Named("statsapi")
	}

	return c
}

// RankScore fetches the standardized score for one ladder tier.
func (c *Client) RankScore(ctx context.Context, code string) (*model.ScoreResult, error) {
	var out rankScoreResponse
	path := fmt.Sprintf("/apex/rank/hensachi/%s/", url.PathEscape(code))
	if err := c.get(ctx, "rank_score", path, &out); err != nil {
		return nil, err
	}
	return out.toResult()
}

// Datasets lists the collaborator's dataset catalog.
func (c *Client) Datasets(ctx context.Context) ([]model.Dataset, error) {
	var out []datasetResponse
	if err := c.get(ctx, "datasets", "/datasets/", &out); err != nil {
		return nil, err
	}
	sets := make([]model.Dataset, len(out))
	for i, d := range out {
		sets[i] = model.Dataset{Slug: d.Slug, Name: d.Name, Description: d.Description}
	}
	return sets, nil
}

// Metrics lists the metrics of one dataset.
func (c *Client) Metrics(ctx context.Context, datasetSlug string) ([]model.MetricInfo, error) {
	var out []metricInfoResponse
	path := fmt.Sprintf("/datasets/%s/metrics/", url.PathEscape(datasetSlug))
	if err := c.get(ctx, "metrics", path, &out); err != nil {
		return nil, err
	}
	infos := make([]model.MetricInfo, len(out))
	for i, m := range out {
		infos[i] = model.MetricInfo{Key: m.Key, Name: m.Name, Unit: m.Unit}
	}
	return infos, nil
}

// MetricScores fetches the scored table for one dataset metric. Rows keep
// the collaborator's order; they are never re-sorted here.
func (c *Client) MetricScores(ctx context.Context, datasetSlug, metricKey string) (*model.MetricTable, error) {
	var out metricScoresResponse
	path := fmt.Sprintf("/datasets/%s/metrics/%s/hensachi/",
		url.PathEscape(datasetSlug), url.PathEscape(metricKey))
	if err := c.get(ctx, "metric_scores", path, &out); err != nil {
		return nil, err
	}
	return out.toTable()
}

// SubmitValue records one user submission. The value must be a finite
// number; anything else fails locally before the network.
func (c *Client) SubmitValue(ctx context.Context, userMetricSlug, identity string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value must be a finite number", ErrValidation)
	}
	path := fmt.Sprintf("/u/%s/submit/", url.PathEscape(userMetricSlug))
	body := submitRequest{UserHash: identity, Value: value}
	var ack ackResponse
	return c.post(ctx, "submit_value", path, body, &ack)
}

// UserScore computes the standardized score for a candidate value without
// recording it.
func (c *Client) UserScore(ctx context.Context, userMetricSlug string, value float64) (*model.ScoreResult, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return nil, fmt.Errorf("%w: value must be a finite number", ErrValidation)
	}
	var out userScoreResponse
	path := fmt.Sprintf("/u/%s/hensachi/%s/",
		url.PathEscape(userMetricSlug),
		url.PathEscape(strconv.FormatFloat(value, 'f', -1, 64)))
	if err := c.get(ctx, "user_score", path, &out); err != nil {
		return nil, err
	}
	return out.toResult()
}

// History returns at most limit past submissions, most-recent first. The
// limit is clamped to [1,100], mirroring the collaborator's own clamp; a
// non-positive limit means the default window.
func (c *Client) History(ctx context.Context, userMetricSlug, identity string, limit int) (model.HistoryWindow, error) {
	if limit <= 0 {
		limit = config.DefaultHistoryLimit
	}
	if limit > config.MaxHistoryLimit {
		limit = config.MaxHistoryLimit
	}

	q := url.Values{}
	q.Set("user_hash", identity)
	q.Set("limit", strconv.Itoa(limit))
	path := fmt.Sprintf("/u/%s/history/?%s", url.PathEscape(userMetricSlug), q.Encode())

	var out historyResponse
	if err := c.get(ctx, "history", path, &out); err != nil {
		return nil, err
	}

	window := make(model.HistoryWindow, len(out.Items))
	for i, item := range out.Items {
		window[i] = model.HistoryEntry{ID: item.ID, Value: item.Value, SubmittedAt: item.CreatedAt}
	}
	return window, nil
}

func (c *Client) get(ctx context.Context, operation, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return c.do(operation, req, out)
}

func (c *Client) post(ctx context.Context, operation, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: marshal request: %v", ErrValidation, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(operation, req, out)
}

// do executes one request and decodes the response. Non-2xx responses are
// surfaced with status and raw body text.
func (c *Client) do(operation string, req *http.Request, out any) error {
	req.Header.Set("Cache-Control", "no-store")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordAPIRequest(operation, 0, time.Since(start))
		return fmt.Errorf("%w: %s %s: %v", ErrNetwork, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	metrics.RecordAPIRequest(operation, resp.StatusCode, time.Since(start))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read body: %v", ErrNetwork, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Debug(req.Context(), "collaborator rejected request",
			logger.String("operation", operation),
			logger.Int("status", resp.StatusCode),
		)
		return statusError(operation, resp.StatusCode, string(raw))
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDecode, operation, err)
	}
	return nil
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
