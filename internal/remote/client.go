// Package remote is the console's client for the user collection endpoint.
// It wraps the four REST calls and converts failures into NetworkError or
// ServerError. It never retries.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/model"
)

const (
	// DefaultBaseURL is the collection endpoint used when none is configured.
	DefaultBaseURL = "http://localhost:8080/api/users"

	// ClientTimeout is the total request timeout.
	ClientTimeout = 10 * time.Second
	// DialTimeout is the connection timeout.
	DialTimeout = 5 * time.Second
	// ResponseHeaderTimeout is time to wait for response headers.
	ResponseHeaderTimeout = 8 * time.Second

	// maxListBody caps the list response read into memory.
	maxListBody = 4 << 20
	// maxErrorBody caps the body excerpt kept in ServerError.
	maxErrorBody = 512

	userAgent       = "userdesk-console/1.0"
	requestIDHeader = "X-Request-ID"
)

// Operation names used for errors, logs and metrics.
const (
	OpList   = "list"
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
)

// API is the contract the list controller depends on.
type API interface {
	List(ctx context.Context) ([]model.User, error)
	Create(ctx context.Context, draft model.Draft) error
	Update(ctx context.Context, id int64, user model.User) error
	Delete(ctx context.Context, id int64) error
}

// Compile-time interface check.
var _ API = (*Client)(nil)

// Client talks to a single collection endpoint over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	metrics metrics.Recorder
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the total request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithLogger sets the logger used for call outcomes.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Client) {
		c.metrics = r
	}
}

// NewHTTPClient creates an HTTP client with explicit connection timeouts.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Timeout: ClientTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   DialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   DialTimeout,
			ResponseHeaderTimeout: ResponseHeaderTimeout,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// New creates a Client for the collection at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    NewHTTPClient(),
		logger:  slog.Default(),
		metrics: metrics.NewNoop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the collection endpoint.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// List fetches the whole collection in server order.
func (c *Client) List(ctx context.Context) ([]model.User, error) {
	resp, err := c.do(ctx, OpList, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var users []model.User
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxListBody)).Decode(&users); err != nil {
		return nil, &ServerError{Op: OpList, StatusCode: resp.StatusCode, Body: "invalid response body: " + err.Error()}
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// Create posts a draft. The server assigns the identifier; callers re-list to
// observe it.
func (c *Client) Create(ctx context.Context, draft model.Draft) error {
	return c.send(ctx, OpCreate, http.MethodPost, c.baseURL, draft)
}

// Update replaces the record at id.
func (c *Client) Update(ctx context.Context, id int64, user model.User) error {
	user.ID = id
	return c.send(ctx, OpUpdate, http.MethodPut, c.itemURL(id), user)
}

// Delete removes the record at id.
func (c *Client) Delete(ctx context.Context, id int64) error {
	return c.send(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil)
}

func (c *Client) itemURL(id int64) string {
	return c.baseURL + "/" + strconv.FormatInt(id, 10)
}

// send performs a call whose response body is ignored.
func (c *Client) send(ctx context.Context, op, method, url string, body any) error {
	resp, err := c.do(ctx, op, method, url, body)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	return nil
}

// do issues the request and returns the response only for 2xx statuses.
func (c *Client) do(ctx context.Context, op, method, url string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal body: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", op, err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.metrics.ObserveRemoteCall(op, metrics.OutcomeNetwork, duration)
		c.logger.Warn("remote_call_failed",
			"op", op,
			"request_id", requestID,
			"error", err,
		)
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()
		c.metrics.ObserveRemoteCall(op, metrics.OutcomeServer, duration)
		c.logger.Warn("remote_call_rejected",
			"op", op,
			"request_id", requestID,
			"status_code", resp.StatusCode,
		)
		return nil, &ServerError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(excerpt))}
	}

	c.metrics.ObserveRemoteCall(op, metrics.OutcomeSuccess, duration)
	c.logger.Debug("remote_call",
		"op", op,
		"request_id", requestID,
		"status_code", resp.StatusCode,
		"duration_ms", float64(duration.Microseconds())/1000,
	)
	return resp, nil
}
