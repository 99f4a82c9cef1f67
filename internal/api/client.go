// Package api talks to the remote todo collection.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
)

const (
	collectionPath = "/api/todo"
	recordPath     = "/api/todo/search/"

	// maxErrorBody caps how much of a failed response is kept on StatusError.
	maxErrorBody = 512
)

// Client performs the CRUD calls. It never retries; callers decide what a
// failure means for them.
type Client struct {
	baseURL    string
	httpClient *http.Client
	token      string
	logger     *log.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout bounds every request. Zero means no client-side limit.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithToken sends "Authorization: Bearer <token>" when token is non-empty.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *log.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New builds a client for the given base origin, e.g. "http://localhost:8000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("base url %q: missing host", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{},
		logger:     log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalized origin the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

// ListAll fetches the whole collection.
func (c *Client) ListAll(ctx context.Context) ([]model.Todo, error) {
	const op = "list"
	body, err := c.do(ctx, op, http.MethodGet, collectionPath, nil)
	if err != nil {
		return nil, err
	}
	var todos []model.Todo
	if err := decodeValidated(body, listSchema, &todos); err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	if todos == nil {
		todos = []model.Todo{}
	}
	return todos, nil
}

// Find fetches one record.
func (c *Client) Find(ctx context.Context, id model.ID) (model.Todo, error) {
	const op = "find"
	body, err := c.do(ctx, op, http.MethodGet, recordURLPath(id), nil)
	if err != nil {
		return model.Todo{}, err
	}
	var t model.Todo
	if err := decodeValidated(body, todoSchema, &t); err != nil {
		return model.Todo{}, &ParseError{Op: op, Err: err}
	}
	return t, nil
}

// Create submits a new record. The server assigns id and completed=false.
func (c *Client) Create(ctx context.Context, in model.NewTodo) error {
	_, err := c.do(ctx, "create", http.MethodPost, collectionPath, in)
	return err
}

// UpdatePartial patches only the fields set on p.
func (c *Client) UpdatePartial(ctx context.Context, id model.ID, p model.Patch) error {
	_, err := c.do(ctx, "update", http.MethodPatch, recordURLPath(id), p)
	return err
}

// Delete removes one record.
func (c *Client) Delete(ctx context.Context, id model.ID) error {
	_, err := c.do(ctx, "delete", http.MethodDelete, recordURLPath(id), nil)
	return err
}

func recordURLPath(id model.ID) string {
	return recordPath + url.PathEscape(id.String())
}

func (c *Client) do(ctx context.Context, op, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal: %w", op, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	reqID := uuid.New().String()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "method", method, "path", path, "request_id", reqID, "err", err)
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Warn("read body failed", "op", op, "request_id", reqID, "err", err)
		return nil, &TransportError{Op: op, Err: fmt.Errorf("read body: %w", err)}
	}
	c.logger.Debug("request", "op", op, "method", method, "path", path,
		"status", resp.StatusCode, "request_id", reqID, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := strings.TrimSpace(string(body))
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		c.logger.Warn("unexpected status", "op", op, "status", resp.StatusCode, "request_id", reqID)
		return nil, &StatusError{Op: op, Code: resp.StatusCode, Body: msg}
	}
	return body, nil
}
