package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	// ErrConflict reports a duplicate row or an already registered auth user.
	ErrConflict = errors.New("supabase: conflict")
	// ErrNotConfigured is returned when the project URL or key is missing.
	ErrNotConfigured = errors.New("supabase: url and api key are required")
)

const uniqueViolation = "23505"

// APIError is a non-2xx answer from PostgREST or GoTrue.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("supabase: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("supabase: %d: %s", e.Status, msg)
}

// Is maps duplicate-key answers onto ErrConflict.
func (e *APIError) Is(target error) bool {
	if target != ErrConflict {
		return false
	}
	return e.Status == http.StatusConflict || e.Code == uniqueViolation ||
		strings.Contains(strings.ToLower(e.Message), "already registered") ||
		strings.Contains(strings.ToLower(e.Message), "already been registered")
}

// Config holds the project endpoint and credentials.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to the Supabase REST and auth admin APIs.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient validates cfg and returns a Client.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	key := strings.TrimSpace(cfg.APIKey)
	if base == "" || key == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("supabase: parse url: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: base, apiKey: key, http: httpClient}, nil
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	headers map[string]string
}

// do sends req and decodes a 2xx JSON answer into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) (int, error) {
	var body io.Reader
	if req.body != nil {
		raw, err := json.Marshal(req.body)
		if err != nil {
			return 0, fmt.Errorf("supabase: encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return 0, fmt.Errorf("supabase: build request: %w", err)
	}
	httpReq.Header.Set("apikey", c.apiKey)
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for k, v := range req.headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("supabase: %s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("supabase: read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, decodeAPIError(resp.StatusCode, raw)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("supabase: decode %s: %w", req.path, err)
		}
	}
	return resp.StatusCode, nil
}

func decodeAPIError(status int, raw []byte) error {
	apiErr := &APIError{Status: status}
	var payload struct {
		Code      any    `json:"code"`
		Message   string `json:"message"`
		Msg       string `json:"msg"`
		ErrorDesc string `json:"error_description"`
		Details   string `json:"details"`
		Hint      string `json:"hint"`
	}
	if json.Unmarshal(raw, &payload) == nil {
		// GoTrue reports numeric codes and uses msg instead of message.
		if s, ok := payload.Code.(string); ok {
			apiErr.Code = s
		}
		apiErr.Message = firstNonEmpty(payload.Message, payload.Msg, payload.ErrorDesc)
		apiErr.Details = payload.Details
		apiErr.Hint = payload.Hint
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Ping checks that the REST endpoint answers with the configured key.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/rest/v1/"}, nil)
	return err
}

// TableExists checks a table with a one-row range request. Only a missing
// relation reports false without an error.
func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	status, err := c.do(ctx, request{
		method:  http.MethodGet,
		path:    "/rest/v1/" + url.PathEscape(table),
		query:   url.Values{"select": {"*"}},
		headers: map[string]string{"Range": "0-0"},
	}, nil)
	if err == nil {
		return status == http.StatusOK || status == http.StatusPartialContent, nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.missingRelation() {
		return false, nil
	}
	return false, err
}

// missingRelation reports whether PostgREST answered that the relation is
// not in its schema cache.
func (e *APIError) missingRelation() bool {
	switch e.Code {
	case "42P01", "PGRST205":
		return true
	}
	return e.Status == http.StatusNotFound
}

// ListTables asks the list_tables RPC and falls back to information_schema.
func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	var rows []map[string]any
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/rest/v1/rpc/list_tables"}, &rows)
	if err != nil {
		rows = nil
		_, err = c.do(ctx, request{
			method: http.MethodGet,
			path:   "/rest/v1/information_schema/tables",
			query:  url.Values{"select": {"table_name"}, "limit": {"100"}},
		}, &rows)
		if err != nil {
			return nil, fmt.Errorf("supabase: list tables: %w", err)
		}
	}
	names := make([]string, 0, len(rows))
	for _, row := range rows {
		for _, key := range []string{"table_name", "name", "tablename"} {
			if v, ok := row[key].(string); ok && v != "" {
				names = append(names, v)
				break
			}
		}
	}
	return names, nil
}

// Select reads rows from table. query carries PostgREST parameters such as
// select, limit and column filters.
func (c *Client) Select(ctx context.Context, table string, query url.Values, out any) error {
	_, err := c.do(ctx, request{method: http.MethodGet, path: "/rest/v1/" + url.PathEscape(table), query: query}, out)
	return err
}

// Insert adds rows to table and decodes the stored representation into out.
// Duplicate keys surface as errors matching ErrConflict.
func (c *Client) Insert(ctx context.Context, table string, rows any, out any) error {
	_, err := c.do(ctx, request{
		method:  http.MethodPost,
		path:    "/rest/v1/" + url.PathEscape(table),
		body:    rows,
		headers: map[string]string{"Prefer": "return=representation"},
	}, out)
	return err
}

// ExecuteSQL runs a statement through the execute_sql RPC, which must exist
// in the project.
func (c *Client) ExecuteSQL(ctx context.Context, query string) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/rest/v1/rpc/execute_sql",
		body:   map[string]string{"query": query},
	}, nil)
	return err
}

// AuthUser describes an account created through the auth admin API.
type AuthUser struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// CreateAuthUser registers a confirmed user and returns its id. Requires the
// service role key.
func (c *Client) CreateAuthUser(ctx context.Context, u AuthUser) (string, error) {
	body := map[string]any{
		"email":         u.Email,
		"password":      u.Password,
		"email_confirm": true,
	}
	if len(u.Metadata) > 0 {
		body["user_metadata"] = u.Metadata
	}
	var created struct {
		ID   string `json:"id"`
		User *struct {
			ID string `json:"id"`
		} `json:"user"`
	}
	if _, err := c.do(ctx, request{method: http.MethodPost, path: "/auth/v1/admin/users", body: body}, &created); err != nil {
		return "", err
	}
	if created.ID == "" && created.User != nil {
		return created.User.ID, nil
	}
	return created.ID, nil
}
