package smoke

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

	"github.com/rs/zerolog"
)

// Check is one request against a running API together with its expectation.
type Check struct {
	Name       string
	Method     string
	Path       string
	Body       any
	WantStatus int
	// Validate inspects the response body once the status matched.
	Validate func(body []byte) error
}

// Result is the outcome of one Check.
type Result struct {
	Name    string
	Status  int
	Latency time.Duration
	Err     error
}

// Passed reports whether the check met its expectation.
func (r Result) Passed() bool { return r.Err == nil }

// Report holds the results of a run in execution order.
type Report struct {
	Results []Result
}

// Passed is true when every check passed.
func (r Report) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed() {
			return false
		}
	}
	return len(r.Results) > 0
}

// Failed returns the checks that did not pass.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.Passed() {
			out = append(out, res)
		}
	}
	return out
}

// Runner executes checks sequentially against BaseURL.
type Runner struct {
	BaseURL string
	HTTP    *http.Client
	Logger  zerolog.Logger
}

// Run executes checks in order. Failures are recorded, never fatal.
func (r Runner) Run(ctx context.Context, checks []Check) Report {
	client := r.HTTP
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	base := strings.TrimRight(r.BaseURL, "/")

	var rep Report
	for _, c := range checks {
		res := r.runOne(ctx, client, base, c)
		evt := r.Logger.Info()
		if !res.Passed() {
			evt = r.Logger.Error().Err(res.Err)
		}
		evt.Str("check", res.Name).Int("status", res.Status).Dur("latency", res.Latency).Bool("passed", res.Passed()).Msg("smoke check")
		rep.Results = append(rep.Results, res)
	}
	return rep
}

func (r Runner) runOne(ctx context.Context, client *http.Client, base string, c Check) Result {
	res := Result{Name: c.Name}

	var body io.Reader
	if c.Body != nil {
		raw, err := json.Marshal(c.Body)
		if err != nil {
			res.Err = fmt.Errorf("encode body: %w", err)
			return res
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, c.Method, base+c.Path, body)
	if err != nil {
		res.Err = err
		return res
	}
	if c.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Latency = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close()
	res.Status = resp.StatusCode

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		res.Err = fmt.Errorf("read body: %w", err)
		return res
	}
	if resp.StatusCode != c.WantStatus {
		res.Err = fmt.Errorf("expected status %d, got %d", c.WantStatus, resp.StatusCode)
		return res
	}
	if c.Validate != nil {
		res.Err = c.Validate(raw)
	}
	return res
}

// Options tunes the default check list.
type Options struct {
	// DeliverableEmail must be accepted by the provider. The Resend sandbox
	// only delivers to its own test inboxes.
	DeliverableEmail string
	// RejectedEmail must be refused by the provider.
	RejectedEmail string
}

// DefaultChecks exercises every public endpoint once.
func DefaultChecks(opts Options) []Check {
	if opts.DeliverableEmail == "" {
		opts.DeliverableEmail = "delivered@resend.dev"
	}
	if opts.RejectedEmail == "" {
		opts.RejectedEmail = "test@example.com"
	}
	return []Check{
		{
			Name: "root", Method: http.MethodGet, Path: "/", WantStatus: http.StatusOK,
			Validate: expectField("message", "Azellar Backend API"),
		},
		{
			Name: "health", Method: http.MethodGet, Path: "/api/health", WantStatus: http.StatusOK,
			Validate: validateHealth,
		},
		{
			Name: "contact", Method: http.MethodPost, Path: "/api/send-contact-email", WantStatus: http.StatusOK,
			Body: map[string]string{
				"name":         "Test User",
				"email":        opts.DeliverableEmail,
				"message":      "This is a test contact form submission",
				"inquiry_type": "general",
			},
			Validate: expectField("status", "success"),
		},
		{
			Name: "contact_rejected_recipient", Method: http.MethodPost, Path: "/api/send-contact-email", WantStatus: http.StatusInternalServerError,
			Body: map[string]string{
				"name":         "Test User",
				"email":        opts.RejectedEmail,
				"message":      "This is a test contact form submission",
				"inquiry_type": "general",
			},
			Validate: expectGenericFailure("Failed to send emails"),
		},
		{
			Name: "contact_missing_fields", Method: http.MethodPost, Path: "/api/send-contact-email", WantStatus: http.StatusUnprocessableEntity,
			Body: map[string]string{"name": "Test User"},
		},
		{
			Name: "enrollment", Method: http.MethodPost, Path: "/api/send-enrollment-email", WantStatus: http.StatusOK,
			Body: map[string]any{
				"student_name":   "John Doe",
				"student_email":  opts.DeliverableEmail,
				"course_name":    "Database Fundamentals",
				"course_details": map[string]any{},
			},
			Validate: expectField("status", "success"),
		},
	}
}

func expectField(key, want string) func([]byte) error {
	return func(body []byte) error {
		var payload map[string]any
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("response is not JSON: %w", err)
		}
		if got, _ := payload[key].(string); got != want {
			return fmt.Errorf("expected %s=%q, got %q", key, want, got)
		}
		return nil
	}
}

func validateHealth(body []byte) error {
	var payload struct {
		Status    string `json:"status"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}
	if payload.Status != "healthy" {
		return fmt.Errorf("expected status healthy, got %q", payload.Status)
	}
	if _, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err != nil {
		return fmt.Errorf("timestamp %q is not ISO-8601: %w", payload.Timestamp, err)
	}
	return nil
}

// expectGenericFailure checks that the error body carries only the fixed
// message and nothing from the provider.
func expectGenericFailure(message string) func([]byte) error {
	return func(body []byte) error {
		var payload struct {
			Error struct {
				Message string `json:"message"`
				Details any    `json:"details"`
			} `json:"error"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return fmt.Errorf("response is not JSON: %w", err)
		}
		if payload.Error.Message != message {
			return fmt.Errorf("expected message %q, got %q", message, payload.Error.Message)
		}
		if payload.Error.Details != nil {
			return errors.New("failure response leaks details")
		}
		return nil
	}
}
