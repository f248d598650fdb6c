package server_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/azellar/backend/internal/config"
	"github.com/azellar/backend/internal/health"
	"github.com/azellar/backend/internal/notify"
	"github.com/azellar/backend/internal/obs"
	"github.com/azellar/backend/internal/server"
)

type fakeSender struct {
	contactErr    error
	enrollmentErr error
	contacts      int
	enrollments   int
}

func (f *fakeSender) SendContact(context.Context, notify.ContactRequest) error {
	f.contacts++
	return f.contactErr
}

func (f *fakeSender) SendEnrollment(context.Context, notify.EnrollmentRequest) error {
	f.enrollments++
	return f.enrollmentErr
}

func newRouter(sender *fakeSender) http.Handler {
	return server.NewRouter(server.Deps{
		Logger:          zerolog.Nop(),
		CORSOrigins:     config.DefaultCORSOrigins,
		MaxBodyBytes:    1024,
		SecurityHeaders: true,
		Contact:         sender,
		Enrollment:      sender,
	})
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRootAndHealth(t *testing.T) {
	h := newRouter(&fakeSender{})

	rr := do(h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"message":"Azellar Backend API"}`, rr.Body.String())

	rr = do(h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"healthy"`)
	require.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}

func TestReadyRouteFollowsReadiness(t *testing.T) {
	readiness := health.NewReadiness()
	h := server.NewRouter(server.Deps{Logger: zerolog.Nop(), Readiness: readiness})

	rr := do(h, http.MethodGet, "/api/ready", "")
	require.Equal(t, http.StatusOK, rr.Code)

	readiness.Drain()
	rr = do(h, http.MethodGet, "/api/ready", "")
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.Contains(t, rr.Body.String(), `"status":"draining"`)

	rr = do(h, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rr.Code)
}

func TestContactRoute(t *testing.T) {
	sender := &fakeSender{}
	h := newRouter(sender)

	rr := do(h, http.MethodPost, "/api/send-contact-email", `{"name":"Test User","email":"valid@test-domain","message":"hi","inquiry_type":"general"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"success","message":"Emails sent successfully"}`, rr.Body.String())
	require.Equal(t, 1, sender.contacts)
}

func TestContactRouteMissingFields(t *testing.T) {
	sender := &fakeSender{}
	h := newRouter(sender)

	rr := do(h, http.MethodPost, "/api/send-contact-email", `{"name":"Test User"}`)
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Zero(t, sender.contacts)
}

func TestEnrollmentRouteProviderFailure(t *testing.T) {
	sender := &fakeSender{enrollmentErr: &notify.SendError{Flow: notify.FlowEnrollment, Step: notify.StepEnrollmentConfirmation, Err: errors.New("domain not verified")}}
	h := newRouter(sender)

	rr := do(h, http.MethodPost, "/api/send-enrollment-email", `{"student_name":"a","student_email":"b","course_name":"c","course_details":{}}`)
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	require.NotContains(t, rr.Body.String(), "domain not verified")
}

func TestOversizedBodyRejected(t *testing.T) {
	sender := &fakeSender{}
	h := newRouter(sender)

	body := `{"name":"` + strings.Repeat("x", 2048) + `","email":"e","message":"m","inquiry_type":"i"}`
	rr := do(h, http.MethodPost, "/api/send-contact-email", body)
	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Zero(t, sender.contacts)
}

func TestOversizedStreamingBodyRejected(t *testing.T) {
	sender := &fakeSender{}
	h := newRouter(sender)

	body := `{"name":"` + strings.Repeat("x", 2048) + `","email":"e","message":"m","inquiry_type":"i"}`
	req := httptest.NewRequest(http.MethodPost, "/api/send-contact-email", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.ContentLength = -1
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.Contains(t, rr.Body.String(), `"code":"PAYLOAD_TOO_LARGE"`)
	require.Zero(t, sender.contacts)
}

func TestCORSPreflight(t *testing.T) {
	h := newRouter(&fakeSender{})

	req := httptest.NewRequest(http.MethodOptions, "/api/send-contact-email", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	require.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
	require.Equal(t, "true", rr.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := server.NewRouter(server.Deps{
		Logger:      zerolog.Nop(),
		CORSOrigins: config.DefaultCORSOrigins,
		Metrics:     obs.NewHTTPMetrics("azellar", nil, reg),
		Gatherer:    reg,
		Contact:     &fakeSender{},
		Enrollment:  &fakeSender{},
	})

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/api/health", "").Code)
	rr := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `azellar_http_requests_total{method="GET",route="/api/health",status="200"} 1`)
}
