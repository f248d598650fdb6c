package health

import (
	"net/http"
	"sync/atomic"
	"time"

	"github.com/azellar/backend/internal/common"
)

// ServiceName is echoed by the root endpoint.
const ServiceName = "Azellar Backend API"

// Readiness tracks whether the process still accepts traffic. The zero value
// is ready. A nil *Readiness is always ready.
type Readiness struct {
	draining atomic.Bool
}

// NewReadiness returns a ready tracker.
func NewReadiness() *Readiness { return &Readiness{} }

// Drain marks the process as shutting down.
func (r *Readiness) Drain() {
	if r != nil {
		r.draining.Store(true)
	}
}

// Ready reports whether Drain has not been called.
func (r *Readiness) Ready() bool {
	return r == nil || !r.draining.Load()
}

// Handler exposes the identification and probe endpoints.
type Handler struct {
	Now       func() time.Time
	Readiness *Readiness
}

type rootResponse struct {
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Root identifies the service.
func (h Handler) Root(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, rootResponse{Message: ServiceName})
}

// Health is the liveness probe. It never consults downstream providers.
func (h Handler) Health(w http.ResponseWriter, _ *http.Request) {
	common.JSON(w, http.StatusOK, healthResponse{
		Status:    "healthy",
		Timestamp: h.now().Format(time.RFC3339Nano),
	})
}

// Ready answers 503 once shutdown has begun so load balancers stop routing.
func (h Handler) Ready(w http.ResponseWriter, _ *http.Request) {
	if !h.Readiness.Ready() {
		common.JSON(w, http.StatusServiceUnavailable, healthResponse{Status: "draining", Timestamp: h.now().Format(time.RFC3339Nano)})
		return
	}
	common.JSON(w, http.StatusOK, healthResponse{Status: "ready", Timestamp: h.now().Format(time.RFC3339Nano)})
}

func (h Handler) now() time.Time {
	if h.Now == nil {
		return time.Now().UTC()
	}
	return h.Now()
}
