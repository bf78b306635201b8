package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/cache"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/controls"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dashboard"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/lifecycle"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/traffic"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/views"
)

// HealthConfig holds the thresholds the health handler evaluates over the traffic window.
type HealthConfig struct {
	Window               time.Duration
	ErrorPct             int
	OverloadThresholdPct int
	RateLimitRPS         int // 0 when the rate limiter is disabled
	// CachePing, when set, reports chart cache reachability. Used with the memcached backend.
	CachePing func() error
}

// Handler serves the dashboard. Render routes answer 503 until SetRenderer is called.
type Handler struct {
	renderer     atomic.Pointer[dashboard.Renderer]
	charts       *cache.ChartStore
	healthConfig *HealthConfig
	logger       *zap.Logger

	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a Handler. renderer may be nil while the dataset is still loading;
// a nil charts store renders every chart request.
func NewHandler(renderer *dashboard.Renderer, charts *cache.ChartStore, healthConfig *HealthConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if charts == nil {
		charts = cache.NewChartStore(nil, 0, logger)
	}
	h := &Handler{charts: charts, healthConfig: healthConfig, logger: logger}
	if renderer != nil {
		h.renderer.Store(renderer)
	}
	return h
}

// SetRenderer makes the render routes available.
func (h *Handler) SetRenderer(r *dashboard.Renderer) {
	h.renderer.Store(r)
}

// prepare resolves the renderer and the control snapshot for a render route.
// On failure it has already written the response.
func (h *Handler) prepare(w http.ResponseWriter, r *http.Request) (*dashboard.Renderer, controls.State, bool) {
	renderer := h.renderer.Load()
	if renderer == nil {
		writeError(w, r, http.StatusServiceUnavailable, "LOADING", "dataset is still loading")
		return nil, controls.State{}, false
	}
	state, err := controls.Parse(r.URL.Query())
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_CONTROLS", err.Error())
		return nil, controls.State{}, false
	}
	return renderer, state, true
}

// GetDashboard handles GET /.
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	renderer, state, ok := h.prepare(w, r)
	if !ok {
		return
	}
	page := renderer.Render(r.Context(), state)
	if timedOut(w, r) {
		return
	}
	recordOutcome(page.Failed())

	var buf bytes.Buffer
	if err := writePage(&buf, page); err != nil {
		loggerFrom(r).Error("page template failed", zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render dashboard")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// GetDashboardJSON handles GET /api/dashboard.
func (h *Handler) GetDashboardJSON(w http.ResponseWriter, r *http.Request) {
	renderer, state, ok := h.prepare(w, r)
	if !ok {
		return
	}
	page := renderer.Render(r.Context(), state)
	if timedOut(w, r) {
		return
	}
	recordOutcome(page.Failed())
	writeJSON(w, http.StatusOK, page)
}

// GetChart handles GET /charts/{view}.
func (h *Handler) GetChart(w http.ResponseWriter, r *http.Request) {
	view, err := dashboard.ParseView(mux.Vars(r)["view"])
	if err != nil {
		writeError(w, r, http.StatusNotFound, "UNKNOWN_VIEW", err.Error())
		return
	}
	renderer, state, ok := h.prepare(w, r)
	if !ok {
		return
	}

	body, err := h.charts.Render(r.Context(), renderer, view, state)
	switch {
	case errors.Is(err, dashboard.ErrHidden):
		writeError(w, r, http.StatusNotFound, "VIEW_HIDDEN", err.Error())
		return
	case errors.Is(err, views.ErrNoWords):
		// Nothing to draw is an answer, not a failure; keep it out of the error rate.
		recordOutcome(false)
		writeError(w, r, http.StatusUnprocessableEntity, "NO_WORDS", err.Error())
		return
	case err != nil:
		recordOutcome(true)
		loggerFrom(r).Error("chart render failed", zap.String("view", string(view)), zap.Error(err))
		writeError(w, r, http.StatusInternalServerError, "RENDER_FAILED", "Unable to render chart")
		return
	}
	if timedOut(w, r) {
		return
	}
	recordOutcome(false)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func recordOutcome(failed bool) {
	if failed {
		traffic.Record(traffic.Error)
		return
	}
	traffic.Record(traffic.OK)
}

// timedOut writes 503 and reports true when the request deadline passed during rendering.
func timedOut(w http.ResponseWriter, r *http.Request) bool {
	if !errors.Is(r.Context().Err(), context.DeadlineExceeded) {
		return false
	}
	traffic.Record(traffic.Error)
	writeError(w, r, http.StatusServiceUnavailable, "TIMEOUT", "Rendering took too long")
	return true
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus()

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	checks := map[string]string{"dataset": "ready", "renders": "healthy"}
	if h.renderer.Load() == nil {
		checks["dataset"] = "loading"
	}
	if result.reason == "error_rate_breach" {
		checks["renders"] = "unhealthy"
	}
	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if h.healthConfig.CachePing() == nil {
			checks["cache"] = "healthy"
		} else {
			checks["cache"] = "unhealthy"
		}
	}
	writeJSON(w, result.statusCode, map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   "dev",
		"phase":     lifecycle.Current().String(),
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// computeHealthStatus evaluates conditions in priority order:
// shutting-down > loading > overloaded > degraded > healthy.
func (h *Handler) computeHealthStatus() healthResult {
	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal"}
	}
	if lifecycle.Current() == lifecycle.Loading || h.renderer.Load() == nil {
		return healthResult{"loading", http.StatusServiceUnavailable, "dataset_loading"}
	}
	if h.healthConfig == nil || h.healthConfig.Window <= 0 {
		return healthResult{"healthy", http.StatusOK, ""}
	}
	cfg := h.healthConfig
	counts := traffic.Window(cfg.Window)

	// Overload compares all traffic in the window, denials included, to the limiter's capacity.
	if cfg.RateLimitRPS > 0 && cfg.OverloadThresholdPct > 0 {
		threshold := float64(cfg.RateLimitRPS) * cfg.Window.Seconds() * float64(cfg.OverloadThresholdPct) / 100
		if float64(counts.Total()) > threshold {
			return healthResult{"overloaded", http.StatusServiceUnavailable, "overload_threshold"}
		}
	}
	if cfg.ErrorPct > 0 && counts.OK+counts.Errors > 0 && counts.ErrorPct() >= float64(cfg.ErrorPct) {
		return healthResult{"degraded", http.StatusServiceUnavailable, "error_rate_breach"}
	}
	return healthResult{"healthy", http.StatusOK, ""}
}

// writeJSON writes v as JSON with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes the standard error envelope with the request's correlation ID.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}
