package health

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/vrsocial/roomcore/internal/v1/logging"
	"github.com/vrsocial/roomcore/internal/v1/sessionmap"
)

// Handler manages health check endpoints.
type Handler struct {
	sessions *sessionmap.Map
}

// NewHandler creates a new health check handler. sessions may be nil, in
// which case readiness reports the optional session map as "disabled" and
// still returns ready (spec §4.3: its absence never blocks the process).
func NewHandler(sessions *sessionmap.Map) *Handler {
	return &Handler{sessions: sessions}
}

// LivenessResponse represents the liveness probe response.
type LivenessResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ReadinessResponse represents the readiness probe response.
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Checks    map[string]string `json:"checks"`
	Timestamp string            `json:"timestamp"`
}

// Liveness handles the liveness probe endpoint.
// GET /health/live
// Returns 200 if the process is alive (no dependency checks).
func (h *Handler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, LivenessResponse{
		Status:    "alive",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readiness handles the readiness probe endpoint.
// GET /health/ready
// Returns 200 unless the room registry cannot be reached, which never
// happens for an in-process map; the only external dependency is the
// optional Redis session map, which degrades gracefully rather than
// failing readiness (spec §4.3).
func (h *Handler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{
		"room_registry": "healthy",
		"session_map":   h.checkSessionMap(ctx),
	}

	status, code := "ready", http.StatusOK

	c.JSON(code, ReadinessResponse{
		Status:    status,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) checkSessionMap(ctx context.Context) string {
	if h.sessions == nil {
		return "disabled"
	}
	if err := h.sessions.Ping(ctx); err != nil {
		logging.Warn(ctx, "session map health check failed", zap.Error(err))
		return "degraded"
	}
	return "healthy"
}
