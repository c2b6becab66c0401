package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/usv008/pizza-inventory-system-sub003/internal/interfaces/http/dto"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	Ping() error
}

// SystemHandler handles health and liveness endpoints
type SystemHandler struct {
	BaseHandler
	checker   HealthChecker
	version   string
	startTime time.Time
}

// NewSystemHandler creates a SystemHandler
func NewSystemHandler(checker HealthChecker, version string) *SystemHandler {
	return &SystemHandler{
		checker:   checker,
		version:   version,
		startTime: time.Now(),
	}
}

// HealthResponse reports process status
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// Health handles GET /health
func (h *SystemHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(HealthResponse{
		Status:    "ok",
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}))
}

// Ready handles GET /ready. It fails when the database is unreachable.
func (h *SystemHandler) Ready(c *gin.Context) {
	if h.checker != nil {
		if err := h.checker.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse("ERR_SERVICE_UNAVAILABLE", "database is not reachable"))
			return
		}
	}
	c.JSON(http.StatusOK, dto.NewSuccessResponse(gin.H{"status": "ready"}))
}

// RegisterRoutes registers system routes
func (h *SystemHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/health", h.Health)
	rg.GET("/ready", h.Ready)
}
