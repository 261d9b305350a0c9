package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/storefront/backend/internal/interfaces/http/dto"
)

// HealthCheck reports whether a dependency is usable
type HealthCheck func(ctx context.Context) error

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	checks    map[string]HealthCheck
	timeout   time.Duration
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. checks may be nil.
func NewSystemHandler(name, version string, checks map[string]HealthCheck) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		checks:    checks,
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of the health endpoint
type HealthResponse struct {
	Status    string            `json:"status" example:"ok"`
	Name      string            `json:"name" example:"storefront-import"`
	Version   string            `json:"version" example:"1.0.0"`
	GoVersion string            `json:"go_version" example:"go1.25.5"`
	Uptime    string            `json:"uptime" example:"1h30m45s"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// Health godoc
// @ID           getHealth
// @Summary      Service health
// @Description  Reports uptime and the state of the datastore and other dependencies
// @Tags         system
// @Produce      json
// @Success      200 {object} dto.Response{data=HealthResponse}
// @Failure      503 {object} dto.Response{data=HealthResponse}
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	resp := HealthResponse{
		Status:    "ok",
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
		defer cancel()

		resp.Checks = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				resp.Checks[name] = err.Error()
				resp.Status = "degraded"
				continue
			}
			resp.Checks[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: resp})
}
