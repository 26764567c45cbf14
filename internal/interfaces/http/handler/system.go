package handler

import (
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/erp/posbridge/internal/interfaces/http/dto"
)

// Health status values
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Probe reports whether one dependency is usable. Nil probes report false.
type Probe func() bool

// HealthProbes are the dependencies reported by the health endpoint
type HealthProbes struct {
	// POSSignedIn reports whether the POS session knows its cashier
	POSSignedIn Probe
	// ExecutorRunning reports whether the background executor accepts tasks
	ExecutorRunning Probe
	// SchedulerActive reports whether the periodic catalog sync is ticking
	SchedulerActive Probe
}

// SystemHandler handles health and system information endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	probes    HealthProbes
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler
func NewSystemHandler(name, version string, probes HealthProbes) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		probes:    probes,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name" example:"posbridge"`
	Version   string `json:"version" example:"1.0.0"`
	GoVersion string `json:"go_version" example:"go1.25.5"`
	Uptime    string `json:"uptime" example:"1h30m45s"`
}

// GetSystemInfo godoc
// @ID           getSystemInfo
// @Summary      Get system information
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[SystemInfoResponse]
// @Router       /system/info [get]
func (h *SystemHandler) GetSystemInfo(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}

// Health godoc
// @ID           getHealth
// @Summary      Report service health
// @Description  Degraded (503) when the POS session has no cashier or the executor is stopped. The scheduler is informational.
// @Tags         system
// @Produce      json
// @Success      200 {object} APIResponse[dto.HealthData]
// @Failure      503 {object} APIResponse[dto.HealthData]
// @Router       /health [get]
func (h *SystemHandler) Health(c *gin.Context) {
	data := dto.HealthData{
		Status:          StatusOK,
		POSSignedIn:     probe(h.probes.POSSignedIn),
		ExecutorRunning: probe(h.probes.ExecutorRunning),
		SchedulerActive: probe(h.probes.SchedulerActive),
	}
	status := http.StatusOK
	if !data.POSSignedIn || !data.ExecutorRunning {
		data.Status = StatusDegraded
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.Response{Success: status == http.StatusOK, Data: data})
}

func probe(p Probe) bool {
	return p != nil && p()
}
