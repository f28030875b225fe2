package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthHandler serves the service info payload on / and /health, listing
// the available API roots.
type HealthHandler struct {
	service string
	version string
}

func NewHealthHandler(service, version string) *HealthHandler {
	return &HealthHandler{service: service, version: version}
}

func (h *HealthHandler) Info(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
		"version": h.version,
		"endpoints": gin.H{
			"patients":      "/api/patients",
			"appointments":  "/api/appointments",
			"prescriptions": "/api/prescriptions",
		},
	})
}
