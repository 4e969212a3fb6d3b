package handler

import (
	"net/http"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/service"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	parkingService *service.ParkingService
}

func NewDashboardHandler(ps *service.ParkingService) *DashboardHandler {
	return &DashboardHandler{parkingService: ps}
}

// GET /dashboard
func (h *DashboardHandler) GetDashboardData(c *gin.Context) {
	summary, err := h.parkingService.GetDashboardData(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load dashboard data", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, summary)
}
