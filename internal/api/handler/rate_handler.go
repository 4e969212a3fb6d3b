package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/service"

	"github.com/gin-gonic/gin"
)

type RateHandler struct {
	parkingService *service.ParkingService
}

func NewRateHandler(ps *service.ParkingService) *RateHandler {
	return &RateHandler{parkingService: ps}
}

// POST /parking-rates
func (h *RateHandler) CreateParkingRate(c *gin.Context) {
	var dto domain.ParkingRateDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	rate, err := h.parkingService.CreateParkingRate(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVehicleClass):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create rate", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, rate)
}

// GET /parking-rates
func (h *RateHandler) GetAllParkingRates(c *gin.Context) {
	rates, err := h.parkingService.GetAllParkingRates(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list rates", "details": err.Error()})
		return
	}
	if rates == nil {
		rates = []domain.ParkingRate{}
	}
	c.JSON(http.StatusOK, rates)
}

// GET /parking-rates/:id
func (h *RateHandler) GetParkingRateByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate id"})
		return
	}
	rate, err := h.parkingService.GetParkingRateByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load rate", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, rate)
}

// POST /parking-rates/:id/deactivate
func (h *RateHandler) DeactivateParkingRate(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate id"})
		return
	}
	if err := h.parkingService.DeactivateParkingRate(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "rate not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not deactivate rate", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "rate deactivated"})
}
