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

type SpaceHandler struct {
	parkingService *service.ParkingService
}

func NewSpaceHandler(ps *service.ParkingService) *SpaceHandler {
	return &SpaceHandler{parkingService: ps}
}

// POST /parking-spaces
func (h *SpaceHandler) CreateParkingSpace(c *gin.Context) {
	var dto domain.ParkingSpaceDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	space, err := h.parkingService.CreateParkingSpace(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidVehicleClass):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrDuplicateEntry):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create parking space", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, space)
}

// GET /parking-spaces
func (h *SpaceHandler) GetAllParkingSpaces(c *gin.Context) {
	spaces, err := h.parkingService.GetAllParkingSpaces(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list parking spaces", "details": err.Error()})
		return
	}
	if spaces == nil {
		spaces = []domain.ParkingSpace{}
	}
	c.JSON(http.StatusOK, spaces)
}

// GET /parking-spaces/:id
func (h *SpaceHandler) GetParkingSpaceByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid space id"})
		return
	}
	space, err := h.parkingService.GetParkingSpaceByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking space not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load parking space", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, space)
}

// DELETE /parking-spaces/:id
func (h *SpaceHandler) DeleteParkingSpace(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid space id"})
		return
	}
	if err := h.parkingService.DeleteParkingSpace(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "parking space not found or still occupied"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete parking space", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "parking space deleted"})
}

// GET /parking-spaces/availability
func (h *SpaceHandler) GetAvailability(c *gin.Context) {
	availability, err := h.parkingService.GetAvailableSpaces(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load availability", "details": err.Error()})
		return
	}
	if availability == nil {
		availability = []domain.SpaceAvailability{}
	}
	c.JSON(http.StatusOK, availability)
}
