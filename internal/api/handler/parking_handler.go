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

type ParkingHandler struct {
	parkingService *service.ParkingService
}

func NewParkingHandler(ps *service.ParkingService) *ParkingHandler {
	return &ParkingHandler{parkingService: ps}
}

// POST /parking/entry
func (h *ParkingHandler) VehicleEntry(c *gin.Context) {
	var dto domain.VehicleEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ticket, err := h.parkingService.RegisterEntry(c.Request.Context(), dto)
	if err != nil {
		h.writeEntryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

// POST /parking/entry/photo
func (h *ParkingHandler) VehicleEntryWithPhoto(c *gin.Context) {
	var dto domain.PhotoEntryDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	ticket, err := h.parkingService.RegisterEntryWithPhoto(c.Request.Context(), dto)
	if err != nil {
		h.writeEntryError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (h *ParkingHandler) writeEntryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPlate), errors.Is(err, service.ErrInvalidVehicleClass):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrDuplicateActive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNoCapacity):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register entry", "details": err.Error()})
	}
}

// POST /parking/exit
func (h *ParkingHandler) VehicleExit(c *gin.Context) {
	var dto domain.VehicleExitDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	receipt, err := h.parkingService.ProcessExit(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlate), errors.Is(err, service.ErrInvalidExitTime):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "no active session for this vehicle"})
		case errors.Is(err, repository.ErrAlreadyClosed):
			c.JSON(http.StatusConflict, gin.H{"error": "session is already closed"})
		case errors.Is(err, repository.ErrRateNotFound):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process exit", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// GET /parking-sessions/:id
func (h *ParkingHandler) GetParkingSessionByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return
	}
	session, err := h.parkingService.GetParkingSessionByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// GET /parking-sessions
func (h *ParkingHandler) FindParkingSessions(c *gin.Context) {
	var filter domain.ParkingSessionFilterDTO
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter parameters: " + err.Error()})
		return
	}

	sessions, err := h.parkingService.FindParkingSessions(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list sessions", "details": err.Error()})
		return
	}
	if sessions == nil {
		sessions = []domain.ParkingSession{}
	}
	c.JSON(http.StatusOK, sessions)
}
