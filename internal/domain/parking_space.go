package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingSpace is one physical slot. IsOccupied is true exactly when
// CurrentSessionID points at an active session; both are mutated only
// through the space repository's reserve/release operations.
type ParkingSpace struct {
	ID               int          `json:"id"`
	SpaceNumber      string       `json:"space_number"`
	VehicleClass     VehicleClass `json:"vehicle_class"`
	IsOccupied       bool         `json:"is_occupied"`
	CurrentSessionID null.Int     `json:"current_session_id"`
	LastStateChange  null.Time    `json:"last_state_change"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

type ParkingSpaceDTO struct {
	SpaceNumber  string `json:"space_number" binding:"required"`
	VehicleClass string `json:"vehicle_class" binding:"required"`
}

// SpaceAvailability is the free/total count for one vehicle class.
type SpaceAvailability struct {
	VehicleClass VehicleClass `json:"vehicle_class"`
	Free         int          `json:"free"`
	Total        int          `json:"total"`
}
