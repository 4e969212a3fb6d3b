package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ParkingSessionStatus string

const (
	SessionActive    ParkingSessionStatus = "active"
	SessionCompleted ParkingSessionStatus = "completed"
)

// ParkingSession is one vehicle's entry-to-exit record. It is created
// active on entry and transitions to completed exactly once on exit;
// completed is terminal. Sessions are never deleted except by retention.
type ParkingSession struct {
	ID                int                  `json:"id"`
	TransactionNumber string               `json:"transaction_number"`
	VehiclePlate      string               `json:"vehicle_plate"`
	VehicleClass      VehicleClass         `json:"vehicle_class"`
	SpaceID           int                  `json:"space_id"`
	SpaceNumber       string               `json:"space_number,omitempty"`
	EntryTime         time.Time            `json:"entry_time"`
	ExitTime          null.Time            `json:"exit_time"`
	Fee               null.Int             `json:"fee"`
	PaymentMethod     null.String          `json:"payment_method"`
	EntryPhotoPath    null.String          `json:"entry_photo_path,omitempty"`
	Status            ParkingSessionStatus `json:"status"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at"`
}

type VehicleEntryDTO struct {
	VehiclePlate string `json:"vehicle_plate" binding:"required"`
	VehicleClass string `json:"vehicle_class" binding:"required"`
	DriverName   string `json:"driver_name,omitempty"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	EntryTime    string `json:"entry_time,omitempty"`
}

// PhotoEntryDTO is the photo-assisted variant: the plate may be omitted
// when an image is supplied, in which case LPR extracts it.
type PhotoEntryDTO struct {
	VehiclePlate string `json:"vehicle_plate,omitempty"`
	VehicleClass string `json:"vehicle_class" binding:"required"`
	ImageBase64  string `json:"image_base64,omitempty"`
	EntryTime    string `json:"entry_time,omitempty"`
}

// VehicleExitDTO identifies the session by plate or transaction number.
type VehicleExitDTO struct {
	Identifier    string `json:"identifier" binding:"required"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	ExitTime      string `json:"exit_time,omitempty"`
}

type ParkingSessionFilterDTO struct {
	Status       *string `form:"status"`
	VehiclePlate *string `form:"plate"`
	From         *string `form:"from"`
	To           *string `form:"to"`
}
