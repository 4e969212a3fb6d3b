package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingRate is a time-bounded fee schedule for one vehicle class.
// Amounts are in whole rupiah. A rate with a null EffectiveTo is open
// ended ("current"). Rates are immutable once in effect; changing the
// tariff means closing the old window and inserting a new row.
type ParkingRate struct {
	ID            int          `json:"id"`
	VehicleClass  VehicleClass `json:"vehicle_class"`
	BaseRate      int64        `json:"base_rate"`
	HourlyRate    int64        `json:"hourly_rate"`
	DailyRate     int64        `json:"daily_rate"`
	WeeklyRate    int64        `json:"weekly_rate"`
	IsActive      bool         `json:"is_active"`
	EffectiveFrom time.Time    `json:"effective_from"`
	EffectiveTo   null.Time    `json:"effective_to"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

type ParkingRateDTO struct {
	VehicleClass  string `json:"vehicle_class" binding:"required"`
	BaseRate      int64  `json:"base_rate" binding:"required"`
	HourlyRate    int64  `json:"hourly_rate" binding:"required"`
	DailyRate     int64  `json:"daily_rate" binding:"required"`
	WeeklyRate    int64  `json:"weekly_rate" binding:"required"`
	EffectiveFrom string `json:"effective_from,omitempty"`
	EffectiveTo   string `json:"effective_to,omitempty"`
}
