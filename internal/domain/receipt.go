package domain

import "time"

// EntryTicket is what the driver takes away from the entry gate.
type EntryTicket struct {
	TransactionNumber string       `json:"transaction_number"`
	VehiclePlate      string       `json:"vehicle_plate"`
	VehicleClass      VehicleClass `json:"vehicle_class"`
	SpaceNumber       string       `json:"space_number"`
	EntryTime         time.Time    `json:"entry_time"`
}

// ExitReceipt is the typed result of a completed exit. DurationHours is
// the billable (ceiling) duration; DurationDisplay is the human form
// ("2h 35m") shown on the printed receipt.
type ExitReceipt struct {
	TransactionNumber string    `json:"transaction_number"`
	VehiclePlate      string    `json:"vehicle_plate"`
	SpaceNumber       string    `json:"space_number"`
	EntryTime         time.Time `json:"entry_time"`
	ExitTime          time.Time `json:"exit_time"`
	DurationHours     int64     `json:"duration_hours"`
	DurationDisplay   string    `json:"duration_display"`
	Fee               int64     `json:"fee"`
	PaymentMethod     string    `json:"payment_method"`
}
