package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

type ParkingEventType string

const (
	EventVehicleEntered ParkingEventType = "vehicle_entered"
	EventVehicleExited  ParkingEventType = "vehicle_exited"
)

// ParkingStatusNotification is pushed to connected dashboards over
// WebSocket after every successful entry or exit.
type ParkingStatusNotification struct {
	EventID      string           `json:"event_id"`
	EventType    ParkingEventType `json:"event_type"`
	VehiclePlate string           `json:"vehicle_plate"`
	VehicleClass VehicleClass     `json:"vehicle_class"`
	SpaceNumber  string           `json:"space_number"`
	Fee          null.Int         `json:"fee,omitempty"`
	Timestamp    time.Time        `json:"timestamp"`
}

// GateMessage is the payload gate terminals put on the SQS queue.
type GateMessage struct {
	MessageType   string `json:"message_type"` // "vehicle_entry" or "vehicle_exit"
	GateID        string `json:"gate_id"`
	VehiclePlate  string `json:"vehicle_plate"`
	VehicleClass  string `json:"vehicle_class,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}

// DashboardSummary mirrors the live dashboard view.
type DashboardSummary struct {
	TotalSpaces         int                       `json:"total_spaces"`
	AvailableSpaces     int                       `json:"available_spaces"`
	OccupiedSpaces      int                       `json:"occupied_spaces"`
	DailyRevenue        int64                     `json:"daily_revenue"`
	WeeklyRevenue       int64                     `json:"weekly_revenue"`
	MonthlyRevenue      int64                     `json:"monthly_revenue"`
	VehicleDistribution []VehicleDistributionItem `json:"vehicle_distribution"`
	RecentActivity      []ParkingActivityItem     `json:"recent_activity"`
}

type VehicleDistributionItem struct {
	VehicleClass VehicleClass `json:"vehicle_class"`
	Count        int          `json:"count"`
}

type ParkingActivityItem struct {
	VehiclePlate string       `json:"vehicle_plate"`
	VehicleClass VehicleClass `json:"vehicle_class"`
	SpaceNumber  string       `json:"space_number"`
	Action       string       `json:"action"` // "Entry" or "Exit"
	Fee          null.Int     `json:"fee"`
	Timestamp    time.Time    `json:"timestamp"`
}
