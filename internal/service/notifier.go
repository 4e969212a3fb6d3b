package service

import (
	"context"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
)

// Notifier pushes live parking events to connected clients. Delivery is
// best effort; a failed broadcast never fails the operation that caused it.
type Notifier interface {
	Broadcast(notification domain.ParkingStatusNotification)
}

// BarrierOpener sends an open command to the physical gate hardware.
type BarrierOpener interface {
	Open(ctx context.Context, gate string) error
}

// Printer writes formatted ticket text to a physical printer device.
type Printer interface {
	Print(text string) error
}
