package repository

import (
	"context"
	"errors"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateEntry  = errors.New("record already exists")
	ErrNoCapacity      = errors.New("no free parking space for the requested vehicle class")
	ErrDuplicateActive = errors.New("vehicle already has an active parking session")
	ErrAlreadyClosed   = errors.New("parking session is already completed")
	ErrRateNotFound    = errors.New("no parking rate effective for the requested class and time")
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

// ParkingSpaceRepository owns the space pool. Reserve and Release are the
// only operations that flip occupancy; Reserve must be atomic so that two
// concurrent callers can never both take the last matching space.
type ParkingSpaceRepository interface {
	Create(ctx context.Context, space *domain.ParkingSpace) (*domain.ParkingSpace, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSpace, error)
	FindAll(ctx context.Context) ([]domain.ParkingSpace, error)
	// Reserve atomically claims the lowest-numbered vacant space accepting
	// the class, or returns ErrNoCapacity leaving the pool untouched.
	// "Lowest" compares space numbers lexicographically.
	Reserve(ctx context.Context, class domain.VehicleClass, at time.Time) (*domain.ParkingSpace, error)
	// AssignSession links a reserved space to the session occupying it.
	AssignSession(ctx context.Context, spaceID int, sessionID int) error
	// Release frees a space and clears its session link. Releasing an
	// already-free space is a no-op success so retried exits stay safe.
	Release(ctx context.Context, spaceID int, at time.Time) error
	Availability(ctx context.Context) ([]domain.SpaceAvailability, error)
	Delete(ctx context.Context, id int) error
}

// ParkingSessionRepository owns the authoritative session set.
type ParkingSessionRepository interface {
	// CreateActive inserts a new active session. ErrDuplicateActive is
	// returned, with no mutation, when the plate already has one.
	CreateActive(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSession, error)
	FindByTransactionNumber(ctx context.Context, trx string) (*domain.ParkingSession, error)
	FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error)
	// Complete transitions active -> completed, stamping exit time, fee and
	// payment method. ErrAlreadyClosed when the session is not active.
	Complete(ctx context.Context, id int, exitTime time.Time, fee int64, paymentMethod string) (*domain.ParkingSession, error)
	Find(ctx context.Context, filter domain.ParkingSessionFilterDTO) ([]domain.ParkingSession, error)
	ActiveDistribution(ctx context.Context) ([]domain.VehicleDistributionItem, error)
	RevenueBetween(ctx context.Context, from, to time.Time) (int64, error)
	RecentActivity(ctx context.Context, limit int) ([]domain.ParkingActivityItem, error)
	// Retention support.
	FindByEntryRange(ctx context.Context, from, to time.Time) ([]domain.ParkingSession, error)
	UpsertImported(ctx context.Context, session *domain.ParkingSession, overwrite bool) (created bool, err error)
	DeleteEnteredBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ParkingRateRepository interface {
	Create(ctx context.Context, rate *domain.ParkingRate) (*domain.ParkingRate, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingRate, error)
	FindAll(ctx context.Context) ([]domain.ParkingRate, error)
	// FindEffective returns the newest active rate whose effective window
	// contains at, or ErrRateNotFound.
	FindEffective(ctx context.Context, class domain.VehicleClass, at time.Time) (*domain.ParkingRate, error)
	Deactivate(ctx context.Context, id int, closedAt time.Time) error
}
