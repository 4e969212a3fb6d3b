package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"

	"github.com/lib/pq"
)

type pgParkingSpaceRepository struct {
	db *sql.DB
}

func NewPgParkingSpaceRepository(db *sql.DB) repository.ParkingSpaceRepository {
	return &pgParkingSpaceRepository{db: db}
}

const spaceColumns = `id, space_number, vehicle_class, is_occupied, current_session_id, last_state_change, created_at, updated_at`

func scanSpace(row interface{ Scan(dest ...any) error }, space *domain.ParkingSpace) error {
	return row.Scan(
		&space.ID, &space.SpaceNumber, &space.VehicleClass, &space.IsOccupied,
		&space.CurrentSessionID, &space.LastStateChange, &space.CreatedAt, &space.UpdatedAt,
	)
}

func (r *pgParkingSpaceRepository) Create(ctx context.Context, space *domain.ParkingSpace) (*domain.ParkingSpace, error) {
	query := `INSERT INTO parking_spaces (space_number, vehicle_class, is_occupied, created_at, updated_at)
	           VALUES ($1, $2, FALSE, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, space.SpaceNumber, space.VehicleClass).
		Scan(&space.ID, &space.CreatedAt, &space.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "parking_spaces_space_number_key" {
				return nil, fmt.Errorf("%w: space '%s' already exists", repository.ErrDuplicateEntry, space.SpaceNumber)
			}
		}
		return nil, fmt.Errorf("ParkingSpaceRepository.Create: %w", err)
	}
	space.CreatedAt = space.CreatedAt.In(time.UTC)
	space.UpdatedAt = space.UpdatedAt.In(time.UTC)
	return space, nil
}

func (r *pgParkingSpaceRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSpace, error) {
	space := &domain.ParkingSpace{}
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces WHERE id = $1`
	err := scanSpace(r.db.QueryRowContext(ctx, query, id), space)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSpaceRepository.FindByID: %w", err)
	}
	return space, nil
}

func (r *pgParkingSpaceRepository) FindAll(ctx context.Context) ([]domain.ParkingSpace, error) {
	query := `SELECT ` + spaceColumns + ` FROM parking_spaces ORDER BY space_number`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var spaces []domain.ParkingSpace
	for rows.Next() {
		var space domain.ParkingSpace
		if err := scanSpace(rows, &space); err != nil {
			return nil, fmt.Errorf("ParkingSpaceRepository.FindAll (scanning row): %w", err)
		}
		spaces = append(spaces, space)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.FindAll (rows error): %w", err)
	}
	return spaces, nil
}

// Reserve claims the lowest-numbered vacant space for the class as one
// atomic statement. The FOR UPDATE SKIP LOCKED subselect guarantees that
// two concurrent callers can never both claim the same row, and that a
// caller left with no matching row fails without side effects.
// space_number ordering is lexicographic ("A-10" sorts before "A-2");
// seed numeric suffixes zero-padded (A-01, A-02, ...) when numeric
// order is wanted.
func (r *pgParkingSpaceRepository) Reserve(ctx context.Context, class domain.VehicleClass, at time.Time) (*domain.ParkingSpace, error) {
	space := &domain.ParkingSpace{}
	query := `UPDATE parking_spaces
	           SET is_occupied = TRUE, last_state_change = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = (
	               SELECT id FROM parking_spaces
	               WHERE vehicle_class = $1 AND is_occupied = FALSE
	               ORDER BY space_number ASC
	               LIMIT 1
	               FOR UPDATE SKIP LOCKED
	           )
	           RETURNING ` + spaceColumns
	err := scanSpace(r.db.QueryRowContext(ctx, query, class, at), space)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNoCapacity
		}
		return nil, fmt.Errorf("ParkingSpaceRepository.Reserve: %w", err)
	}
	return space, nil
}

func (r *pgParkingSpaceRepository) AssignSession(ctx context.Context, spaceID int, sessionID int) error {
	query := `UPDATE parking_spaces
	           SET current_session_id = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1 AND is_occupied = TRUE`
	result, err := r.db.ExecContext(ctx, query, spaceID, sessionID)
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.AssignSession: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.AssignSession (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Release is idempotent: freeing an already-free space matches the row and
// succeeds, so a retried exit cannot fail here. Only an unknown space id
// yields ErrNotFound.
func (r *pgParkingSpaceRepository) Release(ctx context.Context, spaceID int, at time.Time) error {
	query := `UPDATE parking_spaces
	           SET is_occupied = FALSE, current_session_id = NULL, last_state_change = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, spaceID, at)
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.Release: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.Release (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *pgParkingSpaceRepository) Availability(ctx context.Context) ([]domain.SpaceAvailability, error) {
	query := `SELECT vehicle_class,
	                 COUNT(*) FILTER (WHERE is_occupied = FALSE) AS free,
	                 COUNT(*) AS total
	           FROM parking_spaces
	           GROUP BY vehicle_class
	           ORDER BY vehicle_class`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.Availability: %w", err)
	}
	defer rows.Close()

	var availability []domain.SpaceAvailability
	for rows.Next() {
		var item domain.SpaceAvailability
		if err := rows.Scan(&item.VehicleClass, &item.Free, &item.Total); err != nil {
			return nil, fmt.Errorf("ParkingSpaceRepository.Availability (scanning row): %w", err)
		}
		availability = append(availability, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSpaceRepository.Availability (rows error): %w", err)
	}
	return availability, nil
}

func (r *pgParkingSpaceRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM parking_spaces WHERE id = $1 AND is_occupied = FALSE`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingSpaceRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
