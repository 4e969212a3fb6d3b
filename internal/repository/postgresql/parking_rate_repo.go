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

type pgParkingRateRepository struct {
	db *sql.DB
}

func NewPgParkingRateRepository(db *sql.DB) repository.ParkingRateRepository {
	return &pgParkingRateRepository{db: db}
}

const rateColumns = `id, vehicle_class, base_rate, hourly_rate, daily_rate, weekly_rate,
	is_active, effective_from, effective_to, created_at, updated_at`

func scanRate(row interface{ Scan(dest ...any) error }, rate *domain.ParkingRate) error {
	err := row.Scan(
		&rate.ID, &rate.VehicleClass, &rate.BaseRate, &rate.HourlyRate, &rate.DailyRate,
		&rate.WeeklyRate, &rate.IsActive, &rate.EffectiveFrom, &rate.EffectiveTo,
		&rate.CreatedAt, &rate.UpdatedAt,
	)
	if err != nil {
		return err
	}
	rate.EffectiveFrom = rate.EffectiveFrom.In(time.UTC)
	if rate.EffectiveTo.Valid {
		rate.EffectiveTo.Time = rate.EffectiveTo.Time.In(time.UTC)
	}
	rate.CreatedAt = rate.CreatedAt.In(time.UTC)
	rate.UpdatedAt = rate.UpdatedAt.In(time.UTC)
	return nil
}

func (r *pgParkingRateRepository) Create(ctx context.Context, rate *domain.ParkingRate) (*domain.ParkingRate, error) {
	query := `INSERT INTO parking_rates
	           (vehicle_class, base_rate, hourly_rate, daily_rate, weekly_rate, is_active, effective_from, effective_to, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		rate.VehicleClass, rate.BaseRate, rate.HourlyRate, rate.DailyRate, rate.WeeklyRate,
		rate.IsActive, rate.EffectiveFrom, rate.EffectiveTo,
	).Scan(&rate.ID, &rate.CreatedAt, &rate.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "parking_rates_class_effective_idx" {
				return nil, fmt.Errorf("%w: a '%s' schedule already starts at %s",
					repository.ErrDuplicateEntry, rate.VehicleClass, rate.EffectiveFrom.Format(time.RFC3339))
			}
		}
		return nil, fmt.Errorf("ParkingRateRepository.Create: %w", err)
	}
	rate.CreatedAt = rate.CreatedAt.In(time.UTC)
	rate.UpdatedAt = rate.UpdatedAt.In(time.UTC)
	return rate, nil
}

func (r *pgParkingRateRepository) FindByID(ctx context.Context, id int) (*domain.ParkingRate, error) {
	rate := &domain.ParkingRate{}
	query := `SELECT ` + rateColumns + ` FROM parking_rates WHERE id = $1`
	if err := scanRate(r.db.QueryRowContext(ctx, query, id), rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingRateRepository.FindByID: %w", err)
	}
	return rate, nil
}

func (r *pgParkingRateRepository) FindAll(ctx context.Context) ([]domain.ParkingRate, error) {
	query := `SELECT ` + rateColumns + ` FROM parking_rates ORDER BY vehicle_class, effective_from DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ParkingRateRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var rates []domain.ParkingRate
	for rows.Next() {
		var rate domain.ParkingRate
		if err := scanRate(rows, &rate); err != nil {
			return nil, fmt.Errorf("ParkingRateRepository.FindAll (scanning row): %w", err)
		}
		rates = append(rates, rate)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingRateRepository.FindAll (rows error): %w", err)
	}
	return rates, nil
}

// FindEffective resolves the schedule in force at the given instant.
// When windows overlap, the most recently effective one wins.
func (r *pgParkingRateRepository) FindEffective(ctx context.Context, class domain.VehicleClass, at time.Time) (*domain.ParkingRate, error) {
	rate := &domain.ParkingRate{}
	query := `SELECT ` + rateColumns + `
	           FROM parking_rates
	           WHERE vehicle_class = $1
	             AND is_active = TRUE
	             AND effective_from <= $2
	             AND (effective_to IS NULL OR effective_to > $2)
	           ORDER BY effective_from DESC
	           LIMIT 1`
	if err := scanRate(r.db.QueryRowContext(ctx, query, class, at), rate); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: vehicle class '%s'", repository.ErrRateNotFound, class)
		}
		return nil, fmt.Errorf("ParkingRateRepository.FindEffective: %w", err)
	}
	return rate, nil
}

// Deactivate closes a rate's window without deleting it; history stays
// queryable for receipts issued under the old tariff.
func (r *pgParkingRateRepository) Deactivate(ctx context.Context, id int, closedAt time.Time) error {
	query := `UPDATE parking_rates
	           SET is_active = FALSE, effective_to = $2, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, closedAt)
	if err != nil {
		return fmt.Errorf("ParkingRateRepository.Deactivate: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ParkingRateRepository.Deactivate (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
