package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/domain"
	"github.com/SIJA-SKANSAPUNG/Park28Maret/internal/repository"

	"github.com/lib/pq"
)

type pgParkingSessionRepository struct {
	db *sql.DB
}

func NewPgParkingSessionRepository(db *sql.DB) repository.ParkingSessionRepository {
	return &pgParkingSessionRepository{db: db}
}

const sessionColumns = `s.id, s.transaction_number, s.vehicle_plate, s.vehicle_class, s.space_id, sp.space_number,
	s.entry_time, s.exit_time, s.fee, s.payment_method, s.entry_photo_path, s.status, s.created_at, s.updated_at`

const sessionFrom = ` FROM parking_sessions s JOIN parking_spaces sp ON sp.id = s.space_id `

func scanSession(row interface{ Scan(dest ...any) error }, session *domain.ParkingSession) error {
	err := row.Scan(
		&session.ID, &session.TransactionNumber, &session.VehiclePlate, &session.VehicleClass,
		&session.SpaceID, &session.SpaceNumber, &session.EntryTime, &session.ExitTime,
		&session.Fee, &session.PaymentMethod, &session.EntryPhotoPath, &session.Status,
		&session.CreatedAt, &session.UpdatedAt,
	)
	if err != nil {
		return err
	}
	session.EntryTime = session.EntryTime.In(time.UTC)
	if session.ExitTime.Valid {
		session.ExitTime.Time = session.ExitTime.Time.In(time.UTC)
	}
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return nil
}

// CreateActive relies on the partial unique index over active plates: the
// duplicate check and the insert are a single statement, so two concurrent
// entries for one plate cannot both commit.
func (r *pgParkingSessionRepository) CreateActive(ctx context.Context, session *domain.ParkingSession) (*domain.ParkingSession, error) {
	query := `INSERT INTO parking_sessions
	           (transaction_number, vehicle_plate, vehicle_class, space_id, entry_time, entry_photo_path, status, created_at, updated_at)
	           VALUES ($1, $2, $3, $4, $5, $6, $7, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		session.TransactionNumber, session.VehiclePlate, session.VehicleClass,
		session.SpaceID, session.EntryTime, session.EntryPhotoPath, domain.SessionActive,
	).Scan(&session.ID, &session.CreatedAt, &session.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			switch pqErr.Constraint {
			case "parking_sessions_active_plate_idx":
				return nil, fmt.Errorf("%w: plate '%s'", repository.ErrDuplicateActive, session.VehiclePlate)
			case "parking_sessions_transaction_number_key":
				return nil, fmt.Errorf("%w: transaction number '%s'", repository.ErrDuplicateEntry, session.TransactionNumber)
			}
		}
		return nil, fmt.Errorf("ParkingSessionRepository.CreateActive: %w", err)
	}
	session.Status = domain.SessionActive
	session.CreatedAt = session.CreatedAt.In(time.UTC)
	session.UpdatedAt = session.UpdatedAt.In(time.UTC)
	return session, nil
}

func (r *pgParkingSessionRepository) FindByID(ctx context.Context, id int) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE s.id = $1`
	if err := scanSession(r.db.QueryRowContext(ctx, query, id), session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindByID: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindByTransactionNumber(ctx context.Context, trx string) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE s.transaction_number = $1`
	if err := scanSession(r.db.QueryRowContext(ctx, query, trx), session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindByTransactionNumber: %w", err)
	}
	return session, nil
}

func (r *pgParkingSessionRepository) FindActiveByPlate(ctx context.Context, plate string) (*domain.ParkingSession, error) {
	session := &domain.ParkingSession{}
	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE s.vehicle_plate = $1 AND s.status = $2`
	if err := scanSession(r.db.QueryRowContext(ctx, query, plate, domain.SessionActive), session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingSessionRepository.FindActiveByPlate: %w", err)
	}
	return session, nil
}

// Complete is guarded by the status predicate: only a currently active row
// is updated, so a retried exit observes ErrAlreadyClosed instead of
// overwriting the recorded fee.
func (r *pgParkingSessionRepository) Complete(ctx context.Context, id int, exitTime time.Time, fee int64, paymentMethod string) (*domain.ParkingSession, error) {
	query := `UPDATE parking_sessions
	           SET exit_time = $2, fee = $3, payment_method = $4, status = $5, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1 AND status = $6`
	result, err := r.db.ExecContext(ctx, query, id, exitTime, fee, paymentMethod, domain.SessionCompleted, domain.SessionActive)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Complete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Complete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish an unknown session from a lost race with another exit.
		existing, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return nil, findErr
		}
		if existing.Status != domain.SessionActive {
			return nil, repository.ErrAlreadyClosed
		}
		return nil, fmt.Errorf("ParkingSessionRepository.Complete: update matched no rows for active session %d", id)
	}
	return r.FindByID(ctx, id)
}

func (r *pgParkingSessionRepository) Find(ctx context.Context, filter domain.ParkingSessionFilterDTO) ([]domain.ParkingSession, error) {
	var conditions []string
	var args []any

	if filter.Status != nil && *filter.Status != "" {
		args = append(args, *filter.Status)
		conditions = append(conditions, "s.status = $"+strconv.Itoa(len(args)))
	}
	if filter.VehiclePlate != nil && *filter.VehiclePlate != "" {
		args = append(args, domain.NormalizePlate(*filter.VehiclePlate))
		conditions = append(conditions, "s.vehicle_plate = $"+strconv.Itoa(len(args)))
	}
	if filter.From != nil && *filter.From != "" {
		from, err := time.Parse(time.RFC3339, *filter.From)
		if err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.Find: invalid 'from' timestamp: %w", err)
		}
		args = append(args, from)
		conditions = append(conditions, "s.entry_time >= $"+strconv.Itoa(len(args)))
	}
	if filter.To != nil && *filter.To != "" {
		to, err := time.Parse(time.RFC3339, *filter.To)
		if err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.Find: invalid 'to' timestamp: %w", err)
		}
		args = append(args, to)
		conditions = append(conditions, "s.entry_time <= $"+strconv.Itoa(len(args)))
	}

	query := `SELECT ` + sessionColumns + sessionFrom
	if len(conditions) > 0 {
		query += "WHERE " + strings.Join(conditions, " AND ") + " "
	}
	query += "ORDER BY s.entry_time DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Find: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ParkingSession
	for rows.Next() {
		var session domain.ParkingSession
		if err := scanSession(rows, &session); err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.Find (scanning row): %w", err)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.Find (rows error): %w", err)
	}
	return sessions, nil
}

func (r *pgParkingSessionRepository) ActiveDistribution(ctx context.Context) ([]domain.VehicleDistributionItem, error) {
	query := `SELECT vehicle_class, COUNT(*)
	           FROM parking_sessions
	           WHERE status = $1
	           GROUP BY vehicle_class
	           ORDER BY vehicle_class`
	rows, err := r.db.QueryContext(ctx, query, domain.SessionActive)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.ActiveDistribution: %w", err)
	}
	defer rows.Close()

	var items []domain.VehicleDistributionItem
	for rows.Next() {
		var item domain.VehicleDistributionItem
		if err := rows.Scan(&item.VehicleClass, &item.Count); err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.ActiveDistribution (scanning row): %w", err)
		}
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.ActiveDistribution (rows error): %w", err)
	}
	return items, nil
}

func (r *pgParkingSessionRepository) RevenueBetween(ctx context.Context, from, to time.Time) (int64, error) {
	query := `SELECT COALESCE(SUM(fee), 0)
	           FROM parking_sessions
	           WHERE status = $1 AND exit_time >= $2 AND exit_time < $3`
	var revenue int64
	if err := r.db.QueryRowContext(ctx, query, domain.SessionCompleted, from, to).Scan(&revenue); err != nil {
		return 0, fmt.Errorf("ParkingSessionRepository.RevenueBetween: %w", err)
	}
	return revenue, nil
}

func (r *pgParkingSessionRepository) RecentActivity(ctx context.Context, limit int) ([]domain.ParkingActivityItem, error) {
	query := `SELECT s.vehicle_plate, s.vehicle_class, sp.space_number, s.status, s.fee,
	                 COALESCE(s.exit_time, s.entry_time) AS occurred_at` + sessionFrom +
		`ORDER BY occurred_at DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.RecentActivity: %w", err)
	}
	defer rows.Close()

	var items []domain.ParkingActivityItem
	for rows.Next() {
		var item domain.ParkingActivityItem
		var status domain.ParkingSessionStatus
		if err := rows.Scan(&item.VehiclePlate, &item.VehicleClass, &item.SpaceNumber, &status, &item.Fee, &item.Timestamp); err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.RecentActivity (scanning row): %w", err)
		}
		if status == domain.SessionCompleted {
			item.Action = "Exit"
		} else {
			item.Action = "Entry"
		}
		item.Timestamp = item.Timestamp.In(time.UTC)
		items = append(items, item)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.RecentActivity (rows error): %w", err)
	}
	return items, nil
}

func (r *pgParkingSessionRepository) FindByEntryRange(ctx context.Context, from, to time.Time) ([]domain.ParkingSession, error) {
	query := `SELECT ` + sessionColumns + sessionFrom + `WHERE s.entry_time >= $1 AND s.entry_time <= $2 ORDER BY s.entry_time`
	rows, err := r.db.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindByEntryRange: %w", err)
	}
	defer rows.Close()

	var sessions []domain.ParkingSession
	for rows.Next() {
		var session domain.ParkingSession
		if err := scanSession(rows, &session); err != nil {
			return nil, fmt.Errorf("ParkingSessionRepository.FindByEntryRange (scanning row): %w", err)
		}
		sessions = append(sessions, session)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingSessionRepository.FindByEntryRange (rows error): %w", err)
	}
	return sessions, nil
}

// UpsertImported restores a session from a backup archive keyed by
// transaction number. Imported rows keep their original timestamps.
func (r *pgParkingSessionRepository) UpsertImported(ctx context.Context, session *domain.ParkingSession, overwrite bool) (bool, error) {
	existing, err := r.FindByTransactionNumber(ctx, session.TransactionNumber)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, err
	}

	if existing == nil {
		query := `INSERT INTO parking_sessions
		           (transaction_number, vehicle_plate, vehicle_class, space_id, entry_time, exit_time, fee, payment_method, entry_photo_path, status, created_at, updated_at)
		           VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, CURRENT_TIMESTAMP)`
		_, err := r.db.ExecContext(ctx, query,
			session.TransactionNumber, session.VehiclePlate, session.VehicleClass, session.SpaceID,
			session.EntryTime, session.ExitTime, session.Fee, session.PaymentMethod,
			session.EntryPhotoPath, session.Status, session.CreatedAt,
		)
		if err != nil {
			return false, fmt.Errorf("ParkingSessionRepository.UpsertImported (insert): %w", err)
		}
		return true, nil
	}

	if !overwrite {
		return false, nil
	}
	query := `UPDATE parking_sessions
	           SET vehicle_plate = $2, vehicle_class = $3, space_id = $4, entry_time = $5, exit_time = $6,
	               fee = $7, payment_method = $8, entry_photo_path = $9, status = $10, updated_at = CURRENT_TIMESTAMP
	           WHERE transaction_number = $1`
	_, err = r.db.ExecContext(ctx, query,
		session.TransactionNumber, session.VehiclePlate, session.VehicleClass, session.SpaceID,
		session.EntryTime, session.ExitTime, session.Fee, session.PaymentMethod,
		session.EntryPhotoPath, session.Status,
	)
	if err != nil {
		return false, fmt.Errorf("ParkingSessionRepository.UpsertImported (update): %w", err)
	}
	return false, nil
}

// DeleteEnteredBefore removes completed sessions older than the cutoff.
// Active sessions are never purged.
func (r *pgParkingSessionRepository) DeleteEnteredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM parking_sessions WHERE entry_time < $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, cutoff, domain.SessionCompleted)
	if err != nil {
		return 0, fmt.Errorf("ParkingSessionRepository.DeleteEnteredBefore: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("ParkingSessionRepository.DeleteEnteredBefore (checking rows affected): %w", err)
	}
	return rowsAffected, nil
}
