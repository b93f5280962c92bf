package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Codexgsn/Gest-o-Escolas-sub000/internal/persistence"
)

const statusConfirmed = "Confirmada"

// ReservationRepository implements persistence.ReservationRepository using SQLite.
type ReservationRepository struct {
	pool *ConnectionPool
}

// NewReservationRepository creates a new SQLite reservation repository.
func NewReservationRepository(pool *ConnectionPool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

const reservationSelect = `
	SELECT r.id, r.resource_id, r.user_id, r.start_time, r.end_time, r.status, r.description,
	       r.created_at, r.updated_at, res.name, u.name
	FROM reservations r
	JOIN resources res ON res.id = r.resource_id
	JOIN users u ON u.id = r.user_id`

const overlapQuery = `
	SELECT COUNT(*) FROM reservations
	WHERE resource_id = ? AND status = 'Confirmada' AND id <> ?
	  AND start_time < ? AND ? < end_time`

// CreateReservation inserts a reservation. For confirmed rows the overlap
// check and the insert share one transaction.
func (r *ReservationRepository) CreateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if err := checkReservation(reservation); err != nil {
		return err
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := ensureNoOverlap(ctx, tx, reservation); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO reservations (id, resource_id, user_id, start_time, end_time, status, description, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			reservation.ID,
			reservation.ResourceID,
			reservation.UserID,
			formatTime(reservation.Start),
			formatTime(reservation.End),
			reservation.Status,
			nullableString(reservation.Description),
			formatTime(reservation.CreatedAt),
			formatTime(reservation.UpdatedAt),
		)
		return mapError(err)
	})
}

// UpdateReservation rewrites a reservation, guarded like CreateReservation.
func (r *ReservationRepository) UpdateReservation(ctx context.Context, reservation persistence.Reservation) error {
	if reservation.ID == "" {
		return persistence.ErrNotFound
	}
	if err := checkReservation(reservation); err != nil {
		return err
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := ensureNoOverlap(ctx, tx, reservation); err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE reservations
			SET resource_id = ?, user_id = ?, start_time = ?, end_time = ?, status = ?, description = ?, updated_at = ?
			WHERE id = ?`,
			reservation.ResourceID,
			reservation.UserID,
			formatTime(reservation.Start),
			formatTime(reservation.End),
			reservation.Status,
			nullableString(reservation.Description),
			formatTime(reservation.UpdatedAt),
			reservation.ID,
		)
		if err != nil {
			return mapError(err)
		}
		return requireAffected(result)
	})
}

// GetReservation retrieves a reservation with its resource and user names.
func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (persistence.Reservation, error) {
	if id == "" {
		return persistence.Reservation{}, persistence.ErrNotFound
	}
	row := r.pool.DB().QueryRowContext(ctx, reservationSelect+` WHERE r.id = ?`, id)
	return scanReservation(row)
}

// ListReservations returns matching reservations ordered by start time.
func (r *ReservationRepository) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	where, args := reservationWhere(filter)
	query := reservationSelect + where + ` ORDER BY r.start_time ASC, r.id ASC`
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	return r.query(ctx, r.pool.DB(), query, args...)
}

// CountReservations counts matching reservations.
func (r *ReservationRepository) CountReservations(ctx context.Context, filter persistence.ReservationFilter) (int, error) {
	where, args := reservationWhere(filter)
	var count int
	if err := r.pool.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations r`+where, args...).Scan(&count); err != nil {
		return 0, mapError(err)
	}
	return count, nil
}

// FindOverlapping returns the confirmed reservations of resourceID that
// intersect [start, end), skipping excludeID.
func (r *ReservationRepository) FindOverlapping(ctx context.Context, resourceID string, start, end time.Time, excludeID string) ([]persistence.Reservation, error) {
	query := reservationSelect + `
		WHERE r.resource_id = ? AND r.status = 'Confirmada' AND r.id <> ?
		  AND r.start_time < ? AND ? < r.end_time
		ORDER BY r.start_time ASC`
	return r.query(ctx, r.pool.DB(), query, resourceID, excludeID, formatTime(end), formatTime(start))
}

func (r *ReservationRepository) query(ctx context.Context, q queryer, query string, args ...any) ([]persistence.Reservation, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		reservation, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return reservations, nil
}

func checkReservation(reservation persistence.Reservation) error {
	if reservation.ID == "" || reservation.ResourceID == "" || reservation.UserID == "" {
		return persistence.ErrConstraintViolation
	}
	if !reservation.End.After(reservation.Start) {
		return persistence.ErrConstraintViolation
	}
	return nil
}

func ensureNoOverlap(ctx context.Context, tx *sql.Tx, reservation persistence.Reservation) error {
	if reservation.Status != statusConfirmed {
		return nil
	}
	var count int
	err := tx.QueryRowContext(ctx, overlapQuery,
		reservation.ResourceID,
		reservation.ID,
		formatTime(reservation.End),
		formatTime(reservation.Start),
	).Scan(&count)
	if err != nil {
		return mapError(err)
	}
	if count > 0 {
		return persistence.ErrOverlap
	}
	return nil
}

func reservationWhere(filter persistence.ReservationFilter) (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if filter.ResourceID != "" {
		clauses = append(clauses, "r.resource_id = ?")
		args = append(args, filter.ResourceID)
	}
	if filter.UserID != "" {
		clauses = append(clauses, "r.user_id = ?")
		args = append(args, filter.UserID)
	}
	if len(filter.Statuses) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(filter.Statuses)), ", ")
		clauses = append(clauses, "r.status IN ("+placeholders+")")
		for _, status := range filter.Statuses {
			args = append(args, status)
		}
	}
	if filter.EndsAfter != nil {
		clauses = append(clauses, "r.end_time > ?")
		args = append(args, formatTime(*filter.EndsAfter))
	}
	if filter.StartsBefore != nil {
		clauses = append(clauses, "r.start_time < ?")
		args = append(args, formatTime(*filter.StartsBefore))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func scanReservation(row rowScanner) (persistence.Reservation, error) {
	var (
		reservation          persistence.Reservation
		start, end           string
		description          sql.NullString
		createdAt, updatedAt string
	)
	if err := row.Scan(
		&reservation.ID,
		&reservation.ResourceID,
		&reservation.UserID,
		&start,
		&end,
		&reservation.Status,
		&description,
		&createdAt,
		&updatedAt,
		&reservation.ResourceName,
		&reservation.UserName,
	); err != nil {
		return persistence.Reservation{}, mapError(err)
	}

	var err error
	if reservation.Start, err = parseTime("start_time", start); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.End, err = parseTime("end_time", end); err != nil {
		return persistence.Reservation{}, err
	}
	reservation.Description = stringPtr(description)
	if reservation.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Reservation{}, err
	}
	if reservation.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.Reservation{}, err
	}
	return reservation, nil
}
