package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/booking-api/internal/domain"
)

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *BookingRepository) CreateBooking(ctx context.Context, booking domain.Booking) error {
	const stmt = `
INSERT INTO bookings (id, kind, subject_id, payload, status, created_at, confirmed_at, completed_at, cancelled_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	payload, err := json.Marshal(booking.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	_, err = r.exec(ctx, stmt,
		booking.ID,
		booking.Kind,
		booking.SubjectID,
		payload,
		booking.Status,
		booking.CreatedAt,
		booking.ConfirmedAt,
		booking.CompletedAt,
		booking.CancelledAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isForeignKeyViolation(err) {
			return domain.ErrSubjectNotFound
		}
		return fmt.Errorf("create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetBooking(ctx context.Context, id string) (domain.Booking, error) {
	const query = `
SELECT id, kind, subject_id, payload, status, created_at, confirmed_at, completed_at, cancelled_at
FROM bookings
WHERE id = $1`

	return r.scanBooking(r.queryRow(ctx, query, id))
}

// UpdateBookingStatus persists a transitioned booking, conditioned on the
// status the caller read. Zero rows means either the booking vanished or a
// concurrent transition won; a re-read disambiguates.
func (r *BookingRepository) UpdateBookingStatus(ctx context.Context, booking domain.Booking, expected domain.BookingStatus) error {
	const stmt = `
UPDATE bookings
SET status = $3, confirmed_at = $4, completed_at = $5, cancelled_at = $6
WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt,
		booking.ID,
		expected,
		booking.Status,
		booking.ConfirmedAt,
		booking.CompletedAt,
		booking.CancelledAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update booking status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetBooking(ctx, booking.ID); err != nil {
			return err
		}
		return domain.ErrPersistenceConflict
	}
	return nil
}

func (r *BookingRepository) ListBookingsBySubject(ctx context.Context, subjectID string) ([]domain.Booking, error) {
	const query = `
SELECT id, kind, subject_id, payload, status, created_at, confirmed_at, completed_at, cancelled_at
FROM bookings
WHERE subject_id = $1
ORDER BY created_at DESC`

	rows, err := r.query(ctx, query, subjectID)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (r *BookingRepository) scanBooking(row pgx.Row) (domain.Booking, error) {
	var b domain.Booking
	var payload []byte
	err := row.Scan(
		&b.ID,
		&b.Kind,
		&b.SubjectID,
		&payload,
		&b.Status,
		&b.CreatedAt,
		&b.ConfirmedAt,
		&b.CompletedAt,
		&b.CancelledAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Booking{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Booking{}, domain.ErrBookingNotFound
		}
		return domain.Booking{}, fmt.Errorf("scan booking: %w", err)
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &b.Payload); err != nil {
			return domain.Booking{}, fmt.Errorf("decode payload: %w", err)
		}
	}
	return b, nil
}

func (r *BookingRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *BookingRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *BookingRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
