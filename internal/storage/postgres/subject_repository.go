package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebridge/booking-api/internal/domain"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) CreateSubject(ctx context.Context, subject domain.Subject) error {
	const stmt = `
INSERT INTO subjects (id, email, name, created_at)
VALUES ($1, $2, $3, $4)`

	_, err := r.exec(ctx, stmt, subject.ID, subject.Email, subject.Name, subject.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", domain.ErrValidationFailed)
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (r *SubjectRepository) GetSubjectByID(ctx context.Context, id string) (domain.Subject, error) {
	const query = `SELECT id, email, name, created_at FROM subjects WHERE id = $1`
	return r.scanSubject(r.queryRow(ctx, query, id))
}

func (r *SubjectRepository) GetSubjectByEmail(ctx context.Context, email string) (domain.Subject, error) {
	const query = `SELECT id, email, name, created_at FROM subjects WHERE email = $1`
	return r.scanSubject(r.queryRow(ctx, query, email))
}

func (r *SubjectRepository) scanSubject(row pgx.Row) (domain.Subject, error) {
	var s domain.Subject
	err := row.Scan(&s.ID, &s.Email, &s.Name, &s.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Subject{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Subject{}, domain.ErrSubjectNotFound
		}
		return domain.Subject{}, fmt.Errorf("scan subject: %w", err)
	}
	return s, nil
}

func (r *SubjectRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *SubjectRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
