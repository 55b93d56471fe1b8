// internal/heart/repository.go
//
// Postgres persistence for heart rows.
//
// Context
// -------
// The wall runs as stateless request handlers, so concurrent confirmation
// calls cannot coordinate in memory.  The UNIQUE index on payment_ref is
// the entire deduplication mechanism: the first insert for a token wins,
// and the loser sees a 23505 unique violation, which Insert translates
// into "already processed" instead of an error.  Check-then-insert would
// be a race and is deliberately absent.

package heart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned by lookups with no matching row.
var ErrNotFound = errors.New("heart not found")

// ErrPersistence marks storage failures other than the expected unique
// violation.  Callers surface these as opaque failures and rely on the
// processor's webhook retry to try again.
var ErrPersistence = errors.New("heart persistence failed")

// Repository wraps the hearts table.
type Repository struct {
	db *sqlx.DB
}

// NewRepository binds a repository to db.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Insert persists one row for in, keyed by paymentRef.  On first insert it
// returns the stored record and created = true.  When a row for paymentRef
// already exists, the existing record is returned with created = false and
// no error; repeat confirmation calls are success, not failure.
func (r *Repository) Insert(ctx context.Context, in Input, paymentRef string) (*Record, bool, error) {
	const q = `
        INSERT INTO hearts (name, category, message, date, recipient_email, payment_ref)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at`

	rec := Record{
		Name:           in.Name,
		Category:       in.Category,
		Message:        nullable(in.Message),
		Date:           in.Date,
		RecipientEmail: nullable(in.RecipientEmail),
		PaymentRef:     paymentRef,
	}

	err := r.db.QueryRowxContext(ctx, q,
		in.Name, in.Category, nullable(in.Message), in.Date,
		nullable(in.RecipientEmail), paymentRef,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err == nil {
		return &rec, true, nil
	}

	if isUniqueViolation(err) {
		existing, lerr := r.ByPaymentRef(ctx, paymentRef)
		if lerr != nil {
			return nil, false, fmt.Errorf("%w: fetch after conflict: %v", ErrPersistence, lerr)
		}
		return existing, false, nil
	}

	return nil, false, fmt.Errorf("%w: insert: %v", ErrPersistence, err)
}

// ByID fetches one record by its share id.
func (r *Repository) ByID(ctx context.Context, id string) (*Record, error) {
	const q = `
        SELECT id, name, category, message, date, recipient_email, payment_ref, created_at
        FROM   hearts
        WHERE  id = $1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: by id: %v", ErrPersistence, err)
	}
	return &rec, nil
}

// ByPaymentRef fetches one record by its payment-correlation token.  The
// share redirect after checkout only knows the intent id, not the row id.
func (r *Repository) ByPaymentRef(ctx context.Context, ref string) (*Record, error) {
	const q = `
        SELECT id, name, category, message, date, recipient_email, payment_ref, created_at
        FROM   hearts
        WHERE  payment_ref = $1`
	var rec Record
	if err := r.db.GetContext(ctx, &rec, q, ref); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: by payment ref: %v", ErrPersistence, err)
	}
	return &rec, nil
}

// ListRecent returns up to limit records, newest first, for the wall page.
func (r *Repository) ListRecent(ctx context.Context, limit, offset int) ([]Record, error) {
	const q = `
        SELECT id, name, category, message, date, recipient_email, payment_ref, created_at
        FROM   hearts
        ORDER  BY created_at DESC
        LIMIT  $1 OFFSET $2`
	var rows []Record
	if err := r.db.SelectContext(ctx, &rows, q, limit, offset); err != nil {
		return nil, fmt.Errorf("%w: list: %v", ErrPersistence, err)
	}
	return rows, nil
}

// CountAll returns the total number of hearts on the wall.
func (r *Repository) CountAll(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM hearts`); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrPersistence, err)
	}
	return n, nil
}

// isUniqueViolation recognises Postgres error class 23505 without string
// matching on the message.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
