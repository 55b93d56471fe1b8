// internal/demo/counter.go
//
// Cosmetic "N hearts added" counter.
//
// This sits outside the trust-sensitive pipeline: one mutable row with no
// consistency requirement beyond "eventually roughly right."  The landing
// page blends this number with the real row count for display.

package demo

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ResetCount is the value the counter returns to on an admin reset.
const ResetCount = 74026

// Counter wraps the single demo_config row.
type Counter struct {
	db *sqlx.DB
}

// NewCounter binds a counter to db.
func NewCounter(db *sqlx.DB) *Counter {
	return &Counter{db: db}
}

// Current returns the displayed count.
func (c *Counter) Current(ctx context.Context) (int64, error) {
	var n int64
	const q = `SELECT demo_heart_count FROM demo_config WHERE id = 'main'`
	if err := c.db.GetContext(ctx, &n, q); err != nil {
		return 0, fmt.Errorf("demo counter read: %w", err)
	}
	return n, nil
}

// Increment bumps the count by one and returns the new value.  Plain
// single-row UPDATE; the database serialises concurrent bumps and a lost
// tick would not matter anyway.
func (c *Counter) Increment(ctx context.Context) (int64, error) {
	var n int64
	const q = `
        UPDATE demo_config
        SET    demo_heart_count = demo_heart_count + 1, updated_at = $1
        WHERE  id = 'main'
        RETURNING demo_heart_count`
	if err := c.db.QueryRowxContext(ctx, q, time.Now().UTC()).Scan(&n); err != nil {
		return 0, fmt.Errorf("demo counter increment: %w", err)
	}
	return n, nil
}

// Reset puts the counter back to ResetCount and stamps the reset time.
func (c *Counter) Reset(ctx context.Context) error {
	now := time.Now().UTC()
	const q = `
        UPDATE demo_config
        SET    demo_heart_count = $1, last_reset_at = $2, updated_at = $2
        WHERE  id = 'main'`
	if _, err := c.db.ExecContext(ctx, q, ResetCount, now); err != nil {
		return fmt.Errorf("demo counter reset: %w", err)
	}
	return nil
}
