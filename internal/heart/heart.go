// internal/heart/heart.go
//
// Core entities for the Heart Wall.
//
// Context
// -------
// A Heart is one permanent memorial entry on the public wall.  Rows are
// created exactly once, at payment-confirmation time, from metadata the
// payment processor attributes to a verified charge.  They are never
// updated and never deleted by normal flow.
//
// The PaymentRef column carries the Stripe payment-intent id and is the
// uniqueness key that makes repeated confirmation calls safe.

package heart

import (
	"database/sql"
	"time"
)

//
// Categories
//

// Category is the closed set of reasons a heart can be placed.  The wall
// renders each category with its own tint, so the enumeration is fixed;
// there are no dynamic categories.
type Category string

const (
	CategoryRomantic   Category = "romantic"
	CategoryFamily     Category = "family"
	CategoryFriendship Category = "friendship"
	CategoryMemory     Category = "memory"
	CategorySelf       Category = "self"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryRomantic,
	CategoryFamily,
	CategoryFriendship,
	CategoryMemory,
	CategorySelf,
}

// Valid reports whether c is a member of the closed enumeration.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

//
// Record
//

// Record is one durable heart row.  ID is a server-generated UUID used in
// share URLs.  Date stays a plain ISO string end to end so the value the
// visitor typed is the value the wall shows; parsing it into a time.Time
// would invite timezone drift.
type Record struct {
	ID             string         `db:"id"`
	Name           string         `db:"name"`
	Category       Category       `db:"category"`
	Message        sql.NullString `db:"message"`
	Date           string         `db:"date"`
	RecipientEmail sql.NullString `db:"recipient_email"`
	PaymentRef     string         `db:"payment_ref"`
	CreatedAt      time.Time      `db:"created_at"`
}

// Input is a validated submission.  Values come out of the validators in
// validate.go and travel to Stripe as intent metadata; they never touch
// the database until the charge is verified server-side.
type Input struct {
	Name           string
	Category       Category
	Message        string
	Date           string
	RecipientEmail string
}
