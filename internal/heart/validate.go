// internal/heart/validate.go
//
// Field validation for untrusted submissions.
//
// Context
// -------
// Every externally supplied field is rejected or normalized here before it
// crosses a trust boundary.  The functions are pure, and idempotent on
// already-valid input, so the confirmation path can re-run them over
// metadata read back from Stripe without changing a value.
//
// Failure reasons are user-facing on purpose.  A generic "something went
// wrong" hides actionable autofill problems, and mobile autofill is the
// main source of malformed email values (see ValidateEmail).

package heart

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits, counted in characters, not bytes; the database
// CHECK constraints use char_length, and the two must agree or an
// accented name passes one boundary and fails the other.  Name and
// message caps match the card layout on the wall; the email cap is the
// RFC 5321 path limit.
const (
	MaxNameLen    = 100
	MaxMessageLen = 120
	MaxEmailLen   = 254
)

// ValidationError reports a single bad field.  The Reason is safe to show
// to the end user verbatim.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	angleRe = regexp.MustCompile(`<([^>]+)>`)
)

// ValidateName trims and bounds the display name.  Required.
func ValidateName(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", invalid("name", "Name is required")
	}
	if utf8.RuneCountInString(trimmed) > MaxNameLen {
		return "", invalid("name", fmt.Sprintf("Name must be %d characters or less", MaxNameLen))
	}
	return trimmed, nil
}

// ValidateCategory checks membership in the closed enumeration and returns
// the value unchanged.
func ValidateCategory(raw string) (Category, error) {
	c := Category(raw)
	if !c.Valid() {
		return "", invalid("category", "Invalid category")
	}
	return c, nil
}

// ValidateMessage trims and bounds the optional message.  Absent or empty
// input normalizes to the empty string.
func ValidateMessage(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if utf8.RuneCountInString(trimmed) > MaxMessageLen {
		return "", invalid("message", fmt.Sprintf("Message must be %d characters or less", MaxMessageLen))
	}
	return trimmed, nil
}

// ValidateDate requires a strict YYYY-MM-DD string that parses to a real
// calendar date no more than one year ahead of now.  The raw string is
// returned untouched; the ISO string is the canonical form throughout the
// system, so no timezone-shifted value can leak out of this function.
func ValidateDate(raw string, now time.Time) (string, error) {
	if !dateRe.MatchString(raw) {
		return "", invalid("date", "Invalid date format")
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", invalid("date", "Invalid date format")
	}
	if parsed.After(now.AddDate(1, 0, 0)) {
		return "", invalid("date", "Date cannot be more than 1 year in the future")
	}
	return raw, nil
}

// ValidateEmail normalizes the optional recipient address.  Absent or empty
// input normalizes to the empty string.
//
// Mobile browsers autofill the field as a display-name form such as
// "Jane Doe <jane@example.com>"; the bracketed address is extracted before
// the shape check.  Dropping this accommodation turns a large share of
// phone submissions into validation failures.
func ValidateEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", nil
	}
	if utf8.RuneCountInString(trimmed) > MaxEmailLen {
		return "", invalid("email", fmt.Sprintf("Email must be %d characters or less", MaxEmailLen))
	}
	if m := angleRe.FindStringSubmatch(trimmed); len(m) == 2 {
		trimmed = strings.TrimSpace(m[1])
	}
	if !emailRe.MatchString(trimmed) {
		return "", invalid("email", "Invalid email format")
	}
	return trimmed, nil
}

// ValidateInput runs every field validator over a raw submission and
// returns the normalized Input.  The first failing field wins.
func ValidateInput(rawName, rawCategory, rawMessage, rawDate, rawEmail string, now time.Time) (Input, error) {
	var in Input
	var err error

	if in.Name, err = ValidateName(rawName); err != nil {
		return Input{}, err
	}
	if in.Category, err = ValidateCategory(rawCategory); err != nil {
		return Input{}, err
	}
	if in.Message, err = ValidateMessage(rawMessage); err != nil {
		return Input{}, err
	}
	if in.Date, err = ValidateDate(rawDate, now); err != nil {
		return Input{}, err
	}
	if in.RecipientEmail, err = ValidateEmail(rawEmail); err != nil {
		return Input{}, err
	}
	return in, nil
}
