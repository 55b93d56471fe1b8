// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree (and resolves any Vault references).
// Any tag mismatch or validation error aborts startup, ensuring the
// binary never runs with partial, malformed, or missing configuration.
//
// Rules in use: `required` on the listen address, DSN, and Stripe
// credentials, `gt=0` on the price, `len=3` on the ISO currency, and
// `omitempty,email` on the sender address.

package config

import "github.com/go-playground/validator/v10"

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	return v.Struct(c)
}
