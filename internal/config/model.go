// internal/config/model.go
//
// Typed configuration model for the Heart Wall API.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `conf/.env`                        – dotenv values,
//   • `conf/global.yaml`                          – primary static file,
//   • `HEARTWALL_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client after unmarshalling, so the rest of the app
// only ever sees plain strings.  Production keeps the Stripe and SendGrid
// secrets there; development sets them straight in the env.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"..."`, not `yaml:"..."`; Koanf ignores
//     `yaml` tags unless configured otherwise.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.  CORSOrigins lists the SPA origins that
// may call the API from a browser.
type HTTP struct {
	ListenAddr  string   `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS  bool     `koanf:"force_https"`
	CORSOrigins []string `koanf:"cors_origins"`
}

//
// Database section
//

// Database holds the Postgres DSN.  The secret portion may be a `vault:`
// reference; the loader resolves it before anything connects.
type Database struct {
	DSN string `koanf:"dsn" validate:"required"`
}

//
// Stripe section
//

// Stripe holds the processor credentials and the fixed price of one heart.
// AmountCents is in the currency's minor unit.
type Stripe struct {
	SecretKey     string `koanf:"secret_key"     validate:"required"`
	WebhookSecret string `koanf:"webhook_secret" validate:"required"`
	AmountCents   int64  `koanf:"amount_cents"   validate:"required,gt=0"`
	Currency      string `koanf:"currency"       validate:"required,len=3"`
}

//
// Email section
//

// Email holds the SendGrid credentials and sender identity.  APIKey may be
// empty; the notifier is then skipped and hearts still persist.
type Email struct {
	APIKey   string `koanf:"api_key"`
	FromName string `koanf:"from_name"`
	FromAddr string `koanf:"from_addr" validate:"omitempty,email"`
}

//
// Admin section
//

// Admin guards the demo-counter reset endpoint with a bearer secret.
type Admin struct {
	Secret string `koanf:"secret"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or HEARTWALL_ROOT override) so later code
// can build absolute file paths, e.g. for the log directory.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load().  main threads it
// to the components that need it; nothing mutates it after boot.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Stripe   Stripe   `koanf:"stripe"`
	Email    Email    `koanf:"email"`
	Admin    Admin    `koanf:"admin"`
	Paths    Paths    `koanf:"-"`
}
