// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional dotenv file at `<root>/conf/.env`.
  2. `conf/global.yaml`.
  3. Environment variables prefixed `HEARTWALL_`, where `__` maps to “.”
     (e.g., `HEARTWALL_STRIPE__SECRET_KEY → stripe.secret_key`).

After merging, the tree is unmarshalled into strongly-typed structs,
`vault:` references are resolved, the result is validated and enriched
with the runtime root path.  main loads once at boot and threads the
struct to the components that need it; there is no global accessor.

Instrumentation
---------------
  • DEBUG spans — root discovery, YAML read, env overlay.
  • ERROR spans — YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span  — final “config loaded” with key highlights (never the
    secrets themselves).
*/
package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/theheartwall/heartwall/internal/vault"
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves HEARTWALL_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for the
// production layout.
func rootDir() string {
	if r := os.Getenv("HEARTWALL_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load reads .env, YAML, env overrides, resolves Vault references, and
// validates the result.
func Load(ctx context.Context) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: HEARTWALL_STRIPE__SECRET_KEY → stripe.secret_key
	if err := k.Load(env.Provider("HEARTWALL_", ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(
			strings.TrimPrefix(s, "HEARTWALL_"), "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.Paths.Root = root

	if err := resolveSecrets(ctx, &cfg); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"currency", cfg.Stripe.Currency,
		"amount_cents", cfg.Stripe.AmountCents,
		"email_enabled", cfg.Email.APIKey != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── vault resolution ─────────────────────────────*/

// resolveSecrets replaces every `vault:path#key` value with the secret it
// names.  The Vault client is only constructed when at least one field
// carries the prefix, so dev setups without Vault never touch it.
func resolveSecrets(ctx context.Context, cfg *Config) error {
	fields := []*string{
		&cfg.Database.DSN,
		&cfg.Stripe.SecretKey,
		&cfg.Stripe.WebhookSecret,
		&cfg.Email.APIKey,
		&cfg.Admin.Secret,
	}

	var cli *vault.Client
	for _, f := range fields {
		ref, ok := strings.CutPrefix(*f, "vault:")
		if !ok {
			continue
		}
		if cli == nil {
			c, err := vault.New(ctx, zap.S().Infof)
			if err != nil {
				return err
			}
			cli = c
		}
		val, err := cli.GetRef(ctx, ref)
		if err != nil {
			return err
		}
		*f = val
	}
	return nil
}
