// internal/config/model.go
//
// Typed configuration model for Cadastro.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • `CADASTRO_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through the Vault
// client *before* unmarshalling, so the model never stores Vault URIs, only
// plain strings.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • Durations accept Go syntax ("2s", "1h").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Log section
//

// Log controls the zap logger.  Dir is relative to the root unless absolute.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

//
// CSRF section
//

// CSRF configures form tokens.  Key should come from Vault; an empty or
// short key makes the server generate one per process.
type CSRF struct {
	Key    string        `koanf:"key"`
	MinAge time.Duration `koanf:"min_age" validate:"gte=0"`
	MaxAge time.Duration `koanf:"max_age" validate:"gte=0"`
}

//
// Database section
//

// Database is optional.  DSN may carry one `%s` verb that receives Password,
// which keeps the secret out of the YAML template.
type Database struct {
	DSN      string `koanf:"dsn"      validate:"dsn_verbs"`
	Password string `koanf:"password"`
}

// Enabled reports whether a DSN was configured.
func (d Database) Enabled() bool { return d.DSN != "" }

//
// Messaging section
//

// NATS configures the publish action.  An empty URL keeps the log queue.
type NATS struct {
	URL  string `koanf:"url" validate:"omitempty,url"`
	Name string `koanf:"name"`
}

//
// Forms, options, and request metadata
//

// Forms points at the override directory for form definitions.
type Forms struct {
	Dir string `koanf:"dir"`
}

// Options optionally replaces the embedded option catalog.
type Options struct {
	File string `koanf:"file"`
}

// GeoIP names a MaxMind country database.  Empty disables geo lookup.
type GeoIP struct {
	DB string `koanf:"db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // CADASTRO_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Log      Log      `koanf:"log"`
	CSRF     CSRF     `koanf:"csrf"`
	Database Database `koanf:"database"`
	NATS     NATS     `koanf:"nats"`
	Forms    Forms    `koanf:"forms"`
	Options  Options  `koanf:"options"`
	GeoIP    GeoIP    `koanf:"geoip"`
	Paths    Paths    `koanf:"-"`
}

// applyDefaults fills values the YAML left empty.
func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "logs"
	}
	if c.CSRF.MaxAge == 0 {
		c.CSRF.MaxAge = 2 * time.Hour
	}
	if c.Forms.Dir == "" {
		c.Forms.Dir = "conf/forms"
	}
	if c.NATS.Name == "" {
		c.NATS.Name = "cadastro"
	}
}
