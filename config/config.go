package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/hanabi-drive/hanabi"
	"github.com/hanabi-drive/hanabi/auth"
	"github.com/hanabi-drive/hanabi/cookie"
	"github.com/hanabi-drive/hanabi/cors"
	"github.com/hanabi-drive/hanabi/database"
	"github.com/hanabi-drive/hanabi/ops"
	"github.com/hanabi-drive/hanabi/server"
	"github.com/hanabi-drive/hanabi/wire"
)

// configKey is the context key for storing the loaded configuration.
type configKey struct{}

// WithContext returns a new context with the config stored.
func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// FromContext retrieves the config from context.
// Returns an error if config is not found.
func FromContext(ctx context.Context) (*Config, error) {
	cfg, ok := ctx.Value(configKey{}).(*Config)
	if !ok || cfg == nil {
		return nil, errors.New("config not found in context")
	}
	return cfg, nil
}

// Config is the root configuration struct for hanabi.
type Config struct {
	Env      string         `mapstructure:"env" yaml:"env" validate:"required,oneof=dev prod production"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Ops      OpsConfig      `mapstructure:"ops" yaml:"ops"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Session  SessionConfig  `mapstructure:"session" yaml:"session"`
	CORS     CORSConfig     `mapstructure:"cors" yaml:"cors"`
	Auth     AuthConfig     `mapstructure:"auth" yaml:"auth"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// ServerConfig holds the account protocol listener configuration.
type ServerConfig struct {
	Addr           string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	MaxConns       int64         `mapstructure:"max_conns" yaml:"max_conns" validate:"min=1"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes" yaml:"max_header_bytes" validate:"min=1"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes" validate:"min=1"`
}

// OpsConfig holds the health and metrics listener configuration.
type OpsConfig struct {
	Enabled bool           `mapstructure:"enabled" yaml:"enabled"`
	Addr    string         `mapstructure:"addr" yaml:"addr" validate:"required_if=Enabled true"`
	CORS    ops.CORSConfig `mapstructure:"cors" yaml:"cors"`
}

// DatabaseConfig holds credential store configuration.
type DatabaseConfig struct {
	Type        string        `mapstructure:"type" yaml:"type" validate:"required,oneof=sqlite postgres memory"`
	DSN         string        `mapstructure:"dsn" yaml:"dsn" validate:"required_unless=Type memory"`
	Tables      hanabi.Tables `mapstructure:"tables" yaml:"tables"`
	SeedFile    string        `mapstructure:"seed_file" yaml:"seed_file"`
	AutoMigrate bool          `mapstructure:"auto_migrate" yaml:"auto_migrate"`
}

// SessionConfig holds the session cookie attributes.
type SessionConfig struct {
	CookieName  string `mapstructure:"cookie_name" yaml:"cookie_name" validate:"required"`
	SameSite    string `mapstructure:"same_site" yaml:"same_site"`
	Secure      bool   `mapstructure:"secure" yaml:"secure"`
	Partitioned bool   `mapstructure:"partitioned" yaml:"partitioned"`
	HTTPOnly    bool   `mapstructure:"http_only" yaml:"http_only"`
	Path        string `mapstructure:"path" yaml:"path"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
}

// CORSConfig holds the browser policy of the account endpoint.
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins" validate:"required,min=1"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods" validate:"required,min=1"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	PreflightHeaders []string `mapstructure:"preflight_headers" yaml:"preflight_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age" validate:"min=0"`
}

// AuthConfig holds login throttling configuration.
type AuthConfig struct {
	LoginRate  float64 `mapstructure:"login_rate" yaml:"login_rate" validate:"gt=0"`
	LoginBurst int     `mapstructure:"login_burst" yaml:"login_burst" validate:"min=1"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=debug info warn error"`
}

// flagToViperKey maps CLI flag names to viper configuration keys.
var flagToViperKey = map[string]string{
	"db-type":   "database.type",
	"db-dsn":    "database.dsn",
	"addr":      "server.addr",
	"ops-addr":  "ops.addr",
	"max-conns": "server.max_conns",
	"log-level": "log.level",
}

// bindFlags binds CLI flags to viper keys with custom name mapping.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		viperKey := f.Name
		if mapped, ok := flagToViperKey[viperKey]; ok {
			viperKey = mapped
		}

		// Only bind if the flag was explicitly set
		if f.Changed {
			_ = v.BindPFlag(viperKey, f)
		}
	})
}

// setDefaults configures default values on the viper instance.
func setDefaults(v *viper.Viper) {
	serverDefaults := server.DefaultConfig()
	authDefaults := auth.DefaultConfig()

	v.SetDefault("env", "dev")

	v.SetDefault("server.addr", serverDefaults.Addr)
	v.SetDefault("server.max_conns", serverDefaults.MaxConns)
	v.SetDefault("server.read_timeout", serverDefaults.ReadTimeout)
	v.SetDefault("server.write_timeout", serverDefaults.WriteTimeout)
	v.SetDefault("server.max_header_bytes", serverDefaults.Limits.MaxHeaderBytes)
	v.SetDefault("server.max_body_bytes", serverDefaults.Limits.MaxBodyBytes)

	v.SetDefault("ops.enabled", true)
	v.SetDefault("ops.addr", ":9999")
	v.SetDefault("ops.cors.enabled", false)

	v.SetDefault("database.type", "sqlite")
	v.SetDefault("database.dsn", "data/main.db3")
	v.SetDefault("database.tables.users", hanabi.DefaultTables().Users)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("session.cookie_name", authDefaults.CookieName)
	v.SetDefault("session.same_site", authDefaults.Cookie.SameSite.String())
	v.SetDefault("session.secure", authDefaults.Cookie.Secure)
	v.SetDefault("session.partitioned", authDefaults.Cookie.Partitioned)
	v.SetDefault("session.http_only", authDefaults.Cookie.HttpOnly)
	v.SetDefault("session.max_age", authDefaults.Cookie.MaxAge)

	v.SetDefault("cors.allowed_origins", authDefaults.Simple.AllowedOrigins)
	v.SetDefault("cors.allowed_methods", methodNames(authDefaults.Simple.AllowedMethods))
	v.SetDefault("cors.allowed_headers", authDefaults.Simple.AllowedHeaders)
	v.SetDefault("cors.preflight_headers", authDefaults.Preflight.AllowedHeaders)
	v.SetDefault("cors.allow_credentials", authDefaults.Simple.AllowCredentials)
	v.SetDefault("cors.max_age", 0)

	v.SetDefault("auth.login_rate", 5.0)
	v.SetDefault("auth.login_burst", 10)

	v.SetDefault("log.level", "info")
}

// Load reads configuration and returns a validated Config struct.
// Order of precedence (highest to lowest): flags > env > config files > defaults
//
// Parameters:
//   - configFiles: list of config file paths (later files override earlier ones)
//   - flags: cobra flag set for flag binding (can be nil)
func Load(configFiles []string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// 1. Set defaults
	setDefaults(v)

	// 2. Read config files
	if len(configFiles) > 0 {
		v.SetConfigFile(configFiles[0])
		if err := v.ReadInConfig(); err != nil {
			slog.Warn("error reading config file", "file", configFiles[0], "err", err)
		}

		for _, cf := range configFiles[1:] {
			v.SetConfigFile(cf)
			if err := v.MergeInConfig(); err != nil {
				slog.Warn("error merging config file", "file", cf, "err", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		if err := v.ReadInConfig(); err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				slog.Warn("error reading config file", "err", err)
			}
		}
	}

	// 3. Bind environment variables
	v.SetEnvPrefix("HANABI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Bind flags (if provided)
	if flags != nil {
		bindFlags(v, flags)
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	// 6. Validate using go-playground/validator
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct tags and the values that need parsing.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	if c.Database.Type != "memory" {
		if err := c.Database.Tables.Validate(); err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}
	if _, err := c.AuthConfig(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// IsProd reports whether the deployment runs in production mode.
func (c *Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

// DatabaseConfig returns the credential store connection settings.
func (c *Config) DatabaseConfig() database.Config {
	return database.Config{
		Type:     c.Database.Type,
		DSN:      c.Database.DSN,
		Tables:   c.Database.Tables,
		SeedFile: c.Database.SeedFile,
	}
}

// ServerConfig returns the protocol server settings.
func (c *Config) ServerConfig() server.Config {
	return server.Config{
		Addr:         c.Server.Addr,
		MaxConns:     c.Server.MaxConns,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
		Limits: wire.Limits{
			MaxHeaderBytes: c.Server.MaxHeaderBytes,
			MaxBodyBytes:   c.Server.MaxBodyBytes,
		},
	}
}

// OpsConfig returns the ops handler settings.
func (c *Config) OpsConfig() ops.Config {
	return ops.Config{CORS: c.Ops.CORS}
}

// AuthConfig builds the account service policy. Simple requests and preflights
// share origins, methods and credentials; they differ only in allowed headers.
func (c *Config) AuthConfig() (auth.Config, error) {
	sameSite, err := cookie.ParseSameSite(c.Session.SameSite)
	if err != nil {
		return auth.Config{}, fmt.Errorf("session.same_site: %w", err)
	}

	methods := make([]wire.Method, 0, len(c.CORS.AllowedMethods))
	for _, name := range c.CORS.AllowedMethods {
		m, err := wire.ParseMethod(strings.ToUpper(strings.TrimSpace(name)))
		if err != nil {
			return auth.Config{}, fmt.Errorf("cors.allowed_methods: %w", err)
		}
		methods = append(methods, m)
	}

	attrs := cookie.Attributes{
		SameSite:    sameSite,
		Secure:      c.Session.Secure,
		Partitioned: c.Session.Partitioned,
		HttpOnly:    c.Session.HTTPOnly,
		Path:        c.Session.Path,
		MaxAge:      c.Session.MaxAge,
	}
	if err := (cookie.Cookie{Name: c.Session.CookieName, Value: "x", Attributes: attrs}).Validate(); err != nil {
		return auth.Config{}, fmt.Errorf("session: %w", err)
	}

	policy := func(headers []string) cors.Policy {
		return cors.Policy{
			AllowedOrigins:   append([]string(nil), c.CORS.AllowedOrigins...),
			AllowedMethods:   append([]wire.Method(nil), methods...),
			AllowedHeaders:   append([]string(nil), headers...),
			AllowCredentials: c.CORS.AllowCredentials,
			MaxAge:           c.CORS.MaxAge,
		}
	}

	return auth.Config{
		CookieName: c.Session.CookieName,
		Cookie:     attrs,
		Simple:     policy(c.CORS.AllowedHeaders),
		Preflight:  policy(c.CORS.PreflightHeaders),
	}, nil
}

func methodNames(methods []wire.Method) []string {
	names := make([]string, len(methods))
	for i, m := range methods {
		names[i] = m.String()
	}
	return names
}
