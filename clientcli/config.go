package clientcli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultEndpoint is the default server endpoint URL.
	DefaultEndpoint = "http://localhost:9998"

	// DefaultCookieName is the session cookie the server issues by default.
	DefaultCookieName = "tkn"
)

// Profile is one named server entry in the CLI config file.
type Profile struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
	Origin   string `yaml:"origin,omitempty"`
	User     string `yaml:"user,omitempty"`
	Default  bool   `yaml:"default,omitempty"`
}

// ConfigFile is the on-disk profile list.
type ConfigFile struct {
	Profiles []Profile `yaml:"profiles"`
}

func (c *ConfigFile) index(name string) int {
	return slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Name == name })
}

func (c *ConfigFile) lookup(name string) (int, error) {
	i := c.index(name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrProfileNotFound, name)
	}
	return i, nil
}

// GetProfile returns the named profile, or the default one when name is empty.
func (c *ConfigFile) GetProfile(name string) (*Profile, error) {
	if name == "" || len(c.Profiles) == 0 {
		return c.GetDefaultProfile()
	}
	i, err := c.lookup(name)
	if err != nil {
		return nil, err
	}
	return &c.Profiles[i], nil
}

// GetDefaultProfile returns the profile marked default, falling back to the first.
func (c *ConfigFile) GetDefaultProfile() (*Profile, error) {
	if len(c.Profiles) == 0 {
		return nil, ErrNoProfiles
	}
	if i := slices.IndexFunc(c.Profiles, func(p Profile) bool { return p.Default }); i >= 0 {
		return &c.Profiles[i], nil
	}
	return &c.Profiles[0], nil
}

// AddProfile appends p. The name must be new.
func (c *ConfigFile) AddProfile(p Profile) error {
	if c.index(p.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrProfileExists, p.Name)
	}
	c.Profiles = append(c.Profiles, p)
	return nil
}

// UpdateProfile replaces the profile named p.Name.
func (c *ConfigFile) UpdateProfile(p Profile) error {
	i, err := c.lookup(p.Name)
	if err != nil {
		return err
	}
	c.Profiles[i] = p
	return nil
}

func (c *ConfigFile) RemoveProfile(name string) error {
	i, err := c.lookup(name)
	if err != nil {
		return err
	}
	c.Profiles = slices.Delete(c.Profiles, i, i+1)
	return nil
}

// SetDefault marks name as the only default profile.
func (c *ConfigFile) SetDefault(name string) error {
	if _, err := c.lookup(name); err != nil {
		return err
	}
	for i := range c.Profiles {
		c.Profiles[i].Default = c.Profiles[i].Name == name
	}
	return nil
}

// Save writes the file with owner-only permissions, creating its directory.
func (c *ConfigFile) Save(path string) error {
	return writeYAML(path, c)
}

func LoadConfigFile(path string) (*ConfigFile, error) {
	cfg := new(ConfigFile)
	if err := readYAML(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfigPath returns the default config file path (~/.hanabi/config.yaml).
func DefaultConfigPath() string {
	return homePath("config.yaml")
}

// Config holds resolved client configuration for a single server.
type Config struct {
	Endpoint string
	// Origin is sent as the Origin header; empty sends none.
	Origin     string
	CookieName string
	// Session is a previously issued session token to present.
	Session string
}

// WithDefaults returns a copy of the config with default values applied.
func (c *Config) WithDefaults() *Config {
	cfg := *c
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.CookieName == "" {
		cfg.CookieName = DefaultCookieName
	}
	return &cfg
}

// Validate checks the endpoint and origin URLs.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidEndpoint, c.Endpoint)
	}
	if c.Origin != "" {
		o, err := url.Parse(c.Origin)
		if err != nil || (o.Scheme != "http" && o.Scheme != "https") || o.Host == "" || (o.Path != "" && o.Path != "/") {
			return fmt.Errorf("%w: %q", ErrInvalidOrigin, c.Origin)
		}
	}
	return nil
}

// ConfigFromProfile returns the endpoint and origin of p. A nil profile yields an empty Config.
func ConfigFromProfile(p *Profile) *Config {
	cfg := &Config{}
	if p != nil {
		cfg.Endpoint, cfg.Origin = p.Endpoint, p.Origin
	}
	return cfg
}

// Environment variables read by the CLI.
const (
	EnvEndpoint   = "HANABI_ENDPOINT"
	EnvOrigin     = "HANABI_ORIGIN"
	EnvCookieName = "HANABI_COOKIE_NAME"
	EnvProfile    = "HANABI_PROFILE"
	EnvConfig     = "HANABI_CONFIG"
)

func ConfigFromEnv() *Config {
	return &Config{
		Endpoint:   os.Getenv(EnvEndpoint),
		Origin:     os.Getenv(EnvOrigin),
		CookieName: os.Getenv(EnvCookieName),
	}
}

func ProfileFromEnv() string { return os.Getenv(EnvProfile) }

func ConfigPathFromEnv() string { return os.Getenv(EnvConfig) }

// MergeConfig layers configs left to right. A field is taken from the last config
// that sets it.
func MergeConfig(configs ...*Config) *Config {
	merged := &Config{}
	for _, cfg := range configs {
		if cfg == nil {
			continue
		}
		overlay(&merged.Endpoint, cfg.Endpoint)
		overlay(&merged.Origin, cfg.Origin)
		overlay(&merged.CookieName, cfg.CookieName)
		overlay(&merged.Session, cfg.Session)
	}
	return merged
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func homePath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hanabi", name)
}

func writeYAML(path string, v any) error {
	cleanPath := filepath.Clean(path)

	if err := os.MkdirAll(filepath.Dir(cleanPath), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cleanPath, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

func readYAML(path string, v any) error {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) //#nosec G304 -- path is user-provided config file
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	return nil
}
