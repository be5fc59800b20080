// Package config loads the radiusauth CLI's configuration: the RADIUS
// server list, shared secret, NAS attributes, and authentication method
// defaults. Values come from a YAML file overlaid with RADIUSAUTH_-prefixed
// environment variable overrides, merged on top of DefaultConfig(),
// following the same koanf/v2 file+env+defaults pattern used elsewhere in
// this pack.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ServerConfig describes one RADIUS server in the retry list.
type ServerConfig struct {
	Addr     string `koanf:"addr"`
	AuthPort int    `koanf:"auth_port"`
	AcctPort int    `koanf:"acct_port"`
}

// NASConfig carries the default NAS-IP-Address/NAS-Port attributes set on
// every Access-Request.
type NASConfig struct {
	IPAddress string `koanf:"ip_address"`
	Port      uint32 `koanf:"port"`
}

// AuthConfig selects and parameterizes the authentication method: one of
// pap, chap-md5, mschapv1, eap-mschapv2.
type AuthConfig struct {
	Method         string        `koanf:"method"`
	Suffix         string        `koanf:"suffix"`
	IncludeMsgAuth bool          `koanf:"include_message_authenticator"`
	Timeout        time.Duration `koanf:"timeout"`
}

// LogConfig controls internal/logging's level.
type LogConfig struct {
	Level string `koanf:"level"`
}

// Config is the complete radiusauth configuration tree.
type Config struct {
	Secret  string         `koanf:"secret"`
	Servers []ServerConfig `koanf:"servers"`
	NAS     NASConfig      `koanf:"nas"`
	Auth    AuthConfig     `koanf:"auth"`
	Log     LogConfig      `koanf:"log"`
}

// DefaultConfig returns the baseline configuration merged underneath any
// file/env overrides.
func DefaultConfig() *Config {
	return &Config{
		Servers: []ServerConfig{
			{Addr: "127.0.0.1", AuthPort: 1812, AcctPort: 1813},
		},
		Auth: AuthConfig{
			Method:  "pap",
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// envPrefix is the environment variable prefix for radiusauth configuration.
// Variables are named RADIUSAUTH_<section>_<key>, e.g. RADIUSAUTH_SECRET,
// RADIUSAUTH_AUTH_METHOD, RADIUSAUTH_LOG_LEVEL.
const envPrefix = "RADIUSAUTH_"

// Load reads configuration from a YAML file at path, overlays
// RADIUSAUTH_-prefixed environment variable overrides, and merges on top
// of DefaultConfig(). path may be empty, in which case only defaults and
// environment overrides apply.
//
// Environment variable mapping:
//
//	RADIUSAUTH_SECRET        -> secret
//	RADIUSAUTH_AUTH_METHOD   -> auth.method
//	RADIUSAUTH_AUTH_SUFFIX   -> auth.suffix
//	RADIUSAUTH_AUTH_TIMEOUT  -> auth.timeout
//	RADIUSAUTH_LOG_LEVEL     -> log.level
//
// The server list is only ever read from the YAML file's "servers" array;
// there is no environment mapping for it.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	defaults := DefaultConfig()
	if err := loadDefaults(k, defaults); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKeyMapper), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// envKeyMapper transforms RADIUSAUTH_AUTH_METHOD -> auth.method. Strips
// the RADIUSAUTH_ prefix, lowercases, and replaces _ with .
func envKeyMapper(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "_", ".")
}

func loadDefaults(k *koanf.Koanf, defaults *Config) error {
	defaultMap := map[string]any{
		"auth.method":  defaults.Auth.Method,
		"auth.timeout": defaults.Auth.Timeout.String(),
		"log.level":    defaults.Log.Level,
	}
	for key, val := range defaultMap {
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("set default %s: %w", key, err)
		}
	}
	// servers has no scalar default beyond the struct literal above;
	// koanf only needs scalar leaves seeded here, and an empty YAML file
	// falls back to DefaultConfig's single localhost entry via Unmarshal's
	// zero-value behavior only when "servers" is never set at all, so
	// defaultconfig's server is also written out explicitly below.
	if err := k.Set("servers", []map[string]any{
		{"addr": defaults.Servers[0].Addr, "auth_port": defaults.Servers[0].AuthPort, "acct_port": defaults.Servers[0].AcctPort},
	}); err != nil {
		return fmt.Errorf("set default servers: %w", err)
	}
	return nil
}

// Validation errors.
var (
	// ErrEmptySecret indicates the shared secret is empty.
	ErrEmptySecret = errors.New("secret must not be empty")

	// ErrNoServers indicates the server list is empty.
	ErrNoServers = errors.New("servers must not be empty")

	// ErrEmptyServerAddr indicates a server entry has no address.
	ErrEmptyServerAddr = errors.New("server addr must not be empty")

	// ErrInvalidMethod indicates auth.method is not one of the supported
	// values.
	ErrInvalidMethod = errors.New("auth.method must be one of pap, chap-md5, mschapv1, eap-mschapv2")

	// ErrInvalidTimeout indicates auth.timeout is not positive.
	ErrInvalidTimeout = errors.New("auth.timeout must be > 0")
)

var validMethods = map[string]bool{
	"pap":          true,
	"chap-md5":     true,
	"mschapv1":     true,
	"eap-mschapv2": true,
}

// Validate checks cfg for the constraints radiusauth relies on before
// dialing anything.
func Validate(cfg *Config) error {
	if cfg.Secret == "" {
		return ErrEmptySecret
	}
	if len(cfg.Servers) == 0 {
		return ErrNoServers
	}
	for _, s := range cfg.Servers {
		if s.Addr == "" {
			return ErrEmptyServerAddr
		}
	}
	if !validMethods[cfg.Auth.Method] {
		return ErrInvalidMethod
	}
	if cfg.Auth.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// Addrs returns the configured servers' addresses in order, for
// radius.NewServerList.
func (c *Config) Addrs() []string {
	addrs := make([]string, len(c.Servers))
	for i, s := range c.Servers {
		addrs[i] = s.Addr
	}
	return addrs
}

// AuthPort returns the first server's auth port, or the RADIUS default if
// unset. ServerList shares one port configuration across all servers.
func (c *Config) AuthPort() int {
	if len(c.Servers) > 0 && c.Servers[0].AuthPort != 0 {
		return c.Servers[0].AuthPort
	}
	return 1812
}

// AcctPort returns the first server's accounting port, or the RADIUS
// default if unset.
func (c *Config) AcctPort() int {
	if len(c.Servers) > 0 && c.Servers[0].AcctPort != 0 {
		return c.Servers[0].AcctPort
	}
	return 1813
}
