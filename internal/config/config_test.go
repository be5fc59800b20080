package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Secret = "testing123"
	require.NoError(t, Validate(cfg))
}

func TestLoadDefaultsOnly(t *testing.T) {
	t.Setenv("RADIUSAUTH_SECRET", "s3cr3t")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "s3cr3t", cfg.Secret)
	assert.Equal(t, "pap", cfg.Auth.Method)
	assert.Equal(t, 5*time.Second, cfg.Auth.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	require.Len(t, cfg.Servers, 1)
	assert.Equal(t, "127.0.0.1", cfg.Servers[0].Addr)
	assert.Equal(t, 1812, cfg.Servers[0].AuthPort)
}

func TestLoadFromFileWithEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "radiusauth.yaml")
	yamlContent := `
secret: filesecret
servers:
  - addr: radius1.example.com
    auth_port: 11812
  - addr: radius2.example.com
auth:
  method: eap-mschapv2
  suffix: "@example.com"
`
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o600))

	t.Setenv("RADIUSAUTH_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "filesecret", cfg.Secret)
	assert.Equal(t, "eap-mschapv2", cfg.Auth.Method)
	assert.Equal(t, "@example.com", cfg.Auth.Suffix)
	assert.Equal(t, "debug", cfg.Log.Level)
	require.Len(t, cfg.Servers, 2)
	assert.Equal(t, "radius1.example.com", cfg.Servers[0].Addr)
	assert.Equal(t, 11812, cfg.Servers[0].AuthPort)
	assert.Equal(t, "radius2.example.com", cfg.Servers[1].Addr)
}

func TestLoadEnvOverridesSecretAndMethod(t *testing.T) {
	t.Setenv("RADIUSAUTH_SECRET", "envsecret")
	t.Setenv("RADIUSAUTH_AUTH_METHOD", "chap-md5")
	t.Setenv("RADIUSAUTH_AUTH_TIMEOUT", "15s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "envsecret", cfg.Secret)
	assert.Equal(t, "chap-md5", cfg.Auth.Method)
	assert.Equal(t, 15*time.Second, cfg.Auth.Timeout)
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty secret",
			mutate:  func(c *Config) { c.Secret = "" },
			wantErr: ErrEmptySecret,
		},
		{
			name:    "no servers",
			mutate:  func(c *Config) { c.Secret = "x"; c.Servers = nil },
			wantErr: ErrNoServers,
		},
		{
			name: "empty server addr",
			mutate: func(c *Config) {
				c.Secret = "x"
				c.Servers = []ServerConfig{{Addr: ""}}
			},
			wantErr: ErrEmptyServerAddr,
		},
		{
			name: "invalid method",
			mutate: func(c *Config) {
				c.Secret = "x"
				c.Auth.Method = "bogus"
			},
			wantErr: ErrInvalidMethod,
		},
		{
			name: "invalid timeout",
			mutate: func(c *Config) {
				c.Secret = "x"
				c.Auth.Timeout = 0
			},
			wantErr: ErrInvalidTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAddrsAndPorts(t *testing.T) {
	cfg := &Config{
		Servers: []ServerConfig{
			{Addr: "a", AuthPort: 1111, AcctPort: 2222},
			{Addr: "b"},
		},
	}
	assert.Equal(t, []string{"a", "b"}, cfg.Addrs())
	assert.Equal(t, 1111, cfg.AuthPort())
	assert.Equal(t, 2222, cfg.AcctPort())

	empty := &Config{}
	assert.Equal(t, 1812, empty.AuthPort())
	assert.Equal(t, 1813, empty.AcctPort())
}
