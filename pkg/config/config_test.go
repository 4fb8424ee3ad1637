package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Point the default config dir at an empty location so host
	// configuration cannot leak into the test.
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "INFO", cfg.Logging.Level)
	assert.Equal(t, ":7464", cfg.Server.Listen)
	assert.Equal(t, 512, cfg.Server.MaxPacketSize)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "memory", cfg.Filesystem.Type)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
logging:
  level: debug
server:
  listen: "127.0.0.1:9000"
  max_packet_size: 1024
filesystem:
  type: local
  local:
    root: /tmp/mcufs-test
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Listen)
	assert.Equal(t, 1024, cfg.Server.MaxPacketSize)
	assert.Equal(t, "local", cfg.Filesystem.Type)
	assert.Equal(t, "/tmp/mcufs-test", cfg.Filesystem.Local["root"])
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"UnknownBackend", func(c *Config) { c.Filesystem.Type = "floppy" }},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "LOUD" }},
		{"PacketTooSmall", func(c *Config) { c.Server.MaxPacketSize = 4 }},
		{"PacketTooLarge", func(c *Config) { c.Server.MaxPacketSize = 1 << 20 }},
		{"EmptyListen", func(c *Config) { c.Server.Listen = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cfg Config
			ApplyDefaults(&cfg)
			tt.mutate(&cfg)
			assert.Error(t, Validate(&cfg))
		})
	}
}

func TestDumpRendersLoadableShape(t *testing.T) {
	var cfg Config
	ApplyDefaults(&cfg)

	out, err := Dump(&cfg)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "logging:")
	assert.Contains(t, s, "level: INFO")
	assert.Contains(t, s, "max_packet_size: 512")
	assert.Contains(t, s, "type: memory")
}

func TestApplyDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{
		Server: ServerConfig{MaxPacketSize: 256},
	}
	ApplyDefaults(&cfg)

	assert.Equal(t, 256, cfg.Server.MaxPacketSize)
	assert.Equal(t, ":7464", cfg.Server.Listen)
}
