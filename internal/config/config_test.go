package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/docgraph/internal/flex"
	"github.com/roach88/docgraph/internal/store"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, flex.SHA256, cfg.Algorithm())
	assert.Equal(t, store.CompressionZstd, cfg.CompressionTag())
	assert.Equal(t, 64, cfg.MaxDepth)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
database: /tmp/graph.db
hash: blake3
compression: lz4
max_depth: 8
cache:
  ttl: 30s
  cleanup: 1m
certifiers: [alice, bob]
log_level: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/graph.db", cfg.Database)
	assert.Equal(t, flex.BLAKE3, cfg.Algorithm())
	assert.Equal(t, store.CompressionLZ4, cfg.CompressionTag())
	assert.Equal(t, 8, cfg.MaxDepth)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL)
	assert.Equal(t, time.Minute, cfg.Cache.Cleanup)
	assert.Equal(t, []string{"alice", "bob"}, cfg.Certifiers)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":     "databse: x.db\n",
		"bad hash":        "hash: md5\n",
		"bad compression": "compression: gzip\n",
		"negative depth":  "max_depth: -1\n",
		"bad certifier":   "certifiers: [\"has space\"]\n",
		"bad level":       "log_level: loud\n",
		"bad duration":    "cache:\n  ttl: soon\n",
		"empty database":  "database: \"\"\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseExpandsDatabasePath(t *testing.T) {
	t.Setenv("DOCGRAPH_TEST_DIR", "/var/lib/docgraph")
	cfg, err := Parse([]byte("database: ${DOCGRAPH_TEST_DIR}/graph.db\n"))
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/docgraph/graph.db", cfg.Database)
}

func TestResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_depth: 3\n"), 0o644))

	t.Setenv(EnvVar, "")
	cfg, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxDepth)

	t.Setenv(EnvVar, path)
	cfg, err = Resolve("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxDepth)

	_, err = Resolve(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
