package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesCanonicalUpstreams(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1:53", cfg.Listen)
	assert.Equal(t, "cb-security", cfg.DefaultUDP)
	assert.Equal(t, "cb-family", cfg.DefaultDoH)
	assert.Equal(t, "185.228.168.9", cfg.Upstreams["cb-security"].UDPIP)
	assert.Equal(t, "https://doh.cleanbrowsing.org/doh/family-filter", cfg.Upstreams["cb-family"].DoHURL)
	assert.Equal(t, []string{"lego.com"}, cfg.Lists.Block)
	assert.Equal(t, []string{"reddit.com"}, cfg.Lists.Allow)
}

func TestLoadOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "listen: \"0.0.0.0:5353\"\nblock_list:\n  - evil.test\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5353", cfg.Listen)
	assert.Equal(t, []string{"evil.test"}, cfg.Lists.Block)
	// untouched fields keep their default
	assert.Equal(t, "cb-security", cfg.DefaultUDP)
}

func TestLoadOverlaysSinkhole(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "sinkhole:\n  ipv4: \"10.0.0.1\"\n  ttl: 30\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, [4]byte{10, 0, 0, 1}, cfg.Sinkhole.IPv4)
	assert.Equal(t, uint32(30), cfg.Sinkhole.TTL)
}

func TestLoadRejectsInvalidSinkholeIPv4(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "sinkhole:\n  ipv4: \"not-an-ip\"\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadMissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/path.yaml")
	assert.Error(t, err)
}
