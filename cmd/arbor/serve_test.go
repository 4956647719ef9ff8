package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantamhq/arbor/internal/config"
	"github.com/bantamhq/arbor/internal/store"
)

func newServerStore(t *testing.T) (*config.ServerConfig, *store.SQLiteStore) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "server.toml"), `
[storage]
data_dir = "`+filepath.Join(dir, "data")+`"
`)
	cfg, st, err := openServerStore(filepath.Join(dir, "server.toml"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return cfg, st
}

func TestServerVerifier_GeneratesTokenOnce(t *testing.T) {
	cfg, st := newServerStore(t)

	v, err := serverVerifier(cfg, st)
	require.NoError(t, err)
	require.NotNil(t, v)

	saved, err := os.ReadFile(filepath.Join(cfg.Storage.DataDir, tokenFile))
	require.NoError(t, err)
	token := strings.TrimSpace(string(saved))
	assert.NoError(t, v.Verify(token))

	hash, err := st.ServerTokenHash()
	require.NoError(t, err)
	assert.NotContains(t, hash, token)

	again, err := serverVerifier(cfg, st)
	require.NoError(t, err)
	assert.NoError(t, again.Verify(token), "restart keeps the stored token")
}

func TestServerVerifier_ConfiguredToken(t *testing.T) {
	cfg, st := newServerStore(t)
	cfg.Auth.Token = "arb_configured"

	v, err := serverVerifier(cfg, st)
	require.NoError(t, err)
	assert.NoError(t, v.Verify("arb_configured"))

	hash, err := st.ServerTokenHash()
	require.NoError(t, err)
	assert.Empty(t, hash)
}

func TestServerVerifier_AuthDisabled(t *testing.T) {
	cfg, st := newServerStore(t)
	cfg.Auth.Token = "none"

	v, err := serverVerifier(cfg, st)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestIssueToken_Rotates(t *testing.T) {
	cfg, st := newServerStore(t)

	first, err := issueToken(st, cfg.Storage.DataDir)
	require.NoError(t, err)
	second, err := issueToken(st, cfg.Storage.DataDir)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	hash, err := st.ServerTokenHash()
	require.NoError(t, err)
	assert.Equal(t, second, hash)
}
