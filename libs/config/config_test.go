package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedGetters(t *testing.T) {
	t.Setenv("CFG_INT", "42")
	t.Setenv("CFG_BAD_INT", "-3")
	t.Setenv("CFG_DURATION", "750ms")
	t.Setenv("CFG_SECONDS", "9")
	t.Setenv("CFG_BOOL", "true")

	assert.Equal(t, 42, Int("CFG_INT", 1))
	assert.Equal(t, 1, Int("CFG_BAD_INT", 1))
	assert.Equal(t, 7, Int("CFG_MISSING", 7))
	assert.Equal(t, 750*time.Millisecond, Duration("CFG_DURATION", time.Second))
	assert.Equal(t, 9*time.Second, Duration("CFG_SECONDS", time.Second))
	assert.True(t, Bool("CFG_BOOL", false))
	assert.False(t, Bool("CFG_MISSING", false))
}

func TestPortValidation(t *testing.T) {
	t.Setenv("CFG_PORT", "70000")
	_, err := Port("CFG_PORT", "8080")
	require.Error(t, err)

	p, err := Port("CFG_PORT_MISSING", "8083")
	require.NoError(t, err)
	assert.Equal(t, "8083", p)
}

func TestMinutesList(t *testing.T) {
	offsets, rejected := MinutesList("1440, 60,abc,0,")
	assert.Equal(t, []time.Duration{24 * time.Hour, time.Hour}, offsets)
	assert.Equal(t, []string{"abc", "0"}, rejected)
}

func TestLoadDotEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CFG_DOTENV_NEW=from-file\nCFG_DOTENV_SET=from-file\n"), 0o600))

	t.Setenv("CFG_DOTENV_SET", "from-env")
	t.Cleanup(func() { _ = os.Unsetenv("CFG_DOTENV_NEW") })

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("CFG_DOTENV_NEW"))
	assert.Equal(t, "from-env", os.Getenv("CFG_DOTENV_SET"))
}
