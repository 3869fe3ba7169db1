package nativelog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriter_DailyFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	day := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return day }

	_, err = w.Write([]byte("one\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("two\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "stdout_2026-03-04.log"))
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestResolveDir(t *testing.T) {
	t.Setenv(EnvLogDir, "")
	assert.Equal(t, "custom", ResolveDir(" custom "))
	assert.Equal(t, filepath.Join(".", "logs"), ResolveDir(""))

	t.Setenv(EnvLogDir, "/var/log/pagecraft")
	assert.Equal(t, "/var/log/pagecraft", ResolveDir("custom"))
}

func TestNewZapLogger(t *testing.T) {
	t.Setenv(EnvLogDir, "")
	dir := t.TempDir()
	logger, err := NewZapLogger(dir, true)
	require.NoError(t, err)
	logger.Debug("hello from test")
	_ = logger.Sync()

	data, err := os.ReadFile(filepath.Join(dir, TodayFilename(time.Now())))
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello from test")
}
