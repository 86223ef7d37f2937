package nativelog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZapLoggerWritesFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, closeFn, err := NewZapLogger(Options{Dir: dir, RotateSizeMB: 1, RotateKeep: 1})
	require.NoError(t, err)

	logger.Info("blob stored")
	closeFn()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "blob stored")
}
