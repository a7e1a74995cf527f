package log

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"os"
	"path/filepath"
	"testing"
)

func TestNewLogger_WritesJsonFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.log")
	previous := zap.L()
	defer zap.ReplaceGlobals(previous)

	require.NoError(t, NewLogger(path, true, zap.String("network", "testnet")))
	zap.L().With(zap.String("asset", "0xabc/1")).Debug("Marketplace: Listing created")
	_ = zap.L().Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"message":"Marketplace: Listing created"`)
	assert.Contains(t, string(b), `"asset":"0xabc/1"`)
	assert.Contains(t, string(b), `"network":"testnet"`)
}

func TestNewLogger_InfoLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.log")
	previous := zap.L()
	defer zap.ReplaceGlobals(previous)

	require.NoError(t, NewLogger(path, false))
	zap.L().Debug("hidden")
	zap.L().Info("shown")
	_ = zap.L().Sync()

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "hidden")
	assert.Contains(t, string(b), "shown")
}

func TestNewLogger_BadPath(t *testing.T) {
	err := NewLogger(filepath.Join(t.TempDir(), "missing", "marketplace.log"), false)

	assert.Error(t, err)
}
