package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_StderrOnly(t *testing.T) {
	t.Parallel()

	log, closeFn, err := New(false, "")
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zap.DebugLevel))
	closeFn()

	dev, closeDev, err := New(true, "")
	require.NoError(t, err)
	require.True(t, dev.Core().Enabled(zap.DebugLevel))
	closeDev()
}

func TestNew_FileSink(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "recipen.log")
	log, closeFn, err := New(false, path)
	require.NoError(t, err)

	log.Info("hello file", zap.String("k", "v"))
	log.Debug("filtered out")
	closeFn()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(raw)
	require.True(t, strings.Contains(s, `"msg":"hello file"`), s)
	require.True(t, strings.Contains(s, `"k":"v"`), s)
	require.False(t, strings.Contains(s, "filtered out"))
}
