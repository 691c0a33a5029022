package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConsoleOnly(t *testing.T) {
	var buf bytes.Buffer
	closer, err := Init(Options{Verbose: true, Console: &buf})
	require.NoError(t, err)
	defer closer.Close()

	assert.Equal(t, zerolog.DebugLevel, zerolog.GlobalLevel())
	WithComponent("editor").Debug().Msg("split clip")
	assert.Contains(t, buf.String(), "split clip")
	assert.Contains(t, buf.String(), "editor")
}

func TestInitWithFileSink(t *testing.T) {
	var buf bytes.Buffer
	path := filepath.Join(t.TempDir(), "logs", "reelcut.log")
	closer, err := Init(Options{File: path, MaxSizeMB: 1, Console: &buf})
	require.NoError(t, err)

	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
	log.Info().Str("job_id", "abc").Msg("export started")
	log.Debug().Msg("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"job_id":"abc"`)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, buf.String(), "export started")
}

func TestNewLogger(t *testing.T) {
	var a, b bytes.Buffer
	logger := NewLogger(&a, &b)
	logger.Warn().Msg("both")
	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}
