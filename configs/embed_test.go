package configs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/ragcore/internal/config"
)

func TestProjectConfigTemplate_MatchesDefaults(t *testing.T) {
	// Given: the embedded template written to disk
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(ProjectConfigTemplate), 0o644))

	// When: loading it
	cfg, err := config.LoadFile(path)

	// Then: it matches the built-in defaults
	require.NoError(t, err)
	assert.Equal(t, config.NewConfig(), cfg)
}
