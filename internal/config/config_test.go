package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 25, cfg.DB.MaxOpenConns)
	assert.Equal(t, "PIS_COFINS_ANUAL", cfg.AnexoC.PivotSheetName)

	s := cfg.Settings()
	assert.Equal(t, 0.0065, s.PISRate)
	assert.Equal(t, 0.04, s.COFINSRate)
	assert.Equal(t, "(02) Exclusão", s.ExclusionLabel)
}

func TestLoadFromEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ANEXO_C_TAXA_PIS=0.0165\nMAX_WORKERS=3\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("ANEXO_C_TAXA_PIS")
		os.Unsetenv("MAX_WORKERS")
	})

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 0.0165, cfg.Settings().PISRate)
	assert.Equal(t, 3, cfg.Workers())
}

func TestLoadRejectsBadIdleTime(t *testing.T) {
	t.Setenv("DB_MAX_IDLE_TIME", "soon")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestDefaultWorkers(t *testing.T) {
	assert.Equal(t, 2, DefaultWorkers(1))
	assert.Equal(t, 3, DefaultWorkers(4))
	assert.Equal(t, 8, DefaultWorkers(32))
}
