package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	for _, k := range []string{"FORENSIC_POLICY", "FORENSIC_WORKERS", "FORENSIC_SEED", "FORENSIC_MAX_SIDE", "FORENSIC_MAX_PIXELS", "FORENSIC_EVAL_TIMEOUT", "FORENSIC_WATCH_POLICY", "FORENSIC_POLICY_FILE"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "balanced", cfg.Policy)
	require.Equal(t, uint64(1), cfg.Seed)
	require.Equal(t, 2048, cfg.MaxSide)
	require.Equal(t, int64(50_000_000), cfg.MaxPixels)
	require.Equal(t, 60*time.Second, cfg.EvalTimeout)
	require.GreaterOrEqual(t, cfg.Workers, 1)
	require.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORENSIC_POLICY", "strict")
	t.Setenv("FORENSIC_WORKERS", "3")
	t.Setenv("FORENSIC_SEED", "42")
	t.Setenv("FORENSIC_EVAL_TIMEOUT", "5s")
	t.Setenv("FORENSIC_MAX_PIXELS", "4000000")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "strict", cfg.Policy)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, uint64(42), cfg.Seed)
	require.Equal(t, 5*time.Second, cfg.EvalTimeout)
	require.Equal(t, int64(4_000_000), cfg.MaxPixels)
}

func TestLoad_BadNumbers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("FORENSIC_WORKERS", "many")
	t.Setenv("FORENSIC_EVAL_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "FORENSIC_WORKERS")
	require.Contains(t, err.Error(), "FORENSIC_EVAL_TIMEOUT")
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{Policy: "paranoid", Workers: 0, MaxSide: 10, MaxPixels: 10, EvalTimeout: 0, WatchPolicy: true}
	err := cfg.Validate()
	require.Error(t, err)
	for _, part := range []string{"unknown policy", "workers", "max side", "max pixels", "timeout", "FORENSIC_POLICY_FILE"} {
		require.Contains(t, err.Error(), part)
	}
}
