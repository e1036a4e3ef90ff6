package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.False(t, cfg.ParallelExecution)
	assert.True(t, cfg.EnableIndexScan)
	assert.Equal(t, 10, cfg.JoinOrderThreshold)
	assert.Equal(t, CostModelDefault, cfg.CostModel)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.JoinOrderThreshold = 0
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CostModel = "bogus"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.CostModel = ""
	require.NoError(t, cfg.Validate())
	assert.Equal(t, CostModelDefault, cfg.CostModel)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "optimizer.json")
	payload := `{"parallel_execution": true, "enable_index_scan": false, "join_order_threshold": 4, "cost_model_variant": "trivial"}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.True(t, cfg.ParallelExecution)
	assert.False(t, cfg.EnableIndexScan)
	assert.Equal(t, 4, cfg.JoinOrderThreshold)
	assert.Equal(t, CostModelTrivial, cfg.CostModel)

	_, err = LoadFromFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"join_order_threshold": -1}`), 0o644))
	_, err = LoadFromFile(bad)
	assert.Error(t, err)
}
