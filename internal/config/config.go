package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// CostModelVariant selects the cost model the search engine uses.
type CostModelVariant string

const (
	// CostModelDefault is the statistics-driven cost model.
	CostModelDefault CostModelVariant = "default"
	// CostModelTrivial charges a flat cost per operator. Used by plan-shape
	// tests that must not depend on statistics.
	CostModelTrivial CostModelVariant = "trivial"
)

// OptimizerConfig represents the settings recognized by the optimizer entry
// point.
type OptimizerConfig struct {
	// ParallelExecution only annotates physical plan nodes; the optimizer
	// itself stays single-threaded per query.
	ParallelExecution bool `json:"parallel_execution"`

	// EnableIndexScan gates the Get -> IndexScan implementation rule.
	EnableIndexScan bool `json:"enable_index_scan"`

	// JoinOrderThreshold is the maximum number of relations before
	// join-order enumeration short-circuits to the bound logical order.
	JoinOrderThreshold int `json:"join_order_threshold"`

	// CostModel selects the cost model variant.
	CostModel CostModelVariant `json:"cost_model_variant"`
}

// DefaultConfig returns the standard optimizer settings.
func DefaultConfig() *OptimizerConfig {
	return &OptimizerConfig{
		ParallelExecution:  false,
		EnableIndexScan:    true,
		JoinOrderThreshold: 10,
		CostModel:          CostModelDefault,
	}
}

// LoadFromFile loads optimizer settings from a JSON file, applying defaults
// for missing fields.
func LoadFromFile(path string) (*OptimizerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *OptimizerConfig) Validate() error {
	if c.JoinOrderThreshold < 1 {
		return fmt.Errorf("join_order_threshold must be at least 1, got %d", c.JoinOrderThreshold)
	}
	switch c.CostModel {
	case CostModelDefault, CostModelTrivial:
	case "":
		c.CostModel = CostModelDefault
	default:
		return fmt.Errorf("unknown cost_model_variant %q", c.CostModel)
	}
	return nil
}
