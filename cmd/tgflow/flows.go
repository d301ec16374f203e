package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/tgflow/internal/config"
	"github.com/aretw0/tgflow/pkg/adapters/loam"
	"github.com/aretw0/tgflow/pkg/domain"
	"github.com/aretw0/tgflow/pkg/schema"
)

// loadSchema reads the configured flows: a YAML/JSON schema document or a
// directory of markdown dialogs.
func loadSchema(ctx context.Context, cfg *config.Config, reg *schema.Registry) (domain.Schema, error) {
	path := cfg.Flows.Path
	info, err := os.Stat(path)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("flows not found: %w", err)
	}

	if info.IsDir() {
		s, err := loam.Load(ctx, path, reg, loam.WithInclude(cfg.Flows.Include))
		if err != nil {
			return domain.Schema{}, fmt.Errorf("failed to load %s: %w", path, err)
		}
		return s, nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
	default:
		return domain.Schema{}, fmt.Errorf("unsupported schema file %s (expected .yaml, .yml or .json)", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return domain.Schema{}, err
	}
	defer f.Close()

	s, err := schema.Load(f, reg)
	if err != nil {
		return domain.Schema{}, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s, nil
}

// compileSchema loads and validates the flows.
func compileSchema(ctx context.Context, cfg *config.Config, reg *schema.Registry) (*schema.Compiled, error) {
	s, err := loadSchema(ctx, cfg, reg)
	if err != nil {
		return nil, err
	}
	return schema.Compile(s, true)
}
