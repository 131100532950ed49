package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// A missing file is not an error: defaults apply with a warning.
func Load(explicitPath string) (Loaded, error) {
	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			warnings, verr := Validate(base)
			if verr != nil {
				return Loaded{}, verr
			}
			warnings = append([]Warning{{
				Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
			}}, warnings...)
			return Loaded{Path: resolvedPath, Config: base, Warnings: warnings}, nil
		}
		return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
	}

	cfg, warnings, err := Parse(content, base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}

	return Loaded{
		Path:     resolvedPath,
		Config:   cfg,
		Warnings: warnings,
		Exists:   true,
	}, nil
}

// Parse decodes YAML content over a base config and validates the result.
func Parse(content []byte, base Config) (Config, []Warning, error) {
	cfg := base
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, nil, fmt.Errorf("decode yaml: %w", err)
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}
