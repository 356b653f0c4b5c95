package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// EnvTreeConfig controls how .env files are discovered
type EnvTreeConfig struct {
	// EnvFileName is the name of the env file to search for (default: ".env")
	EnvFileName string

	// StartDir is where the upward search begins (default: working directory)
	StartDir string

	// Silent suppresses all log output
	Silent bool
}

// DefaultEnvTreeConfig returns an EnvTreeConfig with sensible defaults
func DefaultEnvTreeConfig() *EnvTreeConfig {
	return &EnvTreeConfig{
		EnvFileName: ".env",
	}
}

// LoadEnvTree loads every env file found between the start directory and the
// filesystem root. Files closer to the start directory take precedence, and
// variables already present in the process environment are never overwritten.
func LoadEnvTree(cfg *EnvTreeConfig) ([]string, error) {
	if cfg == nil {
		cfg = DefaultEnvTreeConfig()
	}
	envFiles, err := EnvFilePaths(cfg)
	if err != nil {
		return nil, err
	}

	if len(envFiles) == 0 {
		if !cfg.Silent {
			log.Printf("No %s files found in current or parent directories", cfg.EnvFileName)
		}
		return nil, nil
	}

	// godotenv.Load keeps the first value seen, so nearest files win.
	if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("failed to load env files: %w", err)
	}
	if !cfg.Silent {
		log.Printf("Loaded %d environment file(s): %v", len(envFiles), envFiles)
	}
	return envFiles, nil
}

// EnvFilePaths returns the env files from the start directory up to the root, nearest first
func EnvFilePaths(cfg *EnvTreeConfig) ([]string, error) {
	name := cfg.EnvFileName
	if name == "" {
		name = ".env"
	}

	dir := cfg.StartDir
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = cwd
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	var envFiles []string
	for {
		envPath := filepath.Join(dir, name)
		if info, err := os.Stat(envPath); err == nil && !info.IsDir() {
			envFiles = append(envFiles, envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return envFiles, nil
}
