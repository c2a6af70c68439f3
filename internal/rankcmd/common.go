// Package rankcmd implements the ranking subcommands.
package rankcmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/lehigh-university-libraries/marcrank/internal/config"
	"github.com/lehigh-university-libraries/marcrank/internal/rank"
)

// ConfigEnv names the environment variable holding the default configuration path
const ConfigEnv = "MARCRANK_CONFIG"

// resolveConfigPath falls back to MARCRANK_CONFIG when no --config was given
func resolveConfigPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(ConfigEnv); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("--config is required (or set %s)", ConfigEnv)
}

// LoadRanker loads the configuration at configPath, or $MARCRANK_CONFIG when
// configPath is empty, and resolves it against the built-in registry. It
// returns the path actually used.
func LoadRanker(configPath string) (*rank.Ranker, string, error) {
	path, err := resolveConfigPath(configPath)
	if err != nil {
		return nil, "", err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}

	ranker, err := rank.New(cfg, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to resolve configuration %s: %w", path, err)
	}

	slog.Debug("Loaded ranking configuration", "path", path, "features", ranker.Len())
	return ranker, path, nil
}
