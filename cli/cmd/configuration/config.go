// Package configuration locates and loads the blobpull configuration file for a command.
package configuration

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	v1 "ocm.software/open-component-model/distribution/cli/configuration/v1"
)

const (
	ConfigDirectoryName   = "blobpull"
	ConfigFileName        = "config.yaml"
	ConfigEnvironmentKey  = "BLOBPULL_CONFIG"
	ConfigCommandArgument = "config"
)

func RegisterConfigFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().String(ConfigCommandArgument, "", `supply configuration by a given configuration file.
By default (without specifying custom locations with this flag), the files are read from the well known locations:
1. The path specified in the BLOBPULL_CONFIG environment variable
2. $XDG_CONFIG_HOME/blobpull/config.yaml
3. $HOME/.config/blobpull/config.yaml
All files found are merged, registries from files earlier in the list take precedence.
Using the option, this configuration file is used instead of the lookup above.`)
}

// GetConfigForCommand loads the configuration given by the config flag of cmd.
// Without the flag, all configuration files found in the well known locations are merged.
func GetConfigForCommand(cmd *cobra.Command) (*v1.Config, error) {
	if flag := cmd.Flag(ConfigCommandArgument); flag != nil && flag.Value.String() != "" {
		return GetConfigFromPath(flag.Value.String())
	}
	return GetConfig(), nil
}

// GetConfig merges the configuration files found by GetConfigPaths.
// Files that cannot be loaded are skipped. Without any file an empty configuration is returned.
func GetConfig() *v1.Config {
	paths := GetConfigPaths()
	cfgs := make([]*v1.Config, 0, len(paths))
	for _, path := range paths {
		cfg, err := GetConfigFromPath(path)
		if err != nil {
			slog.Error("config path was skipped due to an error loading it",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		slog.Debug("config was loaded successfully", slog.String("path", path))
		cfgs = append(cfgs, cfg)
	}
	// Merge lets later configurations win, the lookup order is by descending precedence.
	slices.Reverse(cfgs)
	return v1.Merge(cfgs...)
}

// GetConfigFromPath reads and decodes the configuration file at path.
func GetConfigFromPath(path string) (_ *v1.Config, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, file.Close())
	}()

	cfg, err := v1.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("loading config %q failed: %w", path, err)
	}
	return cfg, nil
}

// GetConfigPaths returns the existing configuration files in the following order:
//  1. the path in the BLOBPULL_CONFIG environment variable
//  2. $XDG_CONFIG_HOME/blobpull/config.yaml
//  3. $HOME/.config/blobpull/config.yaml
//
// Paths are deduplicated, so an XDG_CONFIG_HOME pointing at $HOME/.config is only read once.
func GetConfigPaths() []string {
	var candidates []string
	if env := os.Getenv(ConfigEnvironmentKey); env != "" {
		candidates = append(candidates, env)
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		candidates = append(candidates, filepath.Join(xdg, ConfigDirectoryName, ConfigFileName))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".config", ConfigDirectoryName, ConfigFileName))
	}

	var paths []string
	for _, path := range candidates {
		path = filepath.Clean(path)
		if slices.Contains(paths, path) {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		paths = append(paths, path)
	}
	return paths
}
