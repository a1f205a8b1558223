// Package cli holds helpers shared by the controlgap commands.
package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joshsymonds/controlgap/internal/config"
	"github.com/joshsymonds/controlgap/pkg/logger"
)

// ConfigFlag is the persistent flag naming the configuration file.
const ConfigFlag = "config"

// LoadConfig resolves the configuration named by the --config flag, falling
// back to config.DefaultConfigFile and then to the built-in defaults.
func LoadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := ""
	if f := cmd.Flag(ConfigFlag); f != nil {
		path = f.Value.String()
	}

	cfg, used, err := config.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if used == "" {
		logger.Debug("No configuration file found, using defaults")
	} else {
		logger.Debug("Loaded configuration", "file", used)
	}
	return cfg, nil
}

// ParseFormats splits a comma-separated --format value. Empty entries are dropped.
func ParseFormats(value string) []string {
	var formats []string
	for _, f := range strings.Split(value, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}
