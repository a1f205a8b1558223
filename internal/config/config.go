// Package config provides configuration loading and validation for controlgap.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshsymonds/controlgap/internal/dataset"
	"github.com/joshsymonds/controlgap/internal/report"
	"github.com/joshsymonds/controlgap/pkg/pathutil"
)

// Defaults used when a value is not configured.
const (
	DefaultProjectName  = "default"
	DefaultTitle        = "NIS2 / ISO 27001 Control Gap Analysis Report"
	DefaultDataDir      = "data"
	DefaultRequirements = "standards_requirements.csv"
	DefaultControls     = "implemented_controls.yaml"
	DefaultMapping      = "control_mapping.csv"
	DefaultOutputDir    = "output"
	// DefaultConfigFile is read when no configuration file is named and it exists.
	DefaultConfigFile = "controlgap.yaml"
)

// DefaultFormats are rendered when output.formats is not configured.
var DefaultFormats = []string{"markdown", "pdf", "csv"}

// Config represents the complete configuration for a gap analysis project.
type Config struct {
	Publish PublishConfig `yaml:"publish,omitempty"`
	Project ProjectConfig `yaml:"project"`
	Data    DataConfig    `yaml:"data"`
	Output  OutputConfig  `yaml:"output"`
}

// ProjectConfig identifies the project and titles its reports.
type ProjectConfig struct {
	Name  string `yaml:"name"`
	Title string `yaml:"title,omitempty"`
}

// DataConfig locates the input files. Relative file names resolve against Dir.
type DataConfig struct {
	Dir          string `yaml:"dir"`
	Requirements string `yaml:"requirements"`
	Controls     string `yaml:"controls"`
	Mapping      string `yaml:"mapping"`
}

// OutputConfig controls where runs and reports are written.
type OutputConfig struct {
	Dir     string   `yaml:"dir"`
	Formats []string `yaml:"formats"`
	// SanitizeCSV quotes spreadsheet formulas in the csv export.
	SanitizeCSV bool `yaml:"sanitize_csv,omitempty"`
}

// PublishConfig contains optional report publishing targets.
type PublishConfig struct {
	S3 *S3Config `yaml:"s3,omitempty"`
}

// S3Config configures uploading reports to an S3-compatible bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix,omitempty"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint,omitempty"` // For S3-compatible stores such as MinIO or LocalStack
	PathStyle bool   `yaml:"path_style,omitempty"`
}

// Default returns a configuration matching the conventional project layout.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{
			Name:  DefaultProjectName,
			Title: DefaultTitle,
		},
		Data: DataConfig{
			Dir:          DefaultDataDir,
			Requirements: DefaultRequirements,
			Controls:     DefaultControls,
			Mapping:      DefaultMapping,
		},
		Output: OutputConfig{
			Dir:     DefaultOutputDir,
			Formats: append([]string(nil), DefaultFormats...),
		},
	}
}

// LoadConfig reads and parses a YAML configuration file. Keys absent from the
// file keep their Default values.
func LoadConfig(path string) (*Config, error) {
	validPath, err := pathutil.ValidateConfigPath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	data, err := os.ReadFile(validPath) // #nosec G304 - path is validated
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Resolve loads the configuration at path. With an empty path it loads
// DefaultConfigFile when present and otherwise returns Default. The second
// result names the file that was read, or is empty for the defaults.
func Resolve(path string) (*Config, string, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err != nil {
			return Default(), "", nil
		}
		path = DefaultConfigFile
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Save writes the configuration as YAML, creating the parent directory.
func (c *Config) Save(path string) error {
	validPath, err := pathutil.ValidateConfigPath(path)
	if err != nil {
		return fmt.Errorf("invalid config path: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(validPath), 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(validPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate ensures the configuration is valid.
func (c *Config) Validate() error {
	if c.Project.Name == "" {
		return fmt.Errorf("project.name is required")
	}

	if c.Data.Requirements == "" {
		return fmt.Errorf("data.requirements is required")
	}
	if c.Data.Controls == "" {
		return fmt.Errorf("data.controls is required")
	}
	if c.Data.Mapping == "" {
		return fmt.Errorf("data.mapping is required")
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if len(c.Output.Formats) == 0 {
		return fmt.Errorf("output.formats must list at least one format")
	}
	seen := make(map[string]struct{}, len(c.Output.Formats))
	for _, name := range c.Output.Formats {
		if !report.IsRegistered(name) {
			return fmt.Errorf("output.formats: unknown format %q (available: %s)",
				name, strings.Join(report.ListFormats(), ", "))
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("output.formats: format %q listed twice", name)
		}
		seen[name] = struct{}{}
	}

	if s3 := c.Publish.S3; s3 != nil {
		if s3.Bucket == "" {
			return fmt.Errorf("publish.s3.bucket is required")
		}
		if s3.Region == "" {
			return fmt.Errorf("publish.s3.region is required")
		}
		if strings.HasPrefix(s3.Prefix, "/") {
			return fmt.Errorf("publish.s3.prefix must not start with '/'")
		}
	}

	return nil
}

// Title returns the report title, falling back to DefaultTitle.
func (c *Config) Title() string {
	if c.Project.Title == "" {
		return DefaultTitle
	}
	return c.Project.Title
}

// DatasetPaths resolves the input file locations for the loader.
func (c *Config) DatasetPaths() dataset.Paths {
	return dataset.Paths{
		Requirements: c.Data.resolve(c.Data.Requirements),
		Controls:     c.Data.resolve(c.Data.Controls),
		Mapping:      c.Data.resolve(c.Data.Mapping),
	}
}

func (d DataConfig) resolve(name string) string {
	if name == "" || filepath.IsAbs(name) || d.Dir == "" {
		return name
	}
	return filepath.Join(d.Dir, name)
}

// PublishEnabled reports whether any publishing target is configured.
func (c *Config) PublishEnabled() bool {
	return c.Publish.S3 != nil
}
