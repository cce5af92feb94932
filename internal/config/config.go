// Package config loads the adocbuild project configuration.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the project configuration file.
type Config struct {
	Project      string         `yaml:"project"`
	Engine       string         `yaml:"engine,omitempty"` // "auto", "exec", "fallback"
	Repositories []Repository   `yaml:"repositories,omitempty"`
	Jobs         []Job          `yaml:"jobs"`
	Resources    Resources      `yaml:"resources,omitempty"`
	Attributes   map[string]any `yaml:"attributes,omitempty"` // project-level overrides, applied last
}

// Repository is an artifact repository the resource locator can resolve
// bundle coordinates against.
type Repository struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"` // "http" or "git"
	URL  string `yaml:"url"`
}

// Job declares one render job.
type Job struct {
	Name      string `yaml:"name"`
	Backend   string `yaml:"backend,omitempty"`    // "html" (default) or "pdf"
	SourceDir string `yaml:"source_dir,omitempty"` // relative to project root
}

// Resources overrides the documentation resource bundle coordinate.
type Resources struct {
	Coordinate string `yaml:"coordinate,omitempty"`
}

// Load reads, expands and validates the configuration at configPath.
// Environment variables referenced in the file are expanded after an
// optional .env file is loaded.
func Load(configPath string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: .env file not found or couldn't be loaded: %v\n", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadEnvFile() error {
	if _, err := os.Stat(".env"); err != nil {
		return err
	}
	return godotenv.Load()
}

func (c *Config) applyDefaults() {
	if c.Engine == "" {
		c.Engine = "auto"
	}
	for i := range c.Jobs {
		if c.Jobs[i].Backend == "" {
			c.Jobs[i].Backend = "html"
		}
		if c.Jobs[i].SourceDir == "" {
			c.Jobs[i].SourceDir = "docs/asciidoc"
		}
	}
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Project == "" {
		return fmt.Errorf("project name is required")
	}
	if len(c.Jobs) == 0 {
		return fmt.Errorf("at least one render job is required")
	}
	seen := make(map[string]bool, len(c.Jobs))
	for _, j := range c.Jobs {
		if j.Name == "" {
			return fmt.Errorf("job name is required")
		}
		if seen[j.Name] {
			return fmt.Errorf("duplicate job name: %s", j.Name)
		}
		seen[j.Name] = true
		switch j.Backend {
		case "html", "pdf":
		default:
			return fmt.Errorf("job %s: unsupported backend %q", j.Name, j.Backend)
		}
	}
	for _, r := range c.Repositories {
		switch r.Kind {
		case "http", "git":
		default:
			return fmt.Errorf("repository %s: unsupported kind %q", r.Name, r.Kind)
		}
		if r.URL == "" {
			return fmt.Errorf("repository %s: url is required", r.Name)
		}
	}
	return nil
}
