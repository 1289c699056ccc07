// Package config resolves the exporter settings from defaults, an optional
// YAML file, a .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/foomo/confluence-export/confluence"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

const (
	DefaultOutputDir   = "./confluence_export"
	DefaultConcurrency = 1
	MaxConcurrency     = 32
)

type Atlassian struct {
	SiteName  string `yaml:"siteName"`
	BaseURL   string `yaml:"baseURL"`
	UserEmail string `yaml:"userEmail"`
	APIToken  string `yaml:"apiToken"`
}

type Config struct {
	Atlassian   Atlassian `yaml:"atlassian"`
	OutputDir   string    `yaml:"outputDir"`
	Concurrency int       `yaml:"concurrency"`
	Debug       bool      `yaml:"debug"`
}

func Default() *Config {
	return &Config{
		OutputDir:   DefaultOutputDir,
		Concurrency: DefaultConcurrency,
	}
}

// Path returns the config file to read when none is given explicitly.
func Path() string {
	if path := os.Getenv("CONFLUENCE_EXPORT_CONFIG"); path != "" {
		return path
	}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "confluence-export", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "confluence-export", "config.yaml")
}

// Load builds the configuration. An explicit path must exist; the default
// location is optional.
func Load(path string) (*Config, error) {
	c := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
	}
	if path != "" {
		if err := c.readFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
	setString("ATLASSIAN_SITE_NAME", &c.Atlassian.SiteName)
	setString("ATLASSIAN_BASE_URL", &c.Atlassian.BaseURL)
	setString("ATLASSIAN_USER_EMAIL", &c.Atlassian.UserEmail)
	setString("ATLASSIAN_API_TOKEN", &c.Atlassian.APIToken)
	setString("CONFLUENCE_EXPORT_OUTPUT_DIR", &c.OutputDir)

	if v := os.Getenv("CONFLUENCE_EXPORT_CONCURRENCY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("failed to parse CONFLUENCE_EXPORT_CONCURRENCY %q: %w", v, err)
		}
		c.Concurrency = n
	}
	if v := os.Getenv("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(strings.TrimSpace(v))
		c.Debug = err == nil && debug
	}
	return nil
}

// Validate checks the values that are set. Missing credentials are not an
// error here; the client reports them on first use.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Atlassian),
		validation.Field(&c.OutputDir, validation.Required),
		validation.Field(&c.Concurrency, validation.Required, validation.Min(1), validation.Max(MaxConcurrency)),
	)
}

func (a Atlassian) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.UserEmail, is.EmailFormat),
		validation.Field(&a.BaseURL, is.URL),
		validation.Field(&a.SiteName, is.Subdomain),
	)
}

// Credentials returns the Atlassian credentials; ok is false when any of
// them is missing.
func (c *Config) Credentials() (confluence.Credentials, bool) {
	credentials := confluence.Credentials{
		SiteName: c.Atlassian.SiteName,
		BaseURL:  c.Atlassian.BaseURL,
		Email:    c.Atlassian.UserEmail,
		APIToken: c.Atlassian.APIToken,
	}
	return credentials, credentials.Complete()
}
