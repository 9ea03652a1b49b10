// Package config loads diffscope configuration from TOML files and the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the application configuration.
type Config struct {
	General struct {
		Provider  string `koanf:"provider"`  // "gitlab" or "local"
		Separator string `koanf:"separator"` // line separator for text diff views
		LogLevel  string `koanf:"log_level"`
	} `koanf:"general"`

	GitLab struct {
		URL     string `koanf:"url"`
		Token   string `koanf:"token"`
		Project string `koanf:"project"`
	} `koanf:"gitlab"`

	Local struct {
		Dir string `koanf:"dir"`
	} `koanf:"local"`
}

// LoadConfig loads the configuration from a file, falling back to default
// locations, and overlays DIFFSCOPE_-prefixed environment variables.
func LoadConfig(configPath string) (*Config, error) {
	var k = koanf.New(".")

	k.Load(confmap.Provider(map[string]interface{}{
		"general.provider":  "local",
		"general.separator": "\n",
		"general.log_level": "info",
	}, "."), nil)

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("error loading config: %w", err)
		}
	} else {
		defaultPaths := []string{"./diffscope.toml", "$HOME/.diffscope.toml"}
		for _, path := range defaultPaths {
			path = os.ExpandEnv(path)
			if _, err := os.Stat(path); err == nil {
				if err := k.Load(file.Provider(path), toml.Parser()); err == nil {
					break
				}
			}
		}
	}

	k.Load(env.Provider("DIFFSCOPE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "DIFFSCOPE_")), "_", ".", -1)
	}), nil)

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &config, nil
}

// InitConfig initializes a new configuration file.
func InitConfig(configPath string) error {
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("configuration file already exists at %s", configPath)
	}

	sampleConfig := `# diffscope configuration

[general]
provider = "local"   # or "gitlab"
separator = "\n"
log_level = "info"

[gitlab]
url = "https://gitlab.example.com"
token = "your-gitlab-token"
project = "group/project"

[local]
dir = "."
`

	return os.WriteFile(configPath, []byte(sampleConfig), 0644)
}

// Validate validates the configuration.
func Validate(config *Config) error {
	switch config.General.Provider {
	case "local":
		// the local provider works with zero configuration
	case "gitlab":
		if config.GitLab.Token == "" {
			return fmt.Errorf("gitlab token is required")
		}
		if config.GitLab.Project == "" {
			return fmt.Errorf("gitlab project is required")
		}
	default:
		return fmt.Errorf("unknown provider %q", config.General.Provider)
	}
	return nil
}
