package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"ndb-probe/validate"
)

const (
	AppName = "ndb-probe"

	// Environment variable names consumed by the server under test.
	EnvBaseURL   = "NDB_BASE_URL"
	EnvUsername  = "NDB_USERNAME"
	EnvPassword  = "NDB_PASSWORD"
	EnvVerifySSL = "NDB_VERIFY_SSL"
)

// Config is the complete harness configuration, built once at startup and
// threaded through components. Nothing here mutates the process environment.
type Config struct {
	// Server credentials, resolved from the environment and the env file.
	BaseURL   string `yaml:"-"`
	Username  string `yaml:"-"`
	Password  string `yaml:"-"`
	VerifySSL string `yaml:"-"`

	// Harness settings from the yaml config file.
	ServerCommand  []string `yaml:"server_command"`
	ServerArtifact string   `yaml:"server_artifact"`
	ConnectCommand []string `yaml:"connect_command"`
	EnvFile        string   `yaml:"env_file"`
	DatabasePath   string   `yaml:"database_path"`
	ListTool       string   `yaml:"list_tool"`
	CallTool       string   `yaml:"call_tool"`
}

func defaults() *Config {
	return &Config{
		VerifySSL:      "true",
		ServerCommand:  []string{"node", "dist/index.js"},
		ServerArtifact: "dist/index.js",
		ConnectCommand: []string{"node", "scripts/test-connection.js"},
		EnvFile:        ".env",
		ListTool:       "ndb_list_databases",
		CallTool:       "ndb_list_clusters",
	}
}

// Load builds the configuration: defaults, then the yaml config file, then
// the env file, then the real environment. An env-file value never overrides
// a variable already set in the real environment.
func Load(customPath string) (*Config, error) {
	cfg := defaults()

	configPath, err := resolveConfigPath(customPath)
	if err != nil {
		return nil, err
	}

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err == nil { // File exists and is readable
			// Expand env vars before unmarshalling
			expandedFile := os.ExpandEnv(string(file))
			if err := yaml.Unmarshal([]byte(expandedFile), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	fileVars, err := ParseEnvFile(cfg.EnvFile)
	if err != nil {
		return nil, err
	}

	cfg.BaseURL = resolveVar(EnvBaseURL, fileVars)
	cfg.Username = resolveVar(EnvUsername, fileVars)
	cfg.Password = resolveVar(EnvPassword, fileVars)
	if v := resolveVar(EnvVerifySSL, fileVars); v != "" {
		cfg.VerifySSL = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// resolveVar prefers the real environment over the env file.
func resolveVar(name string, fileVars map[string]string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fileVars[name]
}

// Validate checks required variables and tool names. A failure here must
// abort the front end before any process is spawned.
func (c *Config) Validate() error {
	var missing []string
	for _, v := range []struct {
		name  string
		value string
	}{
		{EnvBaseURL, c.BaseURL},
		{EnvUsername, c.Username},
		{EnvPassword, c.Password},
	} {
		if v.value == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if len(c.ServerCommand) == 0 {
		return fmt.Errorf("server_command must not be empty")
	}
	if err := validate.ValidateToolName(c.ListTool); err != nil {
		return fmt.Errorf("list_tool: %w", err)
	}
	if err := validate.ValidateToolName(c.CallTool); err != nil {
		return fmt.Errorf("call_tool: %w", err)
	}
	return nil
}

// ServerEnv returns the environment overrides passed to the server process.
func (c *Config) ServerEnv() map[string]string {
	return map[string]string{
		EnvBaseURL:   c.BaseURL,
		EnvUsername:  c.Username,
		EnvPassword:  c.Password,
		EnvVerifySSL: c.VerifySSL,
	}
}

// MaskedPassword renders the password for display without revealing it.
func (c *Config) MaskedPassword() string {
	return strings.Repeat("*", len([]rune(c.Password)))
}

func resolveConfigPath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not get user home directory: %w", err)
	}
	return filepath.Join(home, ".config", AppName, "config.yaml"), nil
}
