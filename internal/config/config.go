// Package config assembles runtime configuration from environment variables,
// CLI flags, and the optional child-provider manifest file.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultWorkspaceRoot is the fixed workspace path used when no Execution-Id
// header is present on a request.
const DefaultWorkspaceRoot = "/app/workspace"

// ChildServerConfig is one entry of the child-provider manifest: a short name
// mapped to a launch spec.
type ChildServerConfig struct {
	Command string            `json:"command"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
}

// childManifest is the on-disk shape of the manifest file.
type childManifest struct {
	Servers map[string]ChildServerConfig `json:"servers"`
}

// Config holds all of toolgated's runtime configuration.
type Config struct {
	Port  int
	Token string

	// AllowedTools gates which native tools get registered. Nil means
	// "register all".
	AllowedTools map[string]bool

	// ChildServers is the parsed child-provider manifest, keyed by name.
	// Nil/empty means the aggregator has nothing to spawn.
	ChildServers map[string]ChildServerConfig

	// DefaultInactivityTimeout is used by execute_command when the caller
	// omits inactivityTimeout.
	DefaultInactivityTimeout int

	// FileIgnoreDefaults is the default ignore-glob set unioned with
	// caller-supplied globs for file_ls.
	FileIgnoreDefaults []string

	// LogLevel and LogFormat configure internal/logging.
	LogLevel  string
	LogFormat string
}

var defaultFileIgnores = []string{
	".git/**",
	"node_modules/**",
	"dist/**",
	"build/**",
	"target/**",
	"vendor/**",
	".DS_Store",
	"*.swp",
	"*.swo",
	"__pycache__/**",
	"*.pyc",
}

// Load builds a Config from environment variables, applying CLI flag
// overrides where non-zero values were supplied.
func Load(flagPort int, flagToken string, flagInactivityTimeout int) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TOOLGATE")
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("DEFAULT_INACTIVITY_TIMEOUT", 20)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "")

	cfg := &Config{
		Port:                     v.GetInt("PORT"),
		Token:                    v.GetString("TOKEN"),
		DefaultInactivityTimeout: v.GetInt("DEFAULT_INACTIVITY_TIMEOUT"),
		FileIgnoreDefaults:       defaultFileIgnores,
		LogLevel:                 v.GetString("LOG_LEVEL"),
		LogFormat:                v.GetString("LOG_FORMAT"),
	}

	if flagPort != 0 {
		cfg.Port = flagPort
	}
	if flagToken != "" {
		cfg.Token = flagToken
	}
	if flagInactivityTimeout != 0 {
		cfg.DefaultInactivityTimeout = flagInactivityTimeout
	}

	if cfg.Token == "" {
		token, err := generateToken()
		if err != nil {
			return nil, fmt.Errorf("generating token: %w", err)
		}
		cfg.Token = token
	}

	if allowed := os.Getenv("ALLOWED_TOOLS"); allowed != "" {
		cfg.AllowedTools = map[string]bool{}
		for _, name := range strings.Split(allowed, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				cfg.AllowedTools[name] = true
			}
		}
	}

	manifestPath := os.Getenv("TOOLGATE_MCP_SERVERS_FILE")
	if manifestPath == "" {
		manifestPath = "/app/mcp-servers.json"
	}
	servers, err := loadChildManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	cfg.ChildServers = servers

	return cfg, nil
}

// loadChildManifest reads the optional child-provider manifest. A missing
// file is not an error; the aggregator is simply empty.
func loadChildManifest(path string) (map[string]ChildServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading child manifest %s: %w", path, err)
	}
	var m childManifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing child manifest %s: %w", path, err)
	}
	return m.Servers, nil
}

// IsToolAllowed reports whether a native tool name should be registered.
func (c *Config) IsToolAllowed(name string) bool {
	if c.AllowedTools == nil {
		return true
	}
	return c.AllowedTools[name]
}

func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
