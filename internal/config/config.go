// Package config loads aishell configuration from flags, environment variables,
// .env files and an optional YAML config file.
// Priority (highest to lowest): flags > environment > local .env > config .env > config.yaml > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"aishell/pkg/shelltypes"
)

// Configuration keys shared by viper, cobra flags and the AISHELL_* environment.
const (
	KeyAuthType        = "auth-type"
	KeySilentAuth      = "silent-auth"
	KeySkillsDirs      = "skills-dirs"
	KeyCredentialsFile = "credentials-file"
	KeyLogLevel        = "log-level"
	KeyLogFile         = "log-file"
)

// EnvPrefix is the prefix of aishell-specific environment variables.
const EnvPrefix = "AISHELL"

// Project identifier environment variables, in lookup order.
const (
	EnvCloudProject   = "GOOGLE_CLOUD_PROJECT"
	EnvCloudProjectID = "GOOGLE_CLOUD_PROJECT_ID"
)

// Config is the resolved startup configuration.
type Config struct {
	AuthType        shelltypes.AuthType
	SilentAuth      bool
	SkillsDirs      []string
	CredentialsFile string
	LogLevel        string
	LogFile         string
	ConfigDir       string
}

// ProjectID resolves the cloud project identifier, checking GOOGLE_CLOUD_PROJECT
// and then GOOGLE_CLOUD_PROJECT_ID. The first non-empty value wins; an empty
// string means no project is configured.
func ProjectID(getenv func(string) string) string {
	if getenv == nil {
		getenv = os.Getenv
	}
	for _, key := range []string{EnvCloudProject, EnvCloudProjectID} {
		if value := strings.TrimSpace(getenv(key)); value != "" {
			return value
		}
	}
	return ""
}

// UserConfigDir returns $XDG_CONFIG_HOME/aishell, falling back to ~/.config/aishell.
func UserConfigDir() (string, error) {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configHome = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configHome, "aishell"), nil
}

// LoadDotEnv loads each existing .env file into the process environment.
// Variables already present in the environment are never overridden, and
// earlier files win over later ones. Missing files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, path := range paths {
		if path == "" {
			continue
		}
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load .env file %s: %w", path, err)
		}
	}
	return nil
}

// NewViper returns a viper instance with aishell defaults and environment binding.
func NewViper(configDir string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAuthType, "")
	v.SetDefault(KeySilentAuth, false)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeySkillsDirs, defaultSkillsDirs(configDir))
	v.SetDefault(KeyCredentialsFile, filepath.Join(configDir, "oauth_creds.json"))

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	return v
}

// Load reads the optional config file and resolves the final Config from v.
func Load(v *viper.Viper, configDir string) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	authType, err := shelltypes.ParseAuthType(v.GetString(KeyAuthType))
	if err != nil {
		return nil, err
	}

	return &Config{
		AuthType:        authType,
		SilentAuth:      v.GetBool(KeySilentAuth),
		SkillsDirs:      v.GetStringSlice(KeySkillsDirs),
		CredentialsFile: v.GetString(KeyCredentialsFile),
		LogLevel:        v.GetString(KeyLogLevel),
		LogFile:         v.GetString(KeyLogFile),
		ConfigDir:       configDir,
	}, nil
}

// defaultSkillsDirs lists the user skills directory followed by the project one.
func defaultSkillsDirs(configDir string) []string {
	return []string{
		filepath.Join(configDir, "skills"),
		filepath.Join(".aishell", "skills"),
	}
}
