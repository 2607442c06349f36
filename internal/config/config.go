package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

var (
	configData Config
	v          *viper.Viper
)

// Config holds all configuration settings.
type Config struct {
	// Plugin configuration
	Plugins struct {
		Path string
	}
	// Environment template configuration
	Env struct {
		TemplatePath string
	}
	// Logging configuration
	Log struct {
		Level  string
		Format string
	}
}

// Initialize sets up the configuration system.
func Initialize() error {
	v = viper.New()

	// Set config name and paths
	v.SetConfigName("config")           // name of config file (without extension)
	v.SetConfigType("yaml")             // config file type
	v.AddConfigPath(".")                // optionally look for config in working directory
	v.AddConfigPath("$HOME/.agentlink") // look for config in .agentlink directory in home

	// Set default values
	setDefaults()

	// Environment variables
	v.SetEnvPrefix("AGENTLINK") // prefix for env vars
	v.AutomaticEnv()            // read in environment variables that match
	v.SetEnvKeyReplacer(        // replace dots with underscores in env vars
		strings.NewReplacer(".", "_"),
	)

	// Read in config file
	if err := v.ReadInConfig(); err != nil {
		// It's okay if we can't find a config file, we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal config into struct
	if err := v.Unmarshal(&configData); err != nil {
		return fmt.Errorf("unable to decode into config struct: %w", err)
	}

	return nil
}

// setDefaults sets default values for all configuration options.
func setDefaults() {
	// Plugin defaults
	v.SetDefault("plugins.path", "plugins")

	// Environment template defaults
	v.SetDefault("env.templatepath", ".env.template")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "human")
}

// Get returns the current configuration.
func Get() *Config {
	return &configData
}

// GetViper returns the viper instance.
func GetViper() *viper.Viper {
	return v
}
