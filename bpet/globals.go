package internal

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

var (
	// DefaultConfigPath is the default path to the config file
	DefaultAppName          = "bpet"
	DefaultConfigPath       = filepath.Join(getHomeDir(), ".config", DefaultAppName)
	DefaultModelDir         = filepath.Join(DefaultConfigPath, "models")
	DefaultModelFile        = filepath.Join(DefaultModelDir, "model.json")
	DefaultStorePath        = filepath.Join(DefaultConfigPath, "models.db")
	DefaultGlobalConfigFile = filepath.Join(DefaultConfigPath, "config.yaml")
	DefaultIgnoreFile       = "." + DefaultAppName + "ignore"

	// Default store settings
	DefaultStoreDSN = "file:" + DefaultStorePath

	// Default training settings
	DefaultVocabSize = 50
	DefaultLogEvery  = 100
)

func getHomeDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		cwd, cwdErr := os.Getwd()
		if cwdErr != nil {
			log.Printf("Unable to get home or working directory, using /tmp: %v", err)
			return "/tmp"
		}
		log.Printf("Unable to get home directory, using current working directory: %v", err)
		return cwd
	}
	return homeDir
}

// GetLogger returns a properly configured zerolog logger instance
func GetLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// NewLogger returns a stderr logger filtered at the given level name.
// Unknown or empty level names fall back to info.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return GetLogger().Level(lvl)
}
