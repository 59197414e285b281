package config

import (
	"os"
	"strconv"
)

// Environment overrides. The command line is not parsed here: its
// arguments are startup commands handed to the command buffer.
const (
	EnvConfig     = "INGENIUM_CONFIG"
	EnvDebug      = "INGENIUM_DEBUG"
	EnvFullscreen = "INGENIUM_FULLSCREEN"
	EnvWidth      = "INGENIUM_WIDTH"
	EnvHeight     = "INGENIUM_HEIGHT"
	EnvLogFile    = "INGENIUM_LOG_FILE"
)

// ConfigPath returns the explicit config path from the environment, if any.
func ConfigPath() string {
	return os.Getenv(EnvConfig)
}

// applyEnv applies environment overrides to the config.
func applyEnv(cfg *Config) {
	if envBool(EnvDebug) {
		cfg.Logging.Level = "debug"
	}
	if v, ok := os.LookupEnv(EnvFullscreen); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Window.Fullscreen = b
		}
	}
	if n := envInt(EnvWidth); n > 0 {
		cfg.Window.Width = n
	}
	if n := envInt(EnvHeight); n > 0 {
		cfg.Window.Height = n
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Logging.LogFile = v
	}
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}
