// Package config handles engine configuration loading and management.
package config

// Config holds all engine settings read before the run loop boots.
type Config struct {
	Window    WindowConfig    `yaml:"window" toml:"window"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
	Audio     AudioConfig     `yaml:"audio" toml:"audio"`
	Console   ConsoleConfig   `yaml:"console" toml:"console"`
	Scripting ScriptingConfig `yaml:"scripting" toml:"scripting"`
	RCon      RConConfig      `yaml:"rcon" toml:"rcon"`
	Options   OptionsConfig   `yaml:"options" toml:"options"`
}

// WindowConfig holds display settings.
type WindowConfig struct {
	Title      string `yaml:"title" toml:"title"`
	Width      int    `yaml:"width" toml:"width"`
	Height     int    `yaml:"height" toml:"height"`
	Fullscreen bool   `yaml:"fullscreen" toml:"fullscreen"`
	VSync      bool   `yaml:"vsync" toml:"vsync"`
	FPSLimit   int    `yaml:"fps_limit" toml:"fps_limit"` // 0 = unlimited
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
}

// AudioConfig holds audio settings.
type AudioConfig struct {
	Enabled      bool    `yaml:"enabled" toml:"enabled"`
	MasterVolume float64 `yaml:"master_volume" toml:"master_volume"`
	Muted        bool    `yaml:"muted" toml:"muted"`
	// StartupSound is a WAV file played once audio is up. Empty plays nothing.
	StartupSound string `yaml:"startup_sound" toml:"startup_sound"`
}

// ConsoleConfig holds text console and command queue settings.
type ConsoleConfig struct {
	HistorySize    int    `yaml:"history_size" toml:"history_size"`
	ScrollbackSize int    `yaml:"scrollback_size" toml:"scrollback_size"`
	DrainStartup   bool   `yaml:"drain_startup" toml:"drain_startup"` // run all startup commands before the first frame
	ToggleKey      string `yaml:"toggle_key" toml:"toggle_key"`
}

// ScriptingConfig holds Lua autoexec settings.
type ScriptingConfig struct {
	Enabled bool   `yaml:"enabled" toml:"enabled"`
	Dir     string `yaml:"dir" toml:"dir"`
}

// RConConfig holds remote console settings.
type RConConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Addr      string `yaml:"addr" toml:"addr"`
	Path      string `yaml:"path" toml:"path"`
	QueueSize int    `yaml:"queue_size" toml:"queue_size"`
}

// OptionsConfig points at the persisted console variables.
type OptionsConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Title:      "Ingenium",
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
			FPSLimit:   0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
		Audio: AudioConfig{
			Enabled:      true,
			MasterVolume: 0.8,
			Muted:        false,
		},
		Console: ConsoleConfig{
			HistorySize:    64,
			ScrollbackSize: 256,
			DrainStartup:   false,
			ToggleKey:      "`",
		},
		Scripting: ScriptingConfig{
			Enabled: true,
			Dir:     "scripts",
		},
		RCon: RConConfig{
			Enabled:   false,
			Addr:      "127.0.0.1:27960",
			Path:      "/console",
			QueueSize: 64,
		},
		Options: OptionsConfig{
			Path: "options.yaml",
		},
	}
}
