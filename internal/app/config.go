// Package app provides configuration management for the goinvaders emulator.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"goinvaders/internal/bus"
	"goinvaders/internal/graphics"
	"goinvaders/internal/input"
)

// Config holds all application configuration
type Config struct {
	Window    WindowConfig    `json:"window"`
	Video     VideoConfig     `json:"video"`
	Audio     AudioConfig     `json:"audio"`
	Input     InputConfig     `json:"input"`
	Emulation EmulationConfig `json:"emulation"`
	Debug     DebugConfig     `json:"debug"`
	Paths     PathsConfig     `json:"paths"`

	// Internal state
	configPath string
	loaded     bool
}

// WindowConfig contains window-related configuration
type WindowConfig struct {
	Width      int  `json:"width"`
	Height     int  `json:"height"`
	Fullscreen bool `json:"fullscreen"`
	Scale      int  `json:"scale"` // multiplier of the 224x256 screen
}

// VideoConfig contains video rendering configuration
type VideoConfig struct {
	VSync        bool    `json:"vsync"`
	Filter       string  `json:"filter"`  // "nearest", "linear"
	Backend      string  `json:"backend"` // "ebitengine", "headless", "terminal"
	ColorOverlay bool    `json:"color_overlay"`
	Brightness   float32 `json:"brightness"`
	Contrast     float32 `json:"contrast"`
	ShowFPS      bool    `json:"show_fps"`
}

// AudioConfig contains audio configuration
type AudioConfig struct {
	Enabled    bool    `json:"enabled"`
	SampleRate int     `json:"sample_rate"`
	Volume     float32 `json:"volume"`
}

// InputConfig maps every cabinet control to a key name
type InputConfig struct {
	Coin    string `json:"coin"`
	P1Start string `json:"p1_start"`
	P2Start string `json:"p2_start"`
	P1Shoot string `json:"p1_shoot"`
	P1Left  string `json:"p1_left"`
	P1Right string `json:"p1_right"`
	P2Shoot string `json:"p2_shoot"`
	P2Left  string `json:"p2_left"`
	P2Right string `json:"p2_right"`
	Tilt    string `json:"tilt"`
}

// EmulationConfig contains emulation-specific settings
type EmulationConfig struct {
	ClockRate      int               `json:"clock_rate"`   // CPU Hz
	FrameRate      int               `json:"frame_rate"`   // frames per second, two interrupts each
	LoadAddress    uint16            `json:"load_address"` // base of a single-file ROM image
	DIPSwitches    input.DIPSwitches `json:"dip_switches"`
	SaveStateSlots int               `json:"save_state_slots"`
}

// DebugConfig contains debugging and development options
type DebugConfig struct {
	EnableLogging    bool   `json:"enable_logging"`
	CPUTracing       bool   `json:"cpu_tracing"` // log every executed instruction
	DumpState        bool   `json:"dump_state"`  // log registers around every instruction
	StatsView        bool   `json:"stats_view"`
	StatsViewAddress string `json:"stats_view_address"`
	SnapshotFrames   []int  `json:"snapshot_frames"` // headless frames written as PPM
	DumpInterval     int    `json:"dump_interval"`   // text dump every N frames, 0 disables
	MaxDumps         int    `json:"max_dumps"`
}

// PathsConfig contains file and directory paths
type PathsConfig struct {
	ROMs        string `json:"roms"`
	Samples     string `json:"samples"`
	SaveStates  string `json:"save_states"`
	Screenshots string `json:"screenshots"`
	Dumps       string `json:"dumps"`
	Config      string `json:"config"`
}

// NewConfig creates a new configuration with default values
func NewConfig() *Config {
	config := &Config{
		Window: WindowConfig{
			Width:      672,
			Height:     768,
			Fullscreen: false,
			Scale:      3, // 672x768 (224x256 * 3)
		},
		Video: VideoConfig{
			VSync:        true,
			Filter:       "nearest",
			Backend:      "ebitengine",
			ColorOverlay: true,
			Brightness:   1.0,
			Contrast:     1.0,
			ShowFPS:      false,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 44100,
			Volume:     0.8,
		},
		Input: InputConfig{
			Coin:    "c",
			P1Start: "1",
			P2Start: "2",
			P1Shoot: "space",
			P1Left:  "left",
			P1Right: "right",
			P2Shoot: "w",
			P2Left:  "a",
			P2Right: "d",
			Tilt:    "t",
		},
		Emulation: EmulationConfig{
			ClockRate:      2000000,
			FrameRate:      60,
			LoadAddress:    0x0000,
			DIPSwitches:    input.DefaultDIPSwitches(),
			SaveStateSlots: 10,
		},
		Debug: DebugConfig{
			StatsViewAddress: "localhost:12600",
			MaxDumps:         10,
		},
		Paths: PathsConfig{
			ROMs:        "./roms",
			Samples:     "./samples",
			SaveStates:  "./states",
			Screenshots: "./screenshots",
			Dumps:       "./dumps",
			Config:      "./config",
		},
		loaded: false,
	}

	return config
}

// LoadFromFile loads configuration from a JSON file
func (c *Config) LoadFromFile(path string) error {
	c.configPath = path

	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		// File doesn't exist - save default config and return
		return c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}

	if err := json.Unmarshal(data, c); err != nil {
		return errors.Wrap(err, "failed to parse config file")
	}

	if err := c.validate(); err != nil {
		return errors.Wrap(err, "invalid configuration")
	}

	if err := c.createDirectories(); err != nil {
		return errors.Wrap(err, "failed to create directories")
	}

	c.loaded = true
	return nil
}

// SaveToFile saves configuration to a JSON file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write config file")
	}

	c.configPath = path
	return nil
}

// Save saves the configuration to the current config file
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.New("no config file path set")
	}

	return c.SaveToFile(c.configPath)
}

// validate rejects settings the machine cannot run with and clamps the
// cosmetic ones back to defaults
func (c *Config) validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return &ConfigError{Field: "window", Value: fmt.Sprintf("%dx%d", c.Window.Width, c.Window.Height), Err: errors.New("invalid window dimensions")}
	}

	if c.Window.Scale <= 0 {
		c.Window.Scale = 1
	}

	if c.Video.Brightness < 0.1 || c.Video.Brightness > 3.0 {
		c.Video.Brightness = 1.0
	}

	if c.Video.Contrast < 0.1 || c.Video.Contrast > 3.0 {
		c.Video.Contrast = 1.0
	}

	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = 44100
	}

	if c.Audio.Volume < 0.0 || c.Audio.Volume > 1.0 {
		c.Audio.Volume = 0.8
	}

	if err := c.Clock().Validate(); err != nil {
		return &ConfigError{Field: "emulation.clock_rate", Value: c.Emulation.ClockRate, Err: err}
	}

	if err := c.Emulation.DIPSwitches.Validate(); err != nil {
		return &ConfigError{Field: "emulation.dip_switches.ships", Value: c.Emulation.DIPSwitches.Ships, Err: err}
	}

	if c.Emulation.SaveStateSlots <= 0 {
		c.Emulation.SaveStateSlots = 10
	}

	if c.Debug.DumpInterval < 0 {
		return &ConfigError{Field: "debug.dump_interval", Value: c.Debug.DumpInterval, Err: errors.New("must not be negative")}
	}

	if _, err := c.KeyBindings(); err != nil {
		return err
	}

	return nil
}

// createDirectories creates required directories
func (c *Config) createDirectories() error {
	dirs := []string{
		c.Paths.SaveStates,
		c.Paths.Screenshots,
		c.Paths.Config,
	}

	for _, dir := range dirs {
		if dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", dir)
			}
		}
	}

	return nil
}

// Clock returns the scheduler timing selected by the emulation section
func (c *Config) Clock() bus.Clock {
	return bus.Clock{Rate: c.Emulation.ClockRate, FrameRate: c.Emulation.FrameRate}
}

// KeyBindings parses the input section into a key to control map
func (c *Config) KeyBindings() (map[graphics.Key]graphics.Button, error) {
	entries := []struct {
		field  string
		name   string
		button graphics.Button
	}{
		{"input.coin", c.Input.Coin, graphics.ButtonCoin},
		{"input.p1_start", c.Input.P1Start, graphics.ButtonP1Start},
		{"input.p2_start", c.Input.P2Start, graphics.ButtonP2Start},
		{"input.p1_shoot", c.Input.P1Shoot, graphics.ButtonP1Shoot},
		{"input.p1_left", c.Input.P1Left, graphics.ButtonP1Left},
		{"input.p1_right", c.Input.P1Right, graphics.ButtonP1Right},
		{"input.p2_shoot", c.Input.P2Shoot, graphics.ButtonP2Shoot},
		{"input.p2_left", c.Input.P2Left, graphics.ButtonP2Left},
		{"input.p2_right", c.Input.P2Right, graphics.ButtonP2Right},
		{"input.tilt", c.Input.Tilt, graphics.ButtonTilt},
	}

	bindings := make(map[graphics.Key]graphics.Button, len(entries))
	for _, entry := range entries {
		if entry.name == "" {
			continue
		}
		key, err := graphics.ParseKey(entry.name)
		if err != nil {
			return nil, &ConfigError{Field: entry.field, Value: entry.name, Err: err}
		}
		if _, ok := specialKeys[key]; ok {
			return nil, &ConfigError{Field: entry.field, Value: entry.name, Err: errors.New("key is reserved")}
		}
		if previous, ok := bindings[key]; ok {
			return nil, &ConfigError{Field: entry.field, Value: entry.name, Err: errors.Errorf("key already bound to button %d", previous)}
		}
		bindings[key] = entry.button
	}
	return bindings, nil
}

// GetWindowResolution returns the window resolution based on scale
func (c *Config) GetWindowResolution() (int, int) {
	return graphics.ScreenWidth * c.Window.Scale, graphics.ScreenHeight * c.Window.Scale
}

// IsLoaded returns whether the configuration was loaded from file
func (c *Config) IsLoaded() bool {
	return c.loaded
}

// GetConfigPath returns the path to the config file
func (c *Config) GetConfigPath() string {
	return c.configPath
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	data, err := json.Marshal(c)
	if err != nil {
		return NewConfig()
	}

	clone := &Config{}
	if err := json.Unmarshal(data, clone); err != nil {
		return NewConfig()
	}

	clone.configPath = c.configPath
	clone.loaded = c.loaded

	return clone
}

// GetDefaultConfigPath returns the default configuration file path
func GetDefaultConfigPath() string {
	return "./config/goinvaders.json"
}

// GetDefaultConfigDir returns the default configuration directory
func GetDefaultConfigDir() string {
	return "./config"
}

// ConfigError represents configuration-related errors
type ConfigError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in field '%s' with value '%v': %v", e.Field, e.Value, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
