package app

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"goinvaders/internal/graphics"
)

func TestConfigLoadCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config", "goinvaders.json")

	config := NewConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Expected default config to be written: %v", err)
	}
	if config.GetConfigPath() != path {
		t.Errorf("Expected config path %s, got %s", path, config.GetConfigPath())
	}
}

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goinvaders.json")

	config := NewConfig()
	config.Paths.SaveStates = filepath.Join(dir, "states")
	config.Paths.Screenshots = filepath.Join(dir, "shots")
	config.Paths.Config = dir
	config.Emulation.DIPSwitches.Ships = 5
	config.Emulation.LoadAddress = 0x0100
	config.Input.P1Shoot = "enter"
	if err := config.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded := NewConfig()
	if err := loaded.LoadFromFile(path); err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if !loaded.IsLoaded() {
		t.Error("Expected IsLoaded after reading a file")
	}
	if loaded.Emulation.DIPSwitches.Ships != 5 {
		t.Errorf("Expected 5 ships, got %d", loaded.Emulation.DIPSwitches.Ships)
	}
	if loaded.Emulation.LoadAddress != 0x0100 {
		t.Errorf("Expected load address $0100, got $%04X", loaded.Emulation.LoadAddress)
	}

	bindings, err := loaded.KeyBindings()
	if err != nil {
		t.Fatalf("KeyBindings failed: %v", err)
	}
	if bindings[graphics.KeyEnter] != graphics.ButtonP1Shoot {
		t.Error("Expected enter bound to P1 shoot")
	}
	if _, ok := bindings[graphics.KeySpace]; ok {
		t.Error("Expected space to be unbound")
	}

	if _, err := os.Stat(config.Paths.SaveStates); err != nil {
		t.Errorf("Expected save state directory to be created: %v", err)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		field  string
	}{
		{"zero clock", func(c *Config) { c.Emulation.ClockRate = 0 }, "emulation.clock_rate"},
		{"too many ships", func(c *Config) { c.Emulation.DIPSwitches.Ships = 7 }, "emulation.dip_switches.ships"},
		{"unknown key", func(c *Config) { c.Input.Coin = "hyperspace" }, "input.coin"},
		{"reserved key", func(c *Config) { c.Input.Tilt = "escape" }, "input.tilt"},
		{"duplicate key", func(c *Config) { c.Input.P2Shoot = "space" }, "input.p2_shoot"},
		{"negative dump interval", func(c *Config) { c.Debug.DumpInterval = -1 }, "debug.dump_interval"},
	}

	for _, test := range tests {
		config := NewConfig()
		test.modify(config)

		err := config.validate()
		var configErr *ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("%s: Expected ConfigError, got %v", test.name, err)
			continue
		}
		if configErr.Field != test.field {
			t.Errorf("%s: Expected field %s, got %s", test.name, test.field, configErr.Field)
		}
	}
}

func TestConfigValidationClamps(t *testing.T) {
	config := NewConfig()
	config.Video.Brightness = 10
	config.Audio.Volume = -1
	config.Window.Scale = 0

	if err := config.validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	if config.Video.Brightness != 1.0 {
		t.Errorf("Expected brightness reset to 1.0, got %f", config.Video.Brightness)
	}
	if config.Audio.Volume != 0.8 {
		t.Errorf("Expected volume reset to 0.8, got %f", config.Audio.Volume)
	}
	if config.Window.Scale != 1 {
		t.Errorf("Expected scale reset to 1, got %d", config.Window.Scale)
	}
}

func TestConfigLoadRejectsBadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := NewConfig().LoadFromFile(path); err == nil {
		t.Error("Expected parse error")
	}
}

func TestConfigLoadKeepsValidationError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slow.json")
	if err := os.WriteFile(path, []byte(`{"emulation": {"clock_rate": 0, "frame_rate": 60}}`), 0644); err != nil {
		t.Fatal(err)
	}

	err := NewConfig().LoadFromFile(path)
	if err == nil {
		t.Fatal("Expected validation error")
	}

	var configErr *ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("Expected ConfigError in chain, got %v", err)
	}
	if configErr.Field != "emulation.clock_rate" {
		t.Errorf("Expected field emulation.clock_rate, got %s", configErr.Field)
	}
}

func TestConfigClock(t *testing.T) {
	config := NewConfig()
	clock := config.Clock()
	if clock.CyclesPerFrame() != 33333 {
		t.Errorf("Expected 33333 cycles per frame, got %d", clock.CyclesPerFrame())
	}

	w, h := config.GetWindowResolution()
	if w != 672 || h != 768 {
		t.Errorf("Expected 672x768, got %dx%d", w, h)
	}
}

func TestConfigClone(t *testing.T) {
	config := NewConfig()
	config.Debug.SnapshotFrames = []int{1, 2}

	clone := config.Clone()
	clone.Debug.SnapshotFrames[0] = 99

	if config.Debug.SnapshotFrames[0] != 1 {
		t.Error("Expected clone to be independent")
	}

	data, err := json.Marshal(clone)
	if err != nil || len(data) == 0 {
		t.Errorf("Expected clone to marshal: %v", err)
	}
}
