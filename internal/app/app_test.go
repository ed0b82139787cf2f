package app

import (
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"goinvaders/internal/cpu"
	"goinvaders/internal/graphics"
	"goinvaders/internal/rom"
)

// testProgram enables interrupts and spins; RST 2 lights the first VRAM
// byte and counts vblanks in 0x2000
var testProgram = map[uint16][]byte{
	0x0000: {0x31, 0x00, 0x24, 0xFB, 0xC3, 0x04, 0x00}, // LXI SP,$2400; EI; JMP $0004
	0x0008: {0xFB, 0xC9},                               // EI; RET
	0x0010: {
		0x3E, 0xFF, 0x32, 0x00, 0x24, // MVI A,$FF; STA $2400
		0x21, 0x00, 0x20, 0x34, // LXI H,$2000; INR M
		0xFB, 0xC9, // EI; RET
	},
}

func buildImage(name string, parts map[uint16][]byte) *rom.Image {
	data := make([]byte, 0x20)
	for base, code := range parts {
		copy(data[base:], code)
	}
	return &rom.Image{Name: name, Base: 0, Data: data}
}

func newTestConfig(t *testing.T) *Config {
	t.Helper()

	dir := t.TempDir()
	config := NewConfig()
	config.Audio.Enabled = false
	config.Paths.SaveStates = filepath.Join(dir, "states")
	config.Paths.Screenshots = filepath.Join(dir, "screenshots")
	config.Paths.Config = filepath.Join(dir, "config")
	config.Paths.Dumps = filepath.Join(dir, "dumps")
	return config
}

func newTestApp(t *testing.T, image *rom.Image) *Application {
	t.Helper()

	app, err := NewApplication(newTestConfig(t), true)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	t.Cleanup(func() { app.Cleanup() })

	if err := app.LoadImage(image); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	return app
}

func TestApplicationRunsFrames(t *testing.T) {
	app := newTestApp(t, buildImage("test.rom", testProgram))
	app.SetMaxFrames(3)

	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if got := app.GetEmulator().GetFrameCount(); got != 3 {
		t.Errorf("Expected 3 emulated frames, got %d", got)
	}
	if got := app.GetBus().GetFrameCount(); got != 3 {
		t.Errorf("Expected bus frame count 3, got %d", got)
	}
	// The last vblank is taken at the end of frame 3 and serviced in frame 4
	if got := app.GetBus().Memory.Read(0x2000); got != 2 {
		t.Errorf("Expected 2 vblank interrupts serviced, got %d", got)
	}

	if got := app.screen[255*graphics.ScreenWidth]; got != graphics.ColorWhite {
		t.Errorf("Expected bottom-left pixel lit, got %06X", got)
	}
	if app.IsRunning() {
		t.Error("Expected application to stop after max frames")
	}
}

func TestApplicationStopsOnHalt(t *testing.T) {
	app := newTestApp(t, buildImage("halt.rom", map[uint16][]byte{0: {0x76}}))
	app.SetMaxFrames(100)

	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !app.GetEmulator().IsHalted() {
		t.Error("Expected emulator to report halt")
	}
	if got := app.GetEmulator().GetFrameCount(); got != 1 {
		t.Errorf("Expected to stop after the first frame, got %d frames", got)
	}
}

func TestApplicationUnimplementedOpcode(t *testing.T) {
	app := newTestApp(t, buildImage("bad.rom", map[uint16][]byte{0: {0x00, 0x08}}))
	app.SetMaxFrames(10)

	err := app.Run()
	if err == nil {
		t.Fatal("Expected error from undocumented opcode")
	}

	var opErr *cpu.UnimplementedOpcodeError
	if !errors.As(err, &opErr) {
		t.Fatalf("Expected UnimplementedOpcodeError in chain, got %v", err)
	}
	if opErr.Opcode != 0x08 || opErr.PC != 0x0001 {
		t.Errorf("Expected opcode $08 at $0001, got $%02X at $%04X", opErr.Opcode, opErr.PC)
	}

	var appErr *ApplicationError
	if !errors.As(err, &appErr) || appErr.Component != "emulator" {
		t.Errorf("Expected emulator ApplicationError, got %v", err)
	}
}

func TestApplicationStopFromAnotherGoroutine(t *testing.T) {
	app := newTestApp(t, buildImage("stop.rom", testProgram))

	done := make(chan error, 1)
	go func() {
		done <- app.Run()
	}()

	deadline := time.Now().Add(5 * time.Second)
	for !app.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	app.Stop()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Run to return after Stop")
	}

	if app.IsRunning() {
		t.Error("Expected application to be stopped")
	}
	if app.GetEmulator().GetFrameCount() == 0 {
		t.Error("Expected frames to run before Stop")
	}
}

func TestApplicationRunWithoutROM(t *testing.T) {
	app, err := NewApplication(newTestConfig(t), true)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	defer app.Cleanup()

	if err := app.Run(); err == nil {
		t.Error("Expected error when running without a ROM")
	}
	if err := app.SaveState(0); err == nil {
		t.Error("Expected error when saving without a ROM")
	}
}

func TestApplicationLoadROMFile(t *testing.T) {
	app, err := NewApplication(newTestConfig(t), true)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	defer app.Cleanup()

	path := filepath.Join(t.TempDir(), "prog.bin")
	if err := os.WriteFile(path, []byte{0x3E, 0x42, 0x76}, 0644); err != nil {
		t.Fatal(err)
	}

	if err := app.LoadROM(path); err != nil {
		t.Fatalf("LoadROM failed: %v", err)
	}
	if app.GetBus().Memory.Read(1) != 0x42 {
		t.Error("Expected ROM bytes in memory")
	}

	if err := app.LoadROM(filepath.Join(t.TempDir(), "missing.bin")); err == nil {
		t.Error("Expected error for missing ROM")
	}
}

func TestApplicationSpecialKeys(t *testing.T) {
	app := newTestApp(t, buildImage("keys.rom", testProgram))

	app.handleSpecialInput(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyP, Pressed: true})
	if !app.IsPaused() {
		t.Error("Expected P to pause")
	}

	if err := app.tick(); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	if app.GetEmulator().GetFrameCount() != 0 {
		t.Error("Expected no frame to run while paused")
	}

	app.handleSpecialInput(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyP, Pressed: true})
	if app.IsPaused() {
		t.Error("Expected second P to resume")
	}

	if handled := app.handleSpecialInput(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyTab, Pressed: true}); handled {
		t.Error("Expected unbound key to be ignored")
	}

	app.running.Store(true)
	app.handleSpecialInput(graphics.InputEvent{Type: graphics.InputEventTypeKey, Key: graphics.KeyEscape, Pressed: true})
	if app.IsRunning() {
		t.Error("Expected Escape to stop the application")
	}
}

func TestApplicationSaveAndLoadState(t *testing.T) {
	app := newTestApp(t, buildImage("state.rom", testProgram))

	for i := 0; i < 2; i++ {
		if err := app.GetEmulator().StepFrame(); err != nil {
			t.Fatalf("StepFrame failed: %v", err)
		}
	}

	if err := app.SaveState(0); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	saved := app.GetBus().GetCPUState()
	savedCounter := app.GetBus().Memory.Read(0x2000)

	for i := 0; i < 5; i++ {
		if err := app.GetEmulator().StepFrame(); err != nil {
			t.Fatalf("StepFrame failed: %v", err)
		}
	}

	if err := app.LoadState(0); err != nil {
		t.Fatalf("LoadState failed: %v", err)
	}

	if got := app.GetBus().GetCPUState(); got != saved {
		t.Errorf("Expected CPU state %+v, got %+v", saved, got)
	}
	if got := app.GetBus().Memory.Read(0x2000); got != savedCounter {
		t.Errorf("Expected vblank counter %d, got %d", savedCounter, got)
	}
	if got := app.GetBus().GetFrameCount(); got != 2 {
		t.Errorf("Expected frame count 2, got %d", got)
	}
	if got := app.GetEmulator().GetFrameCount(); got != 2 {
		t.Errorf("Expected emulator frame count 2, got %d", got)
	}
	if got := app.GetEmulator().GetCycleCount(); got != saved.Cycles {
		t.Errorf("Expected emulator cycle count %d, got %d", saved.Cycles, got)
	}

	if err := app.LoadState(1); err == nil {
		t.Error("Expected error loading an empty slot")
	}
}

func TestApplicationScreenshot(t *testing.T) {
	app := newTestApp(t, buildImage("shot.rom", testProgram))
	app.SetMaxFrames(2)
	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	path, err := app.Screenshot()
	if err != nil {
		t.Fatalf("Screenshot failed: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("Expected screenshot file: %v", err)
	}
	defer file.Close()

	img, err := png.Decode(file)
	if err != nil {
		t.Fatalf("Expected valid PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != graphics.ScreenWidth || b.Dy() != graphics.ScreenHeight {
		t.Errorf("Expected %dx%d image, got %dx%d", graphics.ScreenWidth, graphics.ScreenHeight, b.Dx(), b.Dy())
	}
	r, g, bl, _ := img.At(0, 255).RGBA()
	if r>>8 != 0xFF || g>>8 != 0xFF || bl>>8 != 0xFF {
		t.Errorf("Expected white pixel at (0,255), got %02X%02X%02X", r>>8, g>>8, bl>>8)
	}
}

func TestApplicationFrameDumps(t *testing.T) {
	config := newTestConfig(t)
	config.Debug.DumpInterval = 1

	app, err := NewApplication(config, true)
	if err != nil {
		t.Fatalf("NewApplication failed: %v", err)
	}
	defer app.Cleanup()

	if err := app.LoadImage(buildImage("dump.rom", testProgram)); err != nil {
		t.Fatalf("LoadImage failed: %v", err)
	}
	app.SetMaxFrames(2)
	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	for _, name := range []string{"frame_000001.txt", "frame_000002.txt"} {
		if _, err := os.Stat(filepath.Join(config.Paths.Dumps, name)); err != nil {
			t.Errorf("%s: Expected dump file: %v", name, err)
		}
	}

	data, err := os.ReadFile(filepath.Join(config.Paths.Dumps, "frame_000002.txt"))
	if err != nil {
		t.Fatalf("Failed to read dump: %v", err)
	}
	if !strings.Contains(string(data), "2000: 01") {
		t.Errorf("Expected vblank counter 1 in work RAM dump")
	}
}

func TestGraphicsButtonMapping(t *testing.T) {
	for _, button := range []graphics.Button{
		graphics.ButtonCoin, graphics.ButtonP1Start, graphics.ButtonP2Start,
		graphics.ButtonP1Shoot, graphics.ButtonP1Left, graphics.ButtonP1Right,
		graphics.ButtonP2Shoot, graphics.ButtonP2Left, graphics.ButtonP2Right,
		graphics.ButtonTilt,
	} {
		if _, ok := graphicsButtonToInputButton(button); !ok {
			t.Errorf("Expected mapping for graphics button %d", button)
		}
	}
	if _, ok := graphicsButtonToInputButton(graphics.ButtonUnknown); ok {
		t.Error("Expected no mapping for unknown button")
	}
}
