// Package app implements the emulator application: it wires the board to a
// graphics backend, the sound samples and the keyboard.
package app

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"goinvaders/internal/audio"
	"goinvaders/internal/bus"
	"goinvaders/internal/debug"
	"goinvaders/internal/graphics"
	"goinvaders/internal/input"
	"goinvaders/internal/memory"
	"goinvaders/internal/rom"
	"goinvaders/internal/statsview"
)

// Keys handled by the application instead of the cabinet
var specialKeys = map[graphics.Key]string{
	graphics.KeyEscape: "quit",
	graphics.KeyP:      "pause",
	graphics.KeyF2:     "save state",
	graphics.KeyF4:     "load state",
	graphics.KeyF5:     "reset",
	graphics.KeyF12:    "screenshot",
}

// Application represents the main emulator application
type Application struct {
	// Core emulation components
	bus *bus.Bus

	// Graphics backend
	graphicsBackend graphics.Backend
	window          graphics.Window
	videoProcessor  *graphics.VideoProcessor
	screen          graphics.Frame

	// Sound output, nil when disabled or unavailable
	audio *audio.Player

	// Text dumps of frames, nil unless debug.dump_interval is set
	dumper *debug.FrameDumper

	// Application state
	config   *Config
	emulator *Emulator
	states   *StateManager

	// Control flags
	running     atomic.Bool // cleared by Stop from any goroutine
	paused      bool
	initialized bool
	headless    bool

	// MaxFrames stops the application after that many frames; zero runs
	// until quit
	maxFrames uint64

	// Performance tracking
	frameCount      uint64
	startTime       time.Time
	lastFPSTime     time.Time
	framesAtLastFPS uint64
	currentFPS      float64

	// ROM management
	romImage *rom.Image

	// Save slot used by the save/load keys
	stateSlot int
}

// ApplicationError represents application-specific errors
type ApplicationError struct {
	Component string
	Operation string
	Err       error
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("Application %s error during %s: %v", e.Component, e.Operation, e.Err)
}

func (e *ApplicationError) Unwrap() error {
	return e.Err
}

// NewApplication creates a new emulator application from config
func NewApplication(config *Config, headless bool) (*Application, error) {
	if config == nil {
		config = NewConfig()
	}

	app := &Application{
		config:      config,
		headless:    headless,
		startTime:   time.Now(),
		lastFPSTime: time.Now(),
	}

	if err := app.initializeComponents(headless); err != nil {
		return nil, &ApplicationError{
			Component: "initialization",
			Operation: "component setup",
			Err:       err,
		}
	}

	return app, nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents(headless bool) error {
	clock := app.config.Clock()
	if err := clock.Validate(); err != nil {
		return errors.Wrap(err, "invalid clock")
	}
	app.bus = bus.NewWithClock(clock)

	if err := app.bus.Input.SetDIPSwitches(app.config.Emulation.DIPSwitches); err != nil {
		return errors.Wrap(err, "invalid DIP switches")
	}

	if err := app.initializeGraphicsBackend(headless); err != nil {
		return errors.Wrap(err, "failed to initialize graphics backend")
	}

	app.initializeAudio()

	app.emulator = NewEmulator(app.bus, app.config)
	app.states = NewStateManager(app.config.Paths.SaveStates, app.config.Emulation.SaveStateSlots)

	app.ApplyDebugSettings()

	if err := app.initializeDumper(); err != nil {
		return errors.Wrap(err, "failed to initialize frame dumper")
	}

	app.initialized = true
	return nil
}

// initializeGraphicsBackend initializes the graphics backend based on configuration
func (app *Application) initializeGraphicsBackend(headless bool) error {
	var backendType graphics.BackendType
	if headless {
		backendType = graphics.BackendHeadless
	} else {
		switch app.config.Video.Backend {
		case "ebitengine":
			backendType = graphics.BackendEbitengine
		case "headless":
			backendType = graphics.BackendHeadless
		case "terminal":
			backendType = graphics.BackendTerminal
		default:
			backendType = graphics.BackendEbitengine
		}
	}

	var err error
	app.graphicsBackend, err = graphics.CreateBackend(backendType)
	if err != nil {
		return errors.Wrap(err, "failed to create graphics backend")
	}

	bindings, err := app.config.KeyBindings()
	if err != nil {
		return err
	}

	graphicsConfig := graphics.Config{
		WindowTitle:    "goinvaders",
		WindowWidth:    app.config.Window.Width,
		WindowHeight:   app.config.Window.Height,
		Fullscreen:     app.config.Window.Fullscreen,
		VSync:          app.config.Video.VSync,
		Filter:         app.config.Video.Filter,
		ShowFPS:        app.config.Video.ShowFPS,
		KeyBindings:    bindings,
		OutputDir:      app.config.Paths.Screenshots,
		SnapshotFrames: app.config.Debug.SnapshotFrames,
		Headless:       backendType == graphics.BackendHeadless,
		Debug:          app.config.Debug.EnableLogging,
	}

	if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
		// If Ebitengine fails (e.g. headless build), fall back to headless mode
		if backendType != graphics.BackendEbitengine {
			return errors.Wrap(err, "failed to initialize graphics backend")
		}
		log.Printf("[APP_WARNING] Ebitengine backend failed (%v), falling back to headless mode", err)
		app.graphicsBackend, err = graphics.CreateBackend(graphics.BackendHeadless)
		if err != nil {
			return errors.Wrap(err, "failed to create fallback headless backend")
		}
		graphicsConfig.Headless = true
		if err := app.graphicsBackend.Initialize(graphicsConfig); err != nil {
			return errors.Wrap(err, "failed to initialize fallback headless backend")
		}
	}

	app.window, err = app.graphicsBackend.CreateWindow(
		graphicsConfig.WindowTitle,
		graphicsConfig.WindowWidth,
		graphicsConfig.WindowHeight,
	)
	if err != nil {
		return errors.Wrap(err, "failed to create window")
	}

	app.videoProcessor = graphics.NewVideoProcessor(
		app.config.Video.Brightness,
		app.config.Video.Contrast,
	)

	return nil
}

// initializeAudio opens the sound output. Failure only costs the sound.
func (app *Application) initializeAudio() {
	if !app.config.Audio.Enabled || app.headless || app.graphicsBackend.IsHeadless() {
		return
	}

	player, err := audio.NewPlayer(audio.Config{
		SampleRate: app.config.Audio.SampleRate,
		Volume:     app.config.Audio.Volume,
		SamplesDir: app.config.Paths.Samples,
		Debug:      app.config.Debug.EnableLogging,
	})
	if err != nil {
		log.Printf("[APP_WARNING] Audio disabled: %v", err)
		return
	}

	app.audio = player
	app.bus.SetSoundSink(player)
}

// LoadROM loads a ROM file or a directory holding the split ROM set
func (app *Application) LoadROM(romPath string) error {
	if !app.initialized {
		return errors.New("application not initialized")
	}

	image, err := rom.Load(romPath, app.config.Emulation.LoadAddress)
	if err != nil {
		return &ApplicationError{
			Component: "rom",
			Operation: "load ROM",
			Err:       err,
		}
	}

	return app.LoadImage(image)
}

// LoadImage places an already loaded image in memory and restarts the
// machine
func (app *Application) LoadImage(image *rom.Image) error {
	app.bus.Memory.Reset()
	if err := app.bus.LoadROM(image.Base, image.Data); err != nil {
		return &ApplicationError{
			Component: "memory",
			Operation: "load ROM",
			Err:       err,
		}
	}

	app.romImage = image
	app.Reset()

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Loaded %s", image)
	}

	if app.window != nil {
		app.window.SetTitle(fmt.Sprintf("goinvaders - %s", filepath.Base(image.Name)))
	}

	app.emulator.Start()
	return nil
}

// SetMaxFrames makes Run return after n frames; zero runs until quit
func (app *Application) SetMaxFrames(n uint64) {
	app.maxFrames = n
}

// Run starts the main application loop
func (app *Application) Run() error {
	if !app.initialized {
		return errors.New("application not initialized")
	}
	if app.romImage == nil {
		return errors.New("no ROM loaded")
	}

	app.running.Store(true)
	app.startTime = time.Now()
	app.lastFPSTime = time.Now()

	if app.config.Debug.StatsView {
		statsview.Launch(os.Stdout, app.config.Debug.StatsViewAddress)
	}

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Starting emulator with %s backend, %d cycles per frame",
			app.graphicsBackend.GetName(), app.emulator.GetCyclesPerFrame())
	}

	// Ebitengine owns the main loop and calls back once per tick
	if ebitengineWindow, ok := graphics.AsEbitengineWindow(app.window); ok {
		ebitengineWindow.SetEmulatorUpdateFunc(func() error {
			if err := app.tick(); err != nil {
				return err
			}
			if !app.running.Load() {
				return graphics.ErrQuit
			}
			return nil
		})
		if err := ebitengineWindow.Run(); err != nil {
			return &ApplicationError{Component: "emulator", Operation: "run", Err: err}
		}
		return nil
	}

	// Only real displays are paced; headless runs as fast as it can
	var ticker *time.Ticker
	if !app.graphicsBackend.IsHeadless() {
		ticker = time.NewTicker(app.emulator.GetTargetFrameTime())
		defer ticker.Stop()
	}

	for app.running.Load() {
		if err := app.tick(); err != nil {
			return &ApplicationError{Component: "emulator", Operation: "run", Err: err}
		}
		if ticker != nil {
			<-ticker.C
		}
	}

	if app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Emulator main loop ended after %d frames", app.frameCount)
	}
	return nil
}

// tick processes input, runs one frame and presents it
func (app *Application) tick() error {
	app.processInput()

	if err := app.updateEmulator(); err != nil {
		app.Stop()
		return err
	}
	app.dumpFrame()

	if err := app.render(); err != nil {
		log.Printf("[APP_ERROR] Render error: %v", err)
	}

	app.updatePerformanceMetrics()

	if app.emulator.IsHalted() {
		app.Stop()
	}
	if app.maxFrames > 0 && app.emulator.GetFrameCount() >= app.maxFrames {
		app.Stop()
	}
	if app.window != nil && app.window.ShouldClose() {
		app.Stop()
	}
	return nil
}

// updateEmulator runs one frame unless paused
func (app *Application) updateEmulator() error {
	if app.paused || app.romImage == nil {
		return nil
	}
	return app.emulator.Update()
}

// processInput dispatches input events from the graphics backend
func (app *Application) processInput() {
	if app.window == nil {
		return
	}

	for _, event := range app.window.PollEvents() {
		switch event.Type {
		case graphics.InputEventTypeQuit:
			app.Stop()
		case graphics.InputEventTypeButton:
			if button, ok := graphicsButtonToInputButton(event.Button); ok {
				app.bus.SetButton(button, event.Pressed)
			}
		case graphics.InputEventTypeKey:
			app.handleSpecialInput(event)
		}
	}
}

// handleSpecialInput handles the application keys
func (app *Application) handleSpecialInput(event graphics.InputEvent) bool {
	if !event.Pressed {
		return false
	}

	switch event.Key {
	case graphics.KeyEscape:
		app.Stop()
	case graphics.KeyP:
		app.TogglePause()
		log.Printf("[APP] Paused: %t", app.paused)
	case graphics.KeyF2:
		if err := app.SaveState(app.stateSlot); err != nil {
			log.Printf("[APP_ERROR] Failed to save state %d: %v", app.stateSlot, err)
		} else {
			log.Printf("[APP] Saved state %d", app.stateSlot)
		}
	case graphics.KeyF4:
		if err := app.LoadState(app.stateSlot); err != nil {
			log.Printf("[APP_ERROR] Failed to load state %d: %v", app.stateSlot, err)
		} else {
			log.Printf("[APP] Loaded state %d", app.stateSlot)
		}
	case graphics.KeyF5:
		app.Reset()
		app.emulator.Start()
		log.Printf("[APP] Reset")
	case graphics.KeyF12:
		path, err := app.Screenshot()
		if err != nil {
			log.Printf("[APP_ERROR] Screenshot failed: %v", err)
		} else {
			log.Printf("[APP] Screenshot saved to %s", path)
		}
	default:
		return false
	}
	return true
}

// graphicsButtonToInputButton converts a bound key's control to the panel
// button it drives
func graphicsButtonToInputButton(gButton graphics.Button) (input.Button, bool) {
	switch gButton {
	case graphics.ButtonCoin:
		return input.ButtonCoin, true
	case graphics.ButtonP1Start:
		return input.ButtonP1Start, true
	case graphics.ButtonP2Start:
		return input.ButtonP2Start, true
	case graphics.ButtonP1Shoot:
		return input.ButtonP1Shoot, true
	case graphics.ButtonP1Left:
		return input.ButtonP1Left, true
	case graphics.ButtonP1Right:
		return input.ButtonP1Right, true
	case graphics.ButtonP2Shoot:
		return input.ButtonP2Shoot, true
	case graphics.ButtonP2Left:
		return input.ButtonP2Left, true
	case graphics.ButtonP2Right:
		return input.ButtonP2Right, true
	case graphics.ButtonTilt:
		return input.ButtonTilt, true
	}
	return 0, false
}

// initializeDumper enables text frame dumps when an interval is configured
func (app *Application) initializeDumper() error {
	interval := app.config.Debug.DumpInterval
	if interval <= 0 {
		return nil
	}

	app.dumper = debug.NewFrameDumper(app.config.Paths.Dumps)
	app.dumper.SetDumpInterval(interval)
	app.dumper.SetMaxDumps(app.config.Debug.MaxDumps)
	return app.dumper.Enable()
}

// dumpFrame writes the state at the end of the frame just run
func (app *Application) dumpFrame() {
	if app.dumper == nil || app.paused || app.romImage == nil {
		return
	}

	path, err := app.dumper.Dump(debug.Snapshot{
		FrameNumber: app.emulator.GetFrameCount(),
		CPU:         app.bus.GetCPUState(),
		Screen:      app.emulator.GetFrame(),
		WorkRAM:     app.bus.Memory.Slice(memory.WorkRAM, memory.VRAMStart-memory.WorkRAM),
		RAMBase:     memory.WorkRAM,
	})
	if err != nil {
		log.Printf("[APP_ERROR] Frame dump failed: %v", err)
		return
	}
	if path != "" && app.config.Debug.EnableLogging {
		log.Printf("[APP_DEBUG] Dumped frame to %s", path)
	}
}

// GetBus returns the bus for direct access (useful for testing)
func (app *Application) GetBus() *bus.Bus {
	return app.bus
}

// GetEmulator returns the frame driver
func (app *Application) GetEmulator() *Emulator {
	return app.emulator
}

// render presents the last emulated frame
func (app *Application) render() error {
	if app.window == nil || app.romImage == nil {
		return nil
	}

	app.screen = *app.emulator.GetFrame()
	if app.videoProcessor != nil {
		app.videoProcessor.ProcessFrame(&app.screen)
	}

	if err := app.window.RenderFrame(&app.screen); err != nil {
		return errors.Wrap(err, "failed to render frame")
	}

	app.window.SwapBuffers()
	return nil
}

// Screenshot writes the current screen as a PNG and returns its path
func (app *Application) Screenshot() (string, error) {
	dir := app.config.Paths.Screenshots
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create screenshot directory")
	}

	path := filepath.Join(dir, fmt.Sprintf("screenshot_%s_%06d.png",
		time.Now().Format("20060102_150405"), app.emulator.GetFrameCount()))
	if err := SaveFrameAsPNG(&app.screen, path); err != nil {
		return "", err
	}
	return path, nil
}

// SaveFrameAsPNG writes frame to path as a PNG image
func SaveFrameAsPNG(frame *graphics.Frame, path string) error {
	img := image.NewRGBA(image.Rect(0, 0, graphics.ScreenWidth, graphics.ScreenHeight))
	for y := 0; y < graphics.ScreenHeight; y++ {
		for x := 0; x < graphics.ScreenWidth; x++ {
			pixel := frame[y*graphics.ScreenWidth+x]
			img.SetRGBA(x, y, color.RGBA{R: uint8(pixel >> 16), G: uint8(pixel >> 8), B: uint8(pixel), A: 255})
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create screenshot")
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return errors.Wrap(err, "failed to encode screenshot")
	}
	return nil
}

// updatePerformanceMetrics refreshes the FPS estimate once a second
func (app *Application) updatePerformanceMetrics() {
	app.frameCount++

	now := time.Now()
	elapsed := now.Sub(app.lastFPSTime)
	if elapsed < time.Second {
		return
	}

	app.currentFPS = float64(app.frameCount-app.framesAtLastFPS) / elapsed.Seconds()
	app.framesAtLastFPS = app.frameCount
	app.lastFPSTime = now

	if app.config.Debug.EnableLogging {
		stats := app.emulator.GetPerformanceStats()
		log.Printf("[APP_DEBUG] FPS: %.1f | frame %d | avg frame %v | jitter %v | speed %.1fx",
			app.currentFPS, stats.FrameCount, stats.AverageFrameTime, stats.FrameJitter, stats.EmulationSpeed)
	}
}

// Stop stops the application
// Stop ends the main loop after the current frame. It is safe to call from
// another goroutine, such as a signal handler.
func (app *Application) Stop() {
	app.running.Store(false)
}

// Pause pauses the emulator
func (app *Application) Pause() {
	app.paused = true
}

// Resume resumes the emulator
func (app *Application) Resume() {
	app.paused = false
}

// TogglePause toggles pause state
func (app *Application) TogglePause() {
	app.paused = !app.paused
	if app.paused && app.audio != nil {
		app.audio.Silence()
	}
}

// SetStateSlot selects the slot used by the save and load keys
func (app *Application) SetStateSlot(slot int) error {
	if slot < 0 || slot >= app.states.GetMaxSlots() {
		return errors.Errorf("invalid save slot: %d (must be 0-%d)", slot, app.states.GetMaxSlots()-1)
	}
	app.stateSlot = slot
	return nil
}

// SaveState saves the current emulator state
func (app *Application) SaveState(slot int) error {
	if app.romImage == nil {
		return errors.New("no ROM loaded")
	}

	return app.states.SaveState(app.bus, slot, app.romImage)
}

// LoadState loads a saved emulator state
func (app *Application) LoadState(slot int) error {
	if app.romImage == nil {
		return errors.New("no ROM loaded")
	}

	if err := app.states.LoadState(app.bus, slot, app.romImage); err != nil {
		return err
	}
	app.emulator.SyncWithBus()
	if app.audio != nil {
		app.audio.Silence()
	}
	return nil
}

// Reset restarts the machine at address 0. Memory, and with it the ROM, is
// kept.
func (app *Application) Reset() {
	if app.bus != nil {
		app.bus.Reset()
	}
	if app.emulator != nil {
		app.emulator.Reset()
	}
	if app.audio != nil {
		app.audio.Silence()
	}
}

// IsRunning returns whether the application is running
func (app *Application) IsRunning() bool {
	return app.running.Load()
}

// IsPaused returns whether the emulator is paused
func (app *Application) IsPaused() bool {
	return app.paused
}

// GetFPS returns the current FPS
func (app *Application) GetFPS() float64 {
	return app.currentFPS
}

// GetFrameCount returns the total frame count
func (app *Application) GetFrameCount() uint64 {
	return app.frameCount
}

// GetUptime returns the application uptime
func (app *Application) GetUptime() time.Duration {
	return time.Since(app.startTime)
}

// GetROM returns the loaded ROM image
func (app *Application) GetROM() *rom.Image {
	return app.romImage
}

// GetConfig returns the application configuration
func (app *Application) GetConfig() *Config {
	return app.config
}

// ApplyDebugSettings applies debug settings to all components
func (app *Application) ApplyDebugSettings() {
	if app.config == nil || app.bus == nil {
		return
	}

	settings := app.config.Debug
	app.bus.EnableCPUTrace(settings.CPUTracing)
	app.bus.EnableCPUDebug(settings.DumpState)
	app.bus.Ports.EnableDebugLogging(settings.EnableLogging)
	app.bus.Input.EnableDebug(settings.EnableLogging)

	if settings.CPUTracing || settings.DumpState {
		log.Printf("[DEBUG] CPU tracing=%t state dump=%t; expect a large log", settings.CPUTracing, settings.DumpState)
	}
}

// Cleanup releases all resources and shuts down the application
func (app *Application) Cleanup() error {
	if app.config != nil && app.config.Debug.EnableLogging {
		log.Println("[APP_DEBUG] Cleaning up application resources...")
	}

	var lastErr error

	if app.audio != nil {
		if err := app.audio.Close(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Audio cleanup error: %v", err)
		}
		app.audio = nil
	}

	if app.emulator != nil {
		app.emulator.Stop()
	}

	if app.window != nil {
		if err := app.window.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Window cleanup error: %v", err)
		}
	}

	if app.graphicsBackend != nil {
		if err := app.graphicsBackend.Cleanup(); err != nil {
			lastErr = err
			log.Printf("[APP_ERROR] Graphics backend cleanup error: %v", err)
		}
	}

	app.initialized = false
	return lastErr
}
