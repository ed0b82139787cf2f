package graphics

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
)

// HeadlessBackend implements the Backend interface for headless operation
type HeadlessBackend struct {
	initialized bool
	config      Config
}

// HeadlessWindow implements the Window interface for headless operation
type HeadlessWindow struct {
	title          string
	width          int
	height         int
	running        bool
	frameCount     int
	outputPath     string
	snapshotFrames map[int]bool
	lastFrame      Frame
}

// NewHeadlessBackend creates a new headless graphics backend
func NewHeadlessBackend() Backend {
	return &HeadlessBackend{}
}

// Initialize initializes the headless backend
func (b *HeadlessBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("headless backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a headless "window" (no actual window)
func (b *HeadlessBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	snapshots := make(map[int]bool, len(b.config.SnapshotFrames))
	for _, frame := range b.config.SnapshotFrames {
		snapshots[frame] = true
	}

	outputPath := b.config.OutputDir
	if outputPath == "" {
		outputPath = "."
	}

	return &HeadlessWindow{
		title:          title,
		width:          width,
		height:         height,
		running:        true,
		outputPath:     outputPath,
		snapshotFrames: snapshots,
	}, nil
}

// Cleanup releases all headless resources
func (b *HeadlessBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns true (this is a headless backend)
func (b *HeadlessBackend) IsHeadless() bool {
	return true
}

// GetName returns the backend name
func (b *HeadlessBackend) GetName() string {
	return "Headless"
}

// SetTitle sets the window title (for logging purposes)
func (w *HeadlessWindow) SetTitle(title string) {
	w.title = title
}

// GetSize returns window dimensions
func (w *HeadlessWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *HeadlessWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing in headless mode
func (w *HeadlessWindow) SwapBuffers() {}

// PollEvents returns no events; there is no input in headless mode
func (w *HeadlessWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame keeps the frame and writes a snapshot on configured frames
func (w *HeadlessWindow) RenderFrame(frame *Frame) error {
	w.frameCount++
	w.lastFrame = *frame

	if w.snapshotFrames[w.frameCount] {
		filename := filepath.Join(w.outputPath, fmt.Sprintf("frame_%05d.ppm", w.frameCount))
		return SaveFrameAsPPM(frame, filename)
	}

	return nil
}

// SaveFrameAsPPM writes the frame as a binary PPM image
func SaveFrameAsPPM(frame *Frame, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %v", filename, err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fmt.Fprintf(w, "P6\n%d %d\n255\n", ScreenWidth, ScreenHeight)
	for _, pixel := range frame {
		w.Write([]byte{byte(pixel >> 16), byte(pixel >> 8), byte(pixel)})
	}
	return w.Flush()
}

// Cleanup releases window resources
func (w *HeadlessWindow) Cleanup() error {
	w.running = false
	return nil
}

// SetOutputPath sets the output path for frame dumps
func (w *HeadlessWindow) SetOutputPath(path string) {
	w.outputPath = path
}

// GetFrameCount returns the number of frames rendered
func (w *HeadlessWindow) GetFrameCount() int {
	return w.frameCount
}

// LastFrame returns the most recently rendered frame
func (w *HeadlessWindow) LastFrame() *Frame {
	return &w.lastFrame
}
