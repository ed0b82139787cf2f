package graphics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Fallback size when stdout is not a terminal
const (
	defaultTerminalColumns = 80
	defaultTerminalRows    = 40
)

// TerminalBackend implements the Backend interface for terminal-based rendering
type TerminalBackend struct {
	initialized bool
	config      Config
}

// TerminalWindow implements the Window interface for terminal rendering
type TerminalWindow struct {
	title   string
	width   int
	height  int
	running bool

	out  io.Writer
	fd   int
	cols int
	rows int
}

// NewTerminalBackend creates a new terminal graphics backend
func NewTerminalBackend() Backend {
	return &TerminalBackend{}
}

// Initialize initializes the terminal backend
func (b *TerminalBackend) Initialize(config Config) error {
	if b.initialized {
		return fmt.Errorf("terminal backend already initialized")
	}

	b.config = config
	b.initialized = true

	return nil
}

// CreateWindow creates a terminal "window" on stdout
func (b *TerminalBackend) CreateWindow(title string, width, height int) (Window, error) {
	if !b.initialized {
		return nil, fmt.Errorf("backend not initialized")
	}

	return newTerminalWindow(title, width, height, os.Stdout, int(os.Stdout.Fd())), nil
}

func newTerminalWindow(title string, width, height int, out io.Writer, fd int) *TerminalWindow {
	w := &TerminalWindow{
		title:   title,
		width:   width,
		height:  height,
		running: true,
		out:     out,
		fd:      fd,
		cols:    defaultTerminalColumns,
		rows:    defaultTerminalRows,
	}
	w.refreshSize()
	return w
}

// Cleanup releases all terminal resources
func (b *TerminalBackend) Cleanup() error {
	b.initialized = false
	return nil
}

// IsHeadless returns false (terminal has basic output)
func (b *TerminalBackend) IsHeadless() bool {
	return false
}

// GetName returns the backend name
func (b *TerminalBackend) GetName() string {
	return "Terminal"
}

// refreshSize picks up the current terminal dimensions
func (w *TerminalWindow) refreshSize() {
	if !term.IsTerminal(w.fd) {
		return
	}
	cols, rows, err := term.GetSize(w.fd)
	if err != nil || cols <= 0 || rows <= 1 {
		return
	}
	w.cols, w.rows = cols, rows-1
}

// SetTitle sets the terminal title
func (w *TerminalWindow) SetTitle(title string) {
	w.title = title
	fmt.Fprintf(w.out, "\033]0;%s\007", title)
}

// GetSize returns window dimensions
func (w *TerminalWindow) GetSize() (width, height int) {
	return w.width, w.height
}

// ShouldClose returns true if window should close
func (w *TerminalWindow) ShouldClose() bool {
	return !w.running
}

// SwapBuffers does nothing for terminal
func (w *TerminalWindow) SwapBuffers() {}

// PollEvents returns no events; the terminal is output only
func (w *TerminalWindow) PollEvents() []InputEvent {
	return nil
}

// RenderFrame draws the frame with half-block characters, two pixel rows
// per text row, scaled down to fit the terminal
func (w *TerminalWindow) RenderFrame(frame *Frame) error {
	w.refreshSize()
	_, err := io.WriteString(w.out, "\033[H"+renderHalfBlocks(frame, w.cols, w.rows))
	return err
}

// renderHalfBlocks scales frame into cols x rows characters
func renderHalfBlocks(frame *Frame, cols, rows int) string {
	cellW := (ScreenWidth + cols - 1) / cols
	cellH := (ScreenHeight + 2*rows - 1) / (2 * rows)
	if cellW < 1 {
		cellW = 1
	}
	if cellH < 1 {
		cellH = 1
	}

	var sb strings.Builder
	for y := 0; y < ScreenHeight; y += 2 * cellH {
		for x := 0; x < ScreenWidth; x += cellW {
			top := cellLit(frame, x, y, cellW, cellH)
			bottom := cellLit(frame, x, y+cellH, cellW, cellH)
			switch {
			case top && bottom:
				sb.WriteString("█")
			case top:
				sb.WriteString("▀")
			case bottom:
				sb.WriteString("▄")
			default:
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// cellLit reports whether any pixel in the w x h block at (x, y) is lit
func cellLit(frame *Frame, x, y, w, h int) bool {
	for dy := 0; dy < h && y+dy < ScreenHeight; dy++ {
		for dx := 0; dx < w && x+dx < ScreenWidth; dx++ {
			if frame[(y+dy)*ScreenWidth+x+dx] != ColorBlack {
				return true
			}
		}
	}
	return false
}

// Cleanup releases window resources
func (w *TerminalWindow) Cleanup() error {
	w.running = false
	return nil
}
