// Package graphics provides an abstraction layer for different rendering backends
package graphics

import (
	"fmt"
	"sort"
	"strings"
)

// Native resolution of the rotated arcade monitor
const (
	ScreenWidth  = 224
	ScreenHeight = 256
)

// Frame is a rendered screen in 0xRRGGBB pixels, row-major
type Frame [ScreenWidth * ScreenHeight]uint32

// Backend represents a graphics rendering backend
type Backend interface {
	// Initialize initializes the graphics backend
	Initialize(config Config) error

	// CreateWindow creates a window for rendering
	CreateWindow(title string, width, height int) (Window, error)

	// Cleanup releases all resources
	Cleanup() error

	// IsHeadless returns true if running in headless mode
	IsHeadless() bool

	// GetName returns the backend name for identification
	GetName() string
}

// Window represents a rendering window
type Window interface {
	// SetTitle sets the window title
	SetTitle(title string)

	// GetSize returns window dimensions
	GetSize() (width, height int)

	// ShouldClose returns true if window should close
	ShouldClose() bool

	// SwapBuffers presents the rendered frame
	SwapBuffers()

	// PollEvents processes input events
	PollEvents() []InputEvent

	// RenderFrame renders a screen to the window
	RenderFrame(frame *Frame) error

	// Cleanup releases window resources
	Cleanup() error
}

// Config contains configuration for graphics backends
type Config struct {
	// Window configuration
	WindowTitle  string
	WindowWidth  int
	WindowHeight int
	Fullscreen   bool
	VSync        bool

	// Rendering configuration
	Filter  string // "nearest", "linear"
	ShowFPS bool

	// Input configuration; nil selects DefaultKeyBindings
	KeyBindings map[Key]Button

	// Headless snapshot configuration
	OutputDir      string
	SnapshotFrames []int

	// Backend-specific options
	Headless bool
	Debug    bool
}

// InputEvent represents an input event from the window
type InputEvent struct {
	Type    InputEventType
	Key     Key
	Button  Button
	Pressed bool
}

// InputEventType represents the type of input event
type InputEventType int

const (
	InputEventTypeKey InputEventType = iota
	InputEventTypeButton
	InputEventTypeQuit
)

// Key represents keyboard keys
type Key int

const (
	KeyUnknown Key = iota
	KeyEscape
	KeyEnter
	KeySpace
	KeyTab
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyA
	KeyC
	KeyD
	KeyP
	KeyS
	KeyT
	KeyW
	Key1
	Key2
	Key3
	Key4
	Key5
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var keyNames = map[Key]string{
	KeyEscape: "escape",
	KeyEnter:  "enter",
	KeySpace:  "space",
	KeyTab:    "tab",
	KeyUp:     "up",
	KeyDown:   "down",
	KeyLeft:   "left",
	KeyRight:  "right",
	KeyA:      "a",
	KeyC:      "c",
	KeyD:      "d",
	KeyP:      "p",
	KeyS:      "s",
	KeyT:      "t",
	KeyW:      "w",
	Key1:      "1",
	Key2:      "2",
	Key3:      "3",
	Key4:      "4",
	Key5:      "5",
	KeyF1:     "f1",
	KeyF2:     "f2",
	KeyF3:     "f3",
	KeyF4:     "f4",
	KeyF5:     "f5",
	KeyF6:     "f6",
	KeyF7:     "f7",
	KeyF8:     "f8",
	KeyF9:     "f9",
	KeyF10:    "f10",
	KeyF11:    "f11",
	KeyF12:    "f12",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKey returns the key with the given configuration name
func ParseKey(name string) (Key, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for key, keyName := range keyNames {
		if keyName == name {
			return key, nil
		}
	}
	known := make([]string, 0, len(keyNames))
	for _, keyName := range keyNames {
		known = append(known, keyName)
	}
	sort.Strings(known)
	return KeyUnknown, fmt.Errorf("unknown key %q (known keys: %s)", name, strings.Join(known, ", "))
}

// Button represents cabinet controls
type Button int

const (
	ButtonUnknown Button = iota
	ButtonCoin
	ButtonP1Start
	ButtonP2Start
	ButtonP1Shoot
	ButtonP1Left
	ButtonP1Right
	ButtonP2Shoot
	ButtonP2Left
	ButtonP2Right
	ButtonTilt
)

// DefaultKeyBindings maps keys to cabinet controls
func DefaultKeyBindings() map[Key]Button {
	return map[Key]Button{
		KeyC:     ButtonCoin,
		Key1:     ButtonP1Start,
		Key2:     ButtonP2Start,
		KeySpace: ButtonP1Shoot,
		KeyLeft:  ButtonP1Left,
		KeyRight: ButtonP1Right,
		KeyW:     ButtonP2Shoot,
		KeyA:     ButtonP2Left,
		KeyD:     ButtonP2Right,
		KeyT:     ButtonTilt,
	}
}

// translateKeyEvents turns raw key transitions into button events where a
// binding exists and passes the rest through
func translateKeyEvents(raw []InputEvent, bindings map[Key]Button) []InputEvent {
	events := make([]InputEvent, 0, len(raw))
	for _, event := range raw {
		if event.Type == InputEventTypeKey {
			if button, ok := bindings[event.Key]; ok {
				events = append(events, InputEvent{
					Type:    InputEventTypeButton,
					Key:     event.Key,
					Button:  button,
					Pressed: event.Pressed,
				})
				continue
			}
		}
		events = append(events, event)
	}
	return events
}

// BackendType represents different graphics backend types
type BackendType string

const (
	BackendEbitengine BackendType = "ebitengine"
	BackendHeadless   BackendType = "headless"
	BackendTerminal   BackendType = "terminal"
)

// CreateBackend creates a graphics backend of the specified type
func CreateBackend(backendType BackendType) (Backend, error) {
	switch backendType {
	case BackendEbitengine:
		return NewEbitengineBackend(), nil
	case BackendHeadless:
		return NewHeadlessBackend(), nil
	case BackendTerminal:
		return NewTerminalBackend(), nil
	default:
		return nil, fmt.Errorf("unknown graphics backend %q", backendType)
	}
}

// AsEbitengineWindow tries to cast a Window to EbitengineWindow
func AsEbitengineWindow(window Window) (*EbitengineWindow, bool) {
	if ebitengineWindow, ok := window.(*EbitengineWindow); ok {
		return ebitengineWindow, true
	}
	return nil, false
}
