// Package app provides save state functionality for the emulator.
package app

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"goinvaders/internal/bus"
	"goinvaders/internal/memory"
	"goinvaders/internal/ports"
	"goinvaders/internal/rom"
)

// saveStateVersion is bumped whenever the file layout changes
const saveStateVersion = "1.0"

// StateManager manages save states
type StateManager struct {
	saveDirectory string
	maxSlots      int
	initialized   bool
}

// SaveState represents a saved emulator state. It is taken between frames,
// so no instruction is ever half executed.
type SaveState struct {
	// Metadata
	Version     string    `json:"version"`
	Timestamp   time.Time `json:"timestamp"`
	ROMName     string    `json:"rom_name"`
	ROMChecksum string    `json:"rom_checksum"`
	SlotNumber  int       `json:"slot_number"`
	Description string    `json:"description"`

	// Machine state
	CPUState CPUStateData `json:"cpu_state"`
	Ports    ports.State  `json:"ports"`
	Memory   []byte       `json:"memory"` // full 64KB, base64 in JSON

	// Frame information
	FrameCount uint64 `json:"frame_count"`
	CycleCount uint64 `json:"cycle_count"`
	Overshoot  int    `json:"overshoot"`
}

// CPUStateData represents CPU state for save files
type CPUStateData struct {
	A               uint8  `json:"a"`
	B               uint8  `json:"b"`
	C               uint8  `json:"c"`
	D               uint8  `json:"d"`
	E               uint8  `json:"e"`
	H               uint8  `json:"h"`
	L               uint8  `json:"l"`
	Flags           uint8  `json:"flags"`
	SP              uint16 `json:"sp"`
	PC              uint16 `json:"pc"`
	InterruptEnable bool   `json:"interrupt_enable"`
	Halted          bool   `json:"halted"`
}

// StateSlotInfo contains information about a save state slot
type StateSlotInfo struct {
	SlotNumber  int       `json:"slot_number"`
	Used        bool      `json:"used"`
	Timestamp   time.Time `json:"timestamp"`
	Description string    `json:"description"`
	FilePath    string    `json:"file_path"`
	FileSize    int64     `json:"file_size"`
}

// NewStateManager creates a new state manager
func NewStateManager(saveDirectory string, maxSlots int) *StateManager {
	if maxSlots <= 0 {
		maxSlots = 10
	}
	manager := &StateManager{
		saveDirectory: saveDirectory,
		maxSlots:      maxSlots,
	}

	if err := manager.initialize(); err != nil {
		fmt.Printf("[APP_WARNING] State manager initialization failed: %v\n", err)
	}

	return manager
}

// initialize creates the save directory
func (sm *StateManager) initialize() error {
	if err := os.MkdirAll(sm.saveDirectory, 0755); err != nil {
		return errors.Wrap(err, "failed to create save directory")
	}

	sm.initialized = true
	return nil
}

// Capture builds a save state from the bus
func Capture(b *bus.Bus, image *rom.Image) *SaveState {
	cpuState := b.GetCPUState()

	state := &SaveState{
		Version:   saveStateVersion,
		Timestamp: time.Now(),
		CPUState: CPUStateData{
			A: cpuState.A, B: cpuState.B, C: cpuState.C, D: cpuState.D,
			E: cpuState.E, H: cpuState.H, L: cpuState.L,
			Flags:           cpuState.Flags,
			SP:              cpuState.SP,
			PC:              cpuState.PC,
			InterruptEnable: cpuState.InterruptEnable,
			Halted:          cpuState.Halted,
		},
		Ports:      b.Ports.GetState(),
		Memory:     b.Memory.Snapshot(),
		FrameCount: b.GetFrameCount(),
		CycleCount: b.GetCycleCount(),
		Overshoot:  b.GetOvershoot(),
	}
	if image != nil {
		state.ROMName = image.Name
		state.ROMChecksum = romChecksum(image)
	}
	return state
}

// Restore writes a save state back into the bus
func Restore(b *bus.Bus, state *SaveState) error {
	if len(state.Memory) != memory.Size {
		return errors.Errorf("memory image is %d bytes, want %d", len(state.Memory), memory.Size)
	}
	if err := b.Memory.Restore(state.Memory); err != nil {
		return err
	}

	s := state.CPUState
	b.SetCPUState(bus.CPUState{
		A: s.A, B: s.B, C: s.C, D: s.D, E: s.E, H: s.H, L: s.L,
		Flags:           s.Flags,
		SP:              s.SP,
		PC:              s.PC,
		InterruptEnable: s.InterruptEnable,
		Halted:          s.Halted,
		Cycles:          state.CycleCount,
	})
	b.Ports.SetState(state.Ports)
	b.RestoreTiming(state.FrameCount, state.Overshoot)
	return nil
}

// SaveState saves the current emulator state to a slot
func (sm *StateManager) SaveState(b *bus.Bus, slot int, image *rom.Image) error {
	if !sm.initialized {
		return errors.New("state manager not initialized")
	}

	if slot < 0 || slot >= sm.maxSlots {
		return errors.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	if b == nil {
		return errors.New("bus cannot be nil")
	}

	state := Capture(b, image)
	state.SlotNumber = slot
	state.Description = fmt.Sprintf("Frame %d, %s", state.FrameCount, state.Timestamp.Format("2006-01-02 15:04:05"))

	if err := sm.saveToFile(state, sm.getSlotFilePath(slot, image)); err != nil {
		return errors.Wrap(err, "failed to save state")
	}

	return nil
}

// LoadState loads a saved state from a slot
func (sm *StateManager) LoadState(b *bus.Bus, slot int, image *rom.Image) error {
	if !sm.initialized {
		return errors.New("state manager not initialized")
	}

	if slot < 0 || slot >= sm.maxSlots {
		return errors.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	if b == nil {
		return errors.New("bus cannot be nil")
	}

	filePath := sm.getSlotFilePath(slot, image)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return errors.Errorf("save state not found in slot %d", slot)
	}

	return sm.loadInto(b, filePath, image)
}

func (sm *StateManager) loadInto(b *bus.Bus, filePath string, image *rom.Image) error {
	state, err := sm.loadFromFile(filePath)
	if err != nil {
		return errors.Wrap(err, "failed to load state")
	}

	if err := sm.validateSaveState(state, image); err != nil {
		return errors.Wrap(err, "invalid save state")
	}

	if err := Restore(b, state); err != nil {
		return errors.Wrap(err, "failed to restore state")
	}

	return nil
}

// saveToFile saves a state to a file
func (sm *StateManager) saveToFile(state *SaveState, filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrap(err, "failed to create directory")
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal state")
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write file")
	}

	return nil
}

// loadFromFile loads a state from a file
func (sm *StateManager) loadFromFile(filePath string) (*SaveState, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read file")
	}

	var state SaveState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal state")
	}

	return &state, nil
}

// validateSaveState checks the file version and that it was taken with the
// same ROM image
func (sm *StateManager) validateSaveState(state *SaveState, image *rom.Image) error {
	if state.Version == "" {
		return errors.New("missing version information")
	}
	if state.Version != saveStateVersion {
		return errors.Errorf("unsupported save state version %s", state.Version)
	}

	if image != nil && state.ROMChecksum != romChecksum(image) {
		return errors.Errorf("save state is for a different ROM (checksum %s, loaded %s)", state.ROMChecksum, romChecksum(image))
	}

	return nil
}

// getSlotFilePath generates the file path for a save slot
func (sm *StateManager) getSlotFilePath(slot int, image *rom.Image) string {
	romName := "noname"
	if image != nil && image.Name != "" {
		base := filepath.Base(image.Name)
		romName = strings.TrimSuffix(base, filepath.Ext(base))
	}
	fileName := fmt.Sprintf("%s_slot_%d.save", romName, slot)
	return filepath.Join(sm.saveDirectory, fileName)
}

func romChecksum(image *rom.Image) string {
	return fmt.Sprintf("%08x", image.Checksum())
}

// GetSlotInfo returns information about all save slots
func (sm *StateManager) GetSlotInfo(image *rom.Image) []StateSlotInfo {
	slots := make([]StateSlotInfo, sm.maxSlots)

	for i := 0; i < sm.maxSlots; i++ {
		filePath := sm.getSlotFilePath(i, image)
		slots[i] = StateSlotInfo{
			SlotNumber: i,
			FilePath:   filePath,
		}

		info, err := os.Stat(filePath)
		if err != nil {
			continue
		}
		slots[i].Used = true
		slots[i].FileSize = info.Size()

		if state, err := sm.loadFromFile(filePath); err == nil {
			slots[i].Timestamp = state.Timestamp
			slots[i].Description = state.Description
		}
	}

	return slots
}

// DeleteState deletes a save state from a slot
func (sm *StateManager) DeleteState(slot int, image *rom.Image) error {
	if slot < 0 || slot >= sm.maxSlots {
		return errors.Errorf("invalid save slot: %d (must be 0-%d)", slot, sm.maxSlots-1)
	}

	filePath := sm.getSlotFilePath(slot, image)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("save state not found in slot %d", slot)
		}
		return errors.Wrap(err, "failed to delete save state")
	}

	return nil
}

// HasSaveState checks if a slot has a save state
func (sm *StateManager) HasSaveState(slot int, image *rom.Image) bool {
	if slot < 0 || slot >= sm.maxSlots {
		return false
	}

	_, err := os.Stat(sm.getSlotFilePath(slot, image))
	return err == nil
}

// GetMaxSlots returns the maximum number of save slots
func (sm *StateManager) GetMaxSlots() int {
	return sm.maxSlots
}

// GetSaveDirectory returns the save directory path
func (sm *StateManager) GetSaveDirectory() string {
	return sm.saveDirectory
}

// ExportState writes the current state to an arbitrary file
func (sm *StateManager) ExportState(b *bus.Bus, filePath string, image *rom.Image) error {
	state := Capture(b, image)
	state.SlotNumber = -1
	state.Description = fmt.Sprintf("Exported %s", state.Timestamp.Format("2006-01-02 15:04:05"))

	return sm.saveToFile(state, filePath)
}

// ImportState loads a state from an arbitrary file
func (sm *StateManager) ImportState(b *bus.Bus, filePath string, image *rom.Image) error {
	return sm.loadInto(b, filePath, image)
}
