// Package debug provides text dumps of the screen and machine state
package debug

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"goinvaders/internal/bus"
	"goinvaders/internal/graphics"
)

// Snapshot is the machine state captured at the end of a frame
type Snapshot struct {
	FrameNumber uint64
	CPU         bus.CPUState
	Screen      *graphics.Frame
	WorkRAM     []byte
	RAMBase     uint16
}

// FrameDumper writes snapshots as text files
type FrameDumper struct {
	outputDir    string
	dumpEnabled  bool
	dumpCount    int
	maxDumps     int
	dumpInterval int // Dump every N frames
	pixelFilter  func(x, y int, rgb uint32) bool
}

// NewFrameDumper creates a new frame dumper writing into outputDir
func NewFrameDumper(outputDir string) *FrameDumper {
	return &FrameDumper{
		outputDir:    outputDir,
		maxDumps:     10,
		dumpInterval: 1,
	}
}

// Enable activates frame dumping
func (fd *FrameDumper) Enable() error {
	if err := os.MkdirAll(fd.outputDir, 0755); err != nil {
		return errors.Wrap(err, "failed to create dump directory")
	}
	fd.dumpEnabled = true
	return nil
}

// Disable deactivates frame dumping
func (fd *FrameDumper) Disable() {
	fd.dumpEnabled = false
}

// IsEnabled reports whether dumps are written
func (fd *FrameDumper) IsEnabled() bool {
	return fd.dumpEnabled
}

// SetMaxDumps sets the maximum number of files written; zero means no limit
func (fd *FrameDumper) SetMaxDumps(max int) {
	fd.maxDumps = max
}

// SetDumpInterval sets the interval between frame dumps
func (fd *FrameDumper) SetDumpInterval(interval int) {
	if interval < 1 {
		interval = 1
	}
	fd.dumpInterval = interval
}

// SetPixelFilter restricts the screen dump to the pixels filter accepts
func (fd *FrameDumper) SetPixelFilter(filter func(x, y int, rgb uint32) bool) {
	fd.pixelFilter = filter
}

// DumpCount returns the number of files written so far
func (fd *FrameDumper) DumpCount() int {
	return fd.dumpCount
}

// Dump writes snapshot to frame_NNNNNN.txt and returns the path. An empty
// path means the frame was skipped.
func (fd *FrameDumper) Dump(snapshot Snapshot) (string, error) {
	if !fd.dumpEnabled {
		return "", nil
	}
	if snapshot.FrameNumber%uint64(fd.dumpInterval) != 0 {
		return "", nil
	}
	if fd.maxDumps > 0 && fd.dumpCount >= fd.maxDumps {
		return "", nil
	}

	path := filepath.Join(fd.outputDir, fmt.Sprintf("frame_%06d.txt", snapshot.FrameNumber))
	file, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(err, "failed to create frame dump file")
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	fd.write(w, snapshot)
	if err := w.Flush(); err != nil {
		return "", errors.Wrap(err, "failed to write frame dump")
	}

	fd.dumpCount++
	return path, nil
}

func (fd *FrameDumper) write(w io.Writer, snapshot Snapshot) {
	fmt.Fprintf(w, "Frame %d\n", snapshot.FrameNumber)
	WriteCPUState(w, snapshot.CPU)

	if snapshot.Screen != nil {
		fmt.Fprintf(w, "\nScreen %dx%d (. off, W white, R red, G green):\n", graphics.ScreenWidth, graphics.ScreenHeight)
		WriteScreen(w, snapshot.Screen, fd.pixelFilter)
	}

	if len(snapshot.WorkRAM) > 0 {
		fmt.Fprintf(w, "\nWork RAM:\n")
		HexDump(w, snapshot.RAMBase, snapshot.WorkRAM)
	}
}

// WriteCPUState writes the register file on two lines
func WriteCPUState(w io.Writer, s bus.CPUState) {
	fmt.Fprintf(w, "PC=$%04X SP=$%04X A=$%02X F=$%02X [%s] INTE=%t HALT=%t\n",
		s.PC, s.SP, s.A, s.Flags, flagLetters(s.Flags), s.InterruptEnable, s.Halted)
	fmt.Fprintf(w, "B=$%02X C=$%02X D=$%02X E=$%02X H=$%02X L=$%02X cycles=%d\n",
		s.B, s.C, s.D, s.E, s.H, s.L, s.Cycles)
}

func flagLetters(f uint8) string {
	letters := []byte("SZ-A-P-C")
	for i := range letters {
		if letters[i] == '-' || f&(0x80>>uint(i)) == 0 {
			letters[i] = '.'
		}
	}
	return string(letters)
}

// WriteScreen renders the frame as one character per pixel. Pixels the
// filter rejects are written as spaces.
func WriteScreen(w io.Writer, frame *graphics.Frame, filter func(x, y int, rgb uint32) bool) {
	line := make([]byte, graphics.ScreenWidth+1)
	line[graphics.ScreenWidth] = '\n'

	for y := 0; y < graphics.ScreenHeight; y++ {
		for x := 0; x < graphics.ScreenWidth; x++ {
			rgb := frame[y*graphics.ScreenWidth+x]
			if filter != nil && !filter(x, y, rgb) {
				line[x] = ' '
				continue
			}
			line[x] = pixelChar(rgb)
		}
		w.Write(line)
	}
}

func pixelChar(rgb uint32) byte {
	switch rgb {
	case graphics.ColorBlack:
		return '.'
	case graphics.ColorWhite:
		return 'W'
	case graphics.ColorRed:
		return 'R'
	case graphics.ColorGreen:
		return 'G'
	}
	return '?'
}

// HexDump writes data as 16-byte rows labelled with their address
func HexDump(w io.Writer, base uint16, data []byte) {
	for offset := 0; offset < len(data); offset += 16 {
		end := offset + 16
		if end > len(data) {
			end = len(data)
		}
		fmt.Fprintf(w, "%04X:", uint16(int(base)+offset))
		for _, b := range data[offset:end] {
			fmt.Fprintf(w, " %02X", b)
		}
		fmt.Fprintln(w)
	}
}

// CreateRegionFilter accepts pixels inside the inclusive rectangle
func CreateRegionFilter(x1, y1, x2, y2 int) func(x, y int, rgb uint32) bool {
	return func(x, y int, rgb uint32) bool {
		return x >= x1 && x <= x2 && y >= y1 && y <= y2
	}
}

// CreateColorFilter accepts pixels of a single colour
func CreateColorFilter(color uint32) func(x, y int, rgb uint32) bool {
	return func(x, y int, rgb uint32) bool {
		return rgb == color
	}
}
