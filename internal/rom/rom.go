// Package rom implements ROM image loading for the arcade board.
package rom

import (
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// MaxSize is the size of the CPU address space
const MaxSize = 0x10000

// SetPart is one chip of a split ROM set
type SetPart struct {
	Name string
	Base uint16
	Size int
}

// InvadersSet is the classic four-chip Space Invaders ROM set
var InvadersSet = []SetPart{
	{Name: "invaders.h", Base: 0x0000, Size: 0x800},
	{Name: "invaders.g", Base: 0x0800, Size: 0x800},
	{Name: "invaders.f", Base: 0x1000, Size: 0x800},
	{Name: "invaders.e", Base: 0x1800, Size: 0x800},
}

// Image is a program image and the address it loads at
type Image struct {
	Name string
	Base uint16
	Data []byte
}

// Checksum returns the CRC-32 of the image data
func (img *Image) Checksum() uint32 {
	return crc32.ChecksumIEEE(img.Data)
}

// String describes the image
func (img *Image) String() string {
	return fmt.Sprintf("%s (%d bytes at $%04X, crc32 %08X)", img.Name, len(img.Data), img.Base, img.Checksum())
}

// Load loads path at base. A directory is loaded as the four-chip
// invaders set, in which case base is ignored.
func Load(path string, base uint16) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to stat ROM")
	}
	if info.IsDir() {
		return LoadSet(path, InvadersSet)
	}
	return LoadFromFile(path, base)
}

// LoadFromFile loads a flat binary image from filename
func LoadFromFile(filename string, base uint16) (*Image, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open ROM")
	}
	defer file.Close()

	img, err := LoadFromReader(file, base)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", filename)
	}
	img.Name = filepath.Base(filename)
	return img, nil
}

// LoadFromReader reads a flat binary image from r. The image must fit in
// the address space above base.
func LoadFromReader(r io.Reader, base uint16) (*Image, error) {
	limit := MaxSize - int(base)
	// Read one byte past the limit so oversized images are detected
	data, err := io.ReadAll(io.LimitReader(r, int64(limit)+1))
	if err != nil {
		return nil, errors.Wrap(err, "failed to read ROM data")
	}
	if len(data) == 0 {
		return nil, errors.New("ROM image is empty")
	}
	if len(data) > limit {
		return nil, errors.Errorf("ROM image does not fit at $%04X (more than %d bytes)", base, limit)
	}
	return &Image{Name: "rom", Base: base, Data: data}, nil
}

// LoadSet loads a split ROM set from dir and merges it into one image
// starting at the lowest part base
func LoadSet(dir string, parts []SetPart) (*Image, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty ROM set")
	}

	low, high := MaxSize, 0
	for _, part := range parts {
		end := int(part.Base) + part.Size
		if end > MaxSize {
			return nil, errors.Errorf("ROM part %s overruns the address space", part.Name)
		}
		if int(part.Base) < low {
			low = int(part.Base)
		}
		if end > high {
			high = end
		}
	}

	data := make([]byte, high-low)
	for _, part := range parts {
		path := filepath.Join(dir, part.Name)
		chip, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read ROM part %s", part.Name)
		}
		if len(chip) != part.Size {
			return nil, errors.Errorf("ROM part %s is %d bytes, want %d", part.Name, len(chip), part.Size)
		}
		copy(data[int(part.Base)-low:], chip)
	}

	return &Image{Name: filepath.Base(dir), Base: uint16(low), Data: data}, nil
}
