package graphics

// Screen colours in 0xRRGGBB
const (
	ColorBlack uint32 = 0x000000
	ColorWhite uint32 = 0xFFFFFF
	ColorRed   uint32 = 0xFF2020
	ColorGreen uint32 = 0x20FF20
)

// bytesPerColumn is the height of one VRAM column in bytes (256 pixels)
const bytesPerColumn = ScreenHeight / 8

// Rasterize converts the 1bpp video RAM into a screen. The monitor is
// mounted rotated, so each run of 32 bytes is one screen column drawn from
// the bottom up with the least significant bit lowest. With overlay set,
// lit pixels take the colour of the cellophane strips glued to the glass.
func Rasterize(vram []byte, overlay bool, frame *Frame) {
	limit := len(vram)
	if limit > ScreenWidth*bytesPerColumn {
		limit = ScreenWidth * bytesPerColumn
	}

	for i := 0; i < limit; i++ {
		value := vram[i]
		x := i / bytesPerColumn
		bottom := ScreenHeight - 1 - (i%bytesPerColumn)*8
		for bit := 0; bit < 8; bit++ {
			y := bottom - bit
			pixel := ColorBlack
			if value&(1<<bit) != 0 {
				pixel = ColorWhite
				if overlay {
					pixel = OverlayColor(x, y)
				}
			}
			frame[y*ScreenWidth+x] = pixel
		}
	}
}

// OverlayColor returns the colour a lit pixel at (x, y) shows through the
// cabinet overlay
func OverlayColor(x, y int) uint32 {
	switch {
	case y >= 32 && y < 64:
		return ColorRed
	case y >= 184 && y < 240:
		return ColorGreen
	case y >= 240 && x >= 16 && x < 134:
		return ColorGreen
	}
	return ColorWhite
}
