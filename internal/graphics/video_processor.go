package graphics

// VideoProcessor applies picture adjustments to a frame
type VideoProcessor struct {
	brightness float32
	contrast   float32
}

// NewVideoProcessor creates a new video processor
func NewVideoProcessor(brightness, contrast float32) *VideoProcessor {
	return &VideoProcessor{
		brightness: brightness,
		contrast:   contrast,
	}
}

// ProcessFrame adjusts the frame in place
func (vp *VideoProcessor) ProcessFrame(frame *Frame) {
	if vp.brightness == 1.0 && vp.contrast == 1.0 {
		return
	}

	// The screen uses a handful of colours, so cache the mapping
	cache := make(map[uint32]uint32, 8)
	for i, pixel := range frame {
		adjusted, ok := cache[pixel]
		if !ok {
			adjusted = vp.adjust(pixel)
			cache[pixel] = adjusted
		}
		frame[i] = adjusted
	}
}

func (vp *VideoProcessor) adjust(pixel uint32) uint32 {
	channel := func(shift uint) uint32 {
		v := float32((pixel>>shift)&0xFF) * vp.brightness
		v = ((v/255.0-0.5)*vp.contrast + 0.5) * 255.0
		return uint32(clamp(v, 0, 255)) << shift
	}
	return channel(16) | channel(8) | channel(0)
}

// clamp limits a value to a range
func clamp(value, min, max float32) float32 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// SetBrightness updates the brightness value
func (vp *VideoProcessor) SetBrightness(brightness float32) {
	vp.brightness = brightness
}

// SetContrast updates the contrast value
func (vp *VideoProcessor) SetContrast(contrast float32) {
	vp.contrast = contrast
}
