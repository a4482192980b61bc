package classifier

import (
	"bytes"
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/transform"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Normalization selects the numeric range pixel channels are scaled into.
// Which one is correct depends on the bound model, so it is configured per
// model rather than hardcoded.
type Normalization string

const (
	// NormalizationScale divides each channel by 255 into [0,1].
	NormalizationScale Normalization = "scale"
	// NormalizationCentered maps each channel into [-1,1].
	NormalizationCentered Normalization = "centered"
)

func ParseNormalization(s string) (Normalization, error) {
	switch Normalization(s) {
	case NormalizationScale:
		return NormalizationScale, nil
	case NormalizationCentered:
		return NormalizationCentered, nil
	default:
		return "", fmt.Errorf("unknown normalization %q", s)
	}
}

// Preprocessor converts raw image bytes into the fixed-shape float32 tensor
// the model expects. It is stateless; independent images may be preprocessed
// concurrently.
type Preprocessor struct {
	size int
	norm Normalization
}

func NewPreprocessor(size int, norm Normalization) *Preprocessor {
	return &Preprocessor{size: size, norm: norm}
}

// Tensor decodes data, resizes it to size×size with bilinear resampling and
// returns the normalized pixels in NHWC order, shape (1, size, size, 3).
// The alpha channel, if present, is discarded. Decode failures are tagged
// KindImageDecode.
func (p *Preprocessor) Tensor(data []byte) ([]float32, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, newError(KindImageDecode, "failed to decode image: %w", err)
	}

	return p.TensorFromImage(img), nil
}

// TensorFromImage is the resize-and-normalize half of Tensor, for callers
// that already hold a decoded image.
func (p *Preprocessor) TensorFromImage(img image.Image) []float32 {
	resized := transform.Resize(img, p.size, p.size, transform.Linear)
	bounds := resized.Bounds()

	out := make([]float32, 1*p.size*p.size*3)

	// Rows then columns so the memory layout matches NHWC.
	for y := 0; y < p.size; y++ {
		for x := 0; x < p.size; x++ {
			r32, g32, b32, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			base := ((y * p.size) + x) * 3
			out[base+0] = p.normalize(r32)
			out[base+1] = p.normalize(g32)
			out[base+2] = p.normalize(b32)
		}
	}

	return out
}

// InputLen is the number of float32 values a preprocessed tensor holds.
func (p *Preprocessor) InputLen() int {
	return 1 * p.size * p.size * 3
}

func (p *Preprocessor) normalize(channel uint32) float32 {
	// RGBA returns 16-bit values; shift back to the 0-255 range first.
	v := float32(channel>>8) / 255.0
	if p.norm == NormalizationCentered {
		return v*2 - 1
	}

	return v
}
