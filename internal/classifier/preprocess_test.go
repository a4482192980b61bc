package classifier

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func gradientImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: uint8((x + y) * 255 / (w + h)),
				A: 255,
			})
		}
	}

	return img
}

func solidImage(w, h int, c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}

	return img
}

func TestPreprocessor_Shape(t *testing.T) {
	p := NewPreprocessor(224, NormalizationScale)

	tensor, err := p.Tensor(encodePNG(t, gradientImage(512, 384)))
	require.NoError(t, err)
	require.Len(t, tensor, 1*224*224*3)
}

func TestPreprocessor_Deterministic(t *testing.T) {
	p := NewPreprocessor(224, NormalizationScale)
	data := encodePNG(t, gradientImage(512, 384))

	a, err := p.Tensor(data)
	require.NoError(t, err)

	b, err := p.Tensor(data)
	require.NoError(t, err)

	require.Equal(t, a, b)
}

func TestPreprocessor_ScaleRange(t *testing.T) {
	p := NewPreprocessor(64, NormalizationScale)

	tensor, err := p.Tensor(encodePNG(t, gradientImage(100, 80)))
	require.NoError(t, err)

	for _, v := range tensor {
		require.GreaterOrEqual(t, v, float32(0))
		require.LessOrEqual(t, v, float32(1))
	}
}

func TestPreprocessor_SolidColorChannels(t *testing.T) {
	p := NewPreprocessor(32, NormalizationScale)

	// Resampling a uniform image is still uniform, so every pixel carries the
	// same RGB triple.
	tensor, err := p.Tensor(encodePNG(t, solidImage(96, 96, color.RGBA{R: 255, G: 128, B: 0, A: 255})))
	require.NoError(t, err)

	for i := 0; i < len(tensor); i += 3 {
		require.InDelta(t, 1.0, tensor[i+0], 1e-6)
		require.InDelta(t, 128.0/255.0, tensor[i+1], 1e-6)
		require.InDelta(t, 0.0, tensor[i+2], 1e-6)
	}
}

func TestPreprocessor_CenteredRange(t *testing.T) {
	p := NewPreprocessor(32, NormalizationCentered)

	tensor, err := p.Tensor(encodePNG(t, solidImage(32, 32, color.RGBA{A: 255})))
	require.NoError(t, err)

	// Black maps to -1 in the centered range.
	for _, v := range tensor {
		require.InDelta(t, -1.0, v, 1e-6)
	}
}

func TestPreprocessor_DecodeFailure(t *testing.T) {
	p := NewPreprocessor(224, NormalizationScale)

	_, err := p.Tensor([]byte("not an image"))
	require.Error(t, err)
	require.Equal(t, KindImageDecode, KindOf(err))
}

func TestParseNormalization(t *testing.T) {
	norm, err := ParseNormalization("scale")
	require.NoError(t, err)
	require.Equal(t, NormalizationScale, norm)

	norm, err = ParseNormalization("centered")
	require.NoError(t, err)
	require.Equal(t, NormalizationCentered, norm)

	_, err = ParseNormalization("imagenet")
	require.Error(t, err)
}
