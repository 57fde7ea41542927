package imageproc

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dermascan/dermascan-go/internal/errors"
)

// encodePNG renders a simple gradient image of the given dimensions.
func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{
				R: uint8(x * 255 / max(width, 1)),
				G: uint8(y * 255 / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeShape(t *testing.T) {
	t.Parallel()

	tensor, err := Normalize(encodePNG(t, 640, 480), 224)
	require.NoError(t, err)
	assert.Equal(t, 224, tensor.Width)
	assert.Equal(t, 224, tensor.Height)
	assert.Len(t, tensor.Data, 1*224*224*Channels)
}

func TestNormalizeValueRange(t *testing.T) {
	t.Parallel()

	tensor, err := Normalize(encodePNG(t, 300, 300), 224)
	require.NoError(t, err)
	for i, v := range tensor.Data {
		if v < 0 || v > 1 {
			t.Fatalf("value at index %d out of range: %f", i, v)
		}
	}
}

func TestNormalizeDeterministic(t *testing.T) {
	t.Parallel()

	data := encodePNG(t, 500, 333)
	first, err := Normalize(data, 224)
	require.NoError(t, err)
	second, err := Normalize(data, 224)
	require.NoError(t, err)
	assert.Equal(t, first.Data, second.Data)
}

func TestNormalizeExactSizeSkipsScaling(t *testing.T) {
	t.Parallel()

	tensor, err := Normalize(encodePNG(t, 224, 224), 224)
	require.NoError(t, err)
	// Pixel (0,0) of the gradient is (0, 0, 128), scaled to 0-1.
	assert.InDelta(t, 0.0, tensor.Data[0], 0.01)
	assert.InDelta(t, 128.0/255.0, tensor.Data[2], 0.01)
}

func TestNormalizeEmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Normalize(nil, 224)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrEmptyInput))
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestNormalizeMalformedImage(t *testing.T) {
	t.Parallel()

	_, err := Normalize([]byte("definitely not an image"), 224)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrImageDecode))
	assert.True(t, errors.IsCategory(err, errors.CategoryImageDecode))
}
