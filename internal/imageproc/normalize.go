// Package imageproc converts uploaded lesion photographs into model input tensors.
package imageproc

import (
	"bytes"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder

	"golang.org/x/image/draw"

	"github.com/dermascan/dermascan-go/internal/errors"
)

// Channels is the number of color channels in the model input tensor.
const Channels = 3

// Tensor is a normalized image laid out in NHWC order with batch size 1.
// Channel values are scaled to the 0-1 range.
type Tensor struct {
	Data   []float32
	Width  int
	Height int
}

// Normalize decodes arbitrary image bytes, resizes them to size x size with
// Catmull-Rom interpolation and returns a (1, size, size, 3) float tensor.
// The same input bytes always produce the same tensor, identical inputs must
// yield identical downstream classification.
func Normalize(data []byte, size int) (*Tensor, error) {
	if len(data) == 0 {
		return nil, errors.New(errors.ErrEmptyInput).
			Component("imageproc").
			Category(errors.CategoryValidation).
			Build()
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(errors.Join(errors.ErrImageDecode, err)).
			Component("imageproc").
			Category(errors.CategoryImageDecode).
			Context("image_bytes", len(data)).
			Build()
	}

	resized := resizeRGBA(img, size)

	// NHWC with batch=1: length = 1 * size * size * 3
	out := make([]float32, 1*size*size*Channels)

	// iterate rows (y) then columns (x) so memory layout matches NHWC
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			offset := resized.PixOffset(x, y)
			r := float32(resized.Pix[offset+0])
			g := float32(resized.Pix[offset+1])
			b := float32(resized.Pix[offset+2])

			base := ((y * size) + x) * Channels
			out[base+0] = r / 255.0
			out[base+1] = g / 255.0
			out[base+2] = b / 255.0
		}
	}

	getLogger().Debug("normalized image",
		"format", format,
		"source_width", img.Bounds().Dx(),
		"source_height", img.Bounds().Dy(),
		"target_size", size)

	return &Tensor{Data: out, Width: size, Height: size}, nil
}

// resizeRGBA scales the source image to a square RGBA image of the given
// size. Catmull-Rom is used for its quality and because it is fully
// deterministic for a given input.
func resizeRGBA(src image.Image, size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if b := src.Bounds(); b.Dx() == size && b.Dy() == size {
		draw.Copy(dst, image.Point{}, src, b, draw.Src, nil)
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}
