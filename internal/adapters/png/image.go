// Package png renders bias matrices as grayscale PNG images.
//
// The image is two 32×32 grids of square blocks side by side: avalanche bias
// on the left ([bit_in] down, [bit_out] across), tree-seeding bias on the
// right ([x_bin] down, [y_bin] across). Black is 0, white is 1 or more.
package png

import (
	"fmt"
	"image"
	"image/color"
	imgpng "image/png"
	"io"
	"os"

	"github.com/gkoulin/owen-hash-experiments/internal/domain/bias"
)

// BlockSize is the edge length of one matrix cell in pixels.
const BlockSize = 8

// Image dimensions.
const (
	Width  = BlockSize * bias.Bits * 2
	Height = BlockSize * bias.Bits
)

// BiasImage draws st into a new grayscale image.
func BiasImage(st *bias.Stats) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, Width, Height))
	for row := 0; row < bias.Bits; row++ {
		for col := 0; col < bias.Bits; col++ {
			fill(img, col, row, gray(st.Avalanche[row][col]))
			fill(img, col+bias.Bits, row, gray(st.Tree[row][col]))
		}
	}
	return img
}

// WriteBiasImage encodes the image of st as PNG to w.
func WriteBiasImage(w io.Writer, st *bias.Stats) error {
	if err := imgpng.Encode(w, BiasImage(st)); err != nil {
		return fmt.Errorf("encode bias image: %w", err)
	}
	return nil
}

// SaveBiasImage writes the image of st to path.
func SaveBiasImage(path string, st *bias.Stats) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteBiasImage(f, st); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func gray(v float64) color.Gray {
	v = min(max(v, 0), 1)
	return color.Gray{Y: uint8(v * 255)}
}

func fill(img *image.Gray, x, y int, c color.Gray) {
	x0, y0 := x*BlockSize, y*BlockSize
	for py := y0; py < y0+BlockSize; py++ {
		for px := x0; px < x0+BlockSize; px++ {
			img.SetGray(px, py, c)
		}
	}
}
