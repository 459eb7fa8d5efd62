// Package preview draws a loaded scene with a small software rasterizer,
// lit by the scene's quad light. Frames can be written as PNG or drawn into
// a terminal with half-block characters.
package preview

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"
)

// Framebuffer is the color target of a Rasterizer. When drawn into a
// terminal each cell shows two pixels stacked vertically, so Height is
// twice the row count.
type Framebuffer struct {
	Width, Height int

	img *image.RGBA
}

func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Clear paints every pixel c.
func (fb *Framebuffer) Clear(c color.RGBA) {
	draw.Draw(fb.img, fb.img.Rect, image.NewUniform(c), image.Point{}, draw.Src)
}

// SetPixel writes c at (x, y). Writes outside the frame are dropped.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	fb.img.SetRGBA(x, y, c)
}

// GetPixel reads (x, y); outside the frame it is transparent black.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	return fb.img.RGBAAt(x, y)
}

func (fb *Framebuffer) WritePNG(w io.Writer) error {
	return png.Encode(w, fb.img)
}

// SavePNG writes the frame to path, replacing any existing file.
func (fb *Framebuffer) SavePNG(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()
	return fb.WritePNG(f)
}
