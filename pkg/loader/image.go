package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"os"

	_ "golang.org/x/image/bmp"  // Register BMP decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff" // Register TIFF decoder
	_ "golang.org/x/image/webp" // Register WebP decoder

	"github.com/taigrr/scenery/pkg/scene"
)

// loadTextureFile decodes the image at path.
func loadTextureFile(path string) (scene.Texture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return scene.Texture{}, err
	}
	return decodeTexture(data)
}

// decodeTexture decodes an encoded image into 8-bit texture bytes.
func decodeTexture(data []byte) (scene.Texture, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return scene.Texture{}, fmt.Errorf("decode image: %w", err)
	}
	return textureFromImage(img)
}

// textureFromImage packs img into tightly packed rows of 8-bit channels.
// Grayscale images keep one channel, opaque color formats three, the rest
// four (non-premultiplied RGBA).
func textureFromImage(img image.Image) (scene.Texture, error) {
	channels := 4
	switch img.(type) {
	case *image.RGBA64, *image.NRGBA64, *image.Gray16:
		return scene.Texture{}, fmt.Errorf("%w: %T has 16 bits per channel", ErrUnsupportedPixelType, img)
	case *image.Gray:
		channels = 1
	case *image.YCbCr, *image.CMYK:
		channels = 3
	}

	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	tex := scene.Texture{
		Width:    b.Dx(),
		Height:   b.Dy(),
		Channels: channels,
		Pixels:   make([]byte, 0, b.Dx()*b.Dy()*channels),
	}
	for i := 0; i < len(nrgba.Pix); i += 4 {
		tex.Pixels = append(tex.Pixels, nrgba.Pix[i:i+channels]...)
	}
	return tex, nil
}
