// Package render implements a software scanline renderer: perspective
// projection, back-face culling, per-vertex lighting with a cached specular
// table, and z-buffered, edge-walked polygon fill into an ARGB frame buffer.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/draw"
)

// Framebuffer holds packed 0xAARRGGBB pixels.
type Framebuffer struct {
	Width  int
	Height int
	Pixels []uint32 // Row-major pixel data, row 0 at the top
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]uint32, width*height),
	}
}

// Clear fills the framebuffer with a packed ARGB colour.
func (fb *Framebuffer) Clear(argb uint32) {
	fill(fb.Pixels, argb)
}

// fill sets every element of s to v using copy-doubling.
func fill[T any](s []T, v T) {
	if len(s) == 0 {
		return
	}
	s[0] = v
	for i := 1; i < len(s); i *= 2 {
		copy(s[i:], s[:i])
	}
}

// GetPixel returns the packed colour at (x, y), or 0 when out of range.
func (fb *Framebuffer) GetPixel(x, y int) uint32 {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return 0
	}
	return fb.Pixels[y*fb.Width+x]
}

// ToImage converts the framebuffer to a standard Go image.RGBA.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := 0; y < fb.Height; y++ {
		for x := 0; x < fb.Width; x++ {
			img.SetRGBA(x, y, UnpackARGB(fb.Pixels[y*fb.Width+x]))
		}
	}
	return img
}

// Scaled returns the image enlarged by an integer factor with
// nearest-neighbour sampling, so individual pixels stay crisp.
func (fb *Framebuffer) Scaled(factor int) image.Image {
	src := fb.ToImage()
	if factor <= 1 {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, fb.Width*factor, fb.Height*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst
}

// Save writes img to path, choosing PNG or WebP from the file extension.
func Save(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".png":
		err = png.Encode(f, img)
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	default:
		err = fmt.Errorf("unsupported output format %q (use .png or .webp)", ext)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// PackARGB packs opaque channels into 0xFFRRGGBB.
func PackARGB(r, g, b uint32) uint32 {
	return 0xFF000000 | r<<16 | g<<8 | b
}

// ARGB packs any colour into 0xAARRGGBB, dropping premultiplication
// precision below 8 bits.
func ARGB(c color.Color) uint32 {
	r, g, b, a := c.RGBA()
	return (a>>8)<<24 | (r>>8)<<16 | (g>>8)<<8 | b>>8
}

// UnpackARGB converts a packed colour to color.RGBA.
func UnpackARGB(argb uint32) color.RGBA {
	return color.RGBA{
		R: uint8(argb >> 16),
		G: uint8(argb >> 8),
		B: uint8(argb),
		A: uint8(argb >> 24),
	}
}
