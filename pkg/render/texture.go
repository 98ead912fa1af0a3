package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
	"golang.org/x/sync/singleflight"
)

// DefaultTextureCacheSize bounds the number of decoded images kept.
const DefaultTextureCacheSize = 64

// TextureImage is a decoded texture in packed ARGB. Row 0 is the bottom row
// of the source image, so a V coordinate grows upwards like a face's UVs.
type TextureImage struct {
	Width  int
	Height int
	Pixels []uint32
}

// NewTextureImage converts img, flipping it vertically.
func NewTextureImage(img image.Image) *TextureImage {
	b := img.Bounds()
	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)

	t := &TextureImage{
		Width:  b.Dx(),
		Height: b.Dy(),
		Pixels: make([]uint32, b.Dx()*b.Dy()),
	}
	for y := range t.Height {
		src := nrgba.Pix[y*nrgba.Stride:]
		dst := t.Pixels[(t.Height-1-y)*t.Width:]
		for x := range t.Width {
			p := src[x*4 : x*4+4 : x*4+4]
			dst[x] = uint32(p[3])<<24 | uint32(p[0])<<16 | uint32(p[1])<<8 | uint32(p[2])
		}
	}
	return t
}

// Texel returns the pixel at integer texel coordinates, repeating the image
// in both directions.
func (t *TextureImage) Texel(u, v int) uint32 {
	return t.Pixels[wrapCoord(v, t.Height)*t.Width+wrapCoord(u, t.Width)]
}

// wrapCoord maps any integer onto [0, size).
func wrapCoord(x, size int) int {
	x %= size
	if x < 0 {
		x += size
	}
	return x
}

// TextureSource resolves a texture identity to encoded image bytes.
type TextureSource interface {
	ReadTexture(id string) ([]byte, error)
}

// FSSource reads textures from a file system using slash-separated paths.
type FSSource struct {
	FS fs.FS
}

// ReadTexture implements TextureSource.
func (s FSSource) ReadTexture(id string) ([]byte, error) {
	return fs.ReadFile(s.FS, strings.TrimPrefix(id, "/"))
}

// DirSource reads textures from the operating system. Relative identities
// resolve against Dir.
type DirSource struct {
	Dir string

	// BaseName looks up only the last element of the identity in Dir, for
	// images kept apart from the model that references them.
	BaseName bool
}

// ReadTexture implements TextureSource.
func (s DirSource) ReadTexture(id string) ([]byte, error) {
	path := filepath.FromSlash(id)
	if s.BaseName {
		path = filepath.Join(s.Dir, filepath.Base(path))
	} else if !filepath.IsAbs(path) {
		path = filepath.Join(s.Dir, path)
	}
	return os.ReadFile(path)
}

// MemorySource serves encoded images held in memory, such as those
// embedded in a glTF binary.
type MemorySource map[string][]byte

// ReadTexture implements TextureSource.
func (s MemorySource) ReadTexture(id string) ([]byte, error) {
	data, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, fs.ErrNotExist)
	}
	return data, nil
}

// MultiSource tries each source in order and returns the first hit.
type MultiSource []TextureSource

// ReadTexture implements TextureSource.
func (s MultiSource) ReadTexture(id string) ([]byte, error) {
	var errs []error
	for _, src := range s {
		data, err := src.ReadTexture(id)
		if err == nil {
			return data, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil, fmt.Errorf("%s: %w", id, fs.ErrNotExist)
	}
	return nil, errors.Join(errs...)
}

// TextureCache decodes textures on first use and keeps the most recently
// used ones. Identities that fail to load are remembered as nil so the
// failure is reported once.
type TextureCache struct {
	source TextureSource
	images *lru.Cache[string, *TextureImage]
	group  singleflight.Group
}

// NewTextureCache creates a cache over source holding at most size images.
func NewTextureCache(source TextureSource, size int) *TextureCache {
	// lru.New only fails for non-positive sizes.
	images, _ := lru.New[string, *TextureImage](max(1, size))
	return &TextureCache{source: source, images: images}
}

// Image returns the decoded texture for id, or nil when id is empty or the
// image cannot be loaded. A nil cache always returns nil.
func (c *TextureCache) Image(id string) *TextureImage {
	if c == nil || id == "" {
		return nil
	}
	if img, ok := c.images.Get(id); ok {
		return img
	}

	v, _, _ := c.group.Do(id, func() (any, error) {
		if img, ok := c.images.Get(id); ok {
			return img, nil
		}
		img, err := c.load(id)
		if err != nil {
			Logger().Warn("texture unavailable", "id", id, "err", err)
		}
		c.images.Add(id, img)
		return img, nil
	})
	return v.(*TextureImage)
}

// Forget drops id so the next lookup reloads it. It reports whether id was
// cached.
func (c *TextureCache) Forget(id string) bool {
	if c == nil {
		return false
	}
	return c.images.Remove(id)
}

// Purge drops every cached image.
func (c *TextureCache) Purge() {
	if c != nil {
		c.images.Purge()
	}
}

// Len returns the number of cached identities, including failed ones.
func (c *TextureCache) Len() int {
	return c.images.Len()
}

func (c *TextureCache) load(id string) (*TextureImage, error) {
	if c.source == nil {
		return nil, errors.New("texture: no source configured")
	}
	data, err := c.source.ReadTexture(id)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", id, err)
	}
	img, err := DecodeImage(data, id)
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", id, err)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("texture: %s is empty", id)
	}
	return NewTextureImage(img), nil
}

// imageDecoders are matched against the leading bytes of the data. TGA has
// no signature and is chosen by file extension instead.
var imageDecoders = []struct {
	magic  string
	decode func(io.Reader) (image.Image, error)
}{
	{"\x89PNG\r\n\x1a\n", png.Decode},
	{"\xff\xd8", jpeg.Decode},
	{"GIF8", gif.Decode},
	{"BM", bmp.Decode},
	{"II*\x00", tiff.Decode},
	{"MM\x00*", tiff.Decode},
	{"RIFF????WEBP", webp.Decode},
}

// DecodeImage decodes PNG, JPEG, GIF, BMP, TIFF, WebP or TGA data. name is
// only consulted for its extension.
func DecodeImage(data []byte, name string) (image.Image, error) {
	for _, d := range imageDecoders {
		if matchMagic(d.magic, data) {
			return d.decode(bytes.NewReader(data))
		}
	}
	if strings.EqualFold(filepath.Ext(name), ".tga") {
		return tga.Decode(bytes.NewReader(data))
	}
	return nil, image.ErrFormat
}

// matchMagic reports whether data starts with magic; '?' matches any byte.
func matchMagic(magic string, data []byte) bool {
	if len(data) < len(magic) {
		return false
	}
	for i := range len(magic) {
		if magic[i] != '?' && magic[i] != data[i] {
			return false
		}
	}
	return true
}
