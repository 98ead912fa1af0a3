package render

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"math"
	"sync/atomic"

	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/scene"
)

// maxFramePixels bounds width·height so the buffers stay addressable.
const maxFramePixels = 1 << 28

// DefaultNearPlane is the closest distance ahead of the camera at which a
// vertex is still projected.
const DefaultNearPlane = 0.1

// ErrAborted is returned by RenderScene when the frame was abandoned
// through Abort or context cancellation.
var ErrAborted = errors.New("render: aborted")

// Gatherer supplies the objects and lights of a frame, each with its
// transform into the camera's view space, from one consistent state.
// Implementations append to the given slices and return them extended.
type Gatherer interface {
	Gather(objects []scene.ObjectPlacement, lights []scene.LightPlacement, cam *scene.Camera) ([]scene.ObjectPlacement, []scene.LightPlacement)
}

// Options configures an ImageRenderer.
type Options struct {
	// BackfaceCulling skips faces that wind clockwise on screen.
	BackfaceCulling bool

	// NearPlane is the minimum distance ahead of the camera for a vertex
	// to be drawn. Zero selects DefaultNearPlane.
	NearPlane float64

	// Phong shares specular tables. Nil creates a private cache.
	Phong *PhongCache

	// Textures resolves material textures. Nil renders every face with its
	// material colour.
	Textures *TextureCache
}

// DefaultOptions returns options with back-face culling enabled.
func DefaultOptions() Options {
	return Options{BackfaceCulling: true, NearPlane: DefaultNearPlane}
}

// RenderStats counts the work done for the last frame.
type RenderStats struct {
	ObjectsGathered int
	ObjectsCulled   int // entirely outside the view volume
	FacesProjected  int
	FacesBackfaced  int
	FacesRejected   int // behind the near plane or off screen
	FacesRasterized int
	PixelsWritten   int
}

// ImageRenderer draws scenes into frame buffers. A renderer draws one frame
// at a time; Abort and IsAborted may be called from any goroutine.
type ImageRenderer struct {
	opts Options

	aborted atomic.Bool

	depth      []float64
	objects    []scene.ObjectPlacement
	lights     []scene.LightPlacement
	viewLights []viewLight
	proj       projection
	stats      RenderStats
}

// NewImageRenderer creates a renderer.
func NewImageRenderer(opts Options) *ImageRenderer {
	if opts.NearPlane <= 0 {
		opts.NearPlane = DefaultNearPlane
	}
	if opts.Phong == nil {
		opts.Phong = NewPhongCache(DefaultPhongCacheSize)
	}
	return &ImageRenderer{opts: opts}
}

// Abort asks the frame in progress to stop at its next object or face.
func (r *ImageRenderer) Abort() {
	r.aborted.Store(true)
}

// IsAborted reports whether the current frame has been asked to stop.
func (r *ImageRenderer) IsAborted() bool {
	return r.aborted.Load()
}

// Stats returns the counters of the last frame. It must not be called
// while a frame is rendering.
func (r *ImageRenderer) Stats() RenderStats {
	return r.stats
}

// Textures returns the texture cache, which may be nil.
func (r *ImageRenderer) Textures() *TextureCache {
	return r.opts.Textures
}

// RenderScene renders the objects and lights gathered from g, as seen by
// cam, into a width×height frame cleared to background. prev is reused when
// it already has the requested size; otherwise a new frame buffer is
// allocated. Cancelling ctx aborts the frame like Abort. An aborted frame
// returns ErrAborted and its buffer holds a partial image.
func (r *ImageRenderer) RenderScene(ctx context.Context, prev *Framebuffer, width, height int, background color.Color, cam *scene.Camera, g Gatherer) (*Framebuffer, error) {
	r.aborted.Store(false)
	stop := context.AfterFunc(ctx, r.Abort)
	defer stop()
	if ctx.Err() != nil {
		r.Abort()
	}

	if width <= 0 || height <= 0 || width > maxFramePixels/height {
		return nil, fmt.Errorf("render: invalid frame size %dx%d", width, height)
	}
	if cam == nil {
		return nil, errors.New("render: nil camera")
	}

	fb := prev
	if fb == nil || fb.Width != width || fb.Height != height || len(fb.Pixels) != width*height {
		fb = NewFramebuffer(width, height)
	}
	n := width * height
	if cap(r.depth) < n {
		r.depth = make([]float64, n)
	}
	t := target{width: width, height: height, pixels: fb.Pixels, depth: r.depth[:n]}

	fb.Clear(ARGB(background) | 0xFF000000)
	fill(t.depth, math.MaxFloat64)

	r.stats = RenderStats{}
	defer func() {
		clear(r.objects)
		clear(r.lights)
	}()

	if r.aborted.Load() {
		return fb, ErrAborted
	}
	r.objects, r.lights = g.Gather(r.objects[:0], r.lights[:0], cam)
	r.viewLights = resolveLights(r.viewLights, r.lights)
	r.stats.ObjectsGathered = len(r.objects)

	fr := frame{
		width:       width,
		height:      height,
		cx:          float64(width) / 2,
		cy:          float64(height) / 2,
		perspective: cam.PerspectiveFactor(),
		near:        r.opts.NearPlane,
		cull:        r.opts.BackfaceCulling,
	}
	fr.volume = NewViewVolume(fr.perspective, fr.cx, fr.cy, fr.near)

	for i := range r.objects {
		if r.aborted.Load() {
			return fb, r.abandon()
		}
		op := &r.objects[i]
		if op.Object == nil {
			continue
		}
		if !r.proj.project(op.Object, op.Transform, &fr, &r.stats) {
			r.stats.ObjectsCulled++
			continue
		}

		for j := range r.proj.faces {
			if r.aborted.Load() {
				return fb, r.abandon()
			}
			r.drawFace(&t, &r.proj.faces[j])
		}
	}
	Logger().Debug("frame rendered",
		"width", width,
		"height", height,
		"objects", r.stats.ObjectsGathered,
		"culled", r.stats.ObjectsCulled,
		"faces", r.stats.FacesRasterized,
		"pixels", r.stats.PixelsWritten,
	)
	return fb, nil
}

func (r *ImageRenderer) abandon() error {
	Logger().Debug("frame aborted",
		"objects", r.stats.ObjectsGathered,
		"faces", r.stats.FacesRasterized,
	)
	return ErrAborted
}

// drawFace lights f, resolves its material and rasterizes it.
func (r *ImageRenderer) drawFace(t *target, f *face) {
	mat := f.src.Material
	if mat == nil {
		mat = models.DefaultMaterial
	}
	f.light(&r.proj, r.viewLights)

	cr, cg, cb := mat.RGB()
	s := shader{r: float64(cr), g: float64(cg), b: float64(cb)}

	if tex := r.opts.Textures.Image(mat.Texture); tex != nil && f.setTexCoords(tex) {
		s.texture = tex
	}
	if mat.SpecularExponent > 0 && f.maxSpecular() > specularThreshold {
		s.phong = r.opts.Phong.Table(mat.SpecularExponent)
	}

	before := t.written
	t.fill(f, &s)
	r.stats.FacesRasterized++
	r.stats.PixelsWritten += t.written - before
}
