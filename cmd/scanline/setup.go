package main

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/taigrr/scanline/internal/config"
	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
	"github.com/taigrr/scanline/pkg/render"
	"github.com/taigrr/scanline/pkg/scene"
)

// fitMargin leaves some background around a fitted model.
const fitMargin = 1.1

// stage is a loaded model placed in a scene. The model sits under pivot,
// centred on the origin, so rotating pivot spins it in place.
type stage struct {
	model  *models.Model
	scene  *scene.Scene
	pivot  *scene.Node
	radius float64
}

func loadModel(path string, cfg config.Config) (*models.Model, error) {
	loader := models.NewGLTFLoader()
	loader.SmoothNormals = !cfg.FlatShading

	model, err := loader.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	slog.Debug("model loaded", "path", path, "instances", len(model.Instances),
		"faces", model.FaceCount(), "textures", len(model.Textures))
	return model, nil
}

func newStage(model *models.Model, cfg config.Config) *stage {
	lo, hi := model.Bounds()
	center := lo.Add(hi).Scale(0.5)
	radius := hi.Sub(lo).Len() / 2
	if radius <= 0 {
		radius = 1
	}

	centred := scene.NewNode("centred")
	centred.Transform = math3d.Translate(center.Scale(-1))
	for _, inst := range model.Instances {
		centred.Add(scene.NewObjectNode(inst.Object, inst.Transform))
	}
	pivot := scene.NewNode(model.Name).Add(centred)

	s := scene.New()
	s.Add(pivot)
	for i, l := range cfg.Lights {
		var light *scene.Light
		var pos math3d.Vec3
		if l.Ambient {
			light = scene.NewAmbientLight(l.Intensity)
		} else {
			light = scene.NewPointLight(l.Intensity, l.FallOff*radius)
			pos = math3d.V3(l.Position[0], l.Position[1], l.Position[2]).Scale(radius)
		}
		light.Name = fmt.Sprintf("light%d", i)
		s.Add(scene.NewLightNode(light, pos))
	}

	return &stage{model: model, scene: s, pivot: pivot, radius: radius}
}

// spin sets the model orientation.
func (st *stage) spin(pitch, yaw, roll float64) {
	st.scene.Update(func(*scene.Node) {
		st.pivot.Transform = math3d.RotateX(pitch).
			Mul(math3d.RotateY(yaw)).
			Mul(math3d.RotateZ(roll))
	})
}

// placeCamera orbits cam around the model. zoom scales the configured
// distance, which is measured in model radii.
func (st *stage) placeCamera(cam *scene.Camera, cfg config.Config, width, height int, zoom float64) {
	cam.Aperture = cfg.Aperture * math.Pi / 180
	cam.FitWidth(width)

	dist := cfg.Camera.Distance
	if dist <= 0 {
		dist = fitDistance(cam.Aperture, width, height)
	}
	cam.Orbit(math3d.Vec3{}, dist*zoom*st.radius,
		cfg.Camera.Yaw*math.Pi/180, cfg.Camera.Pitch*math.Pi/180)
}

// fitDistance is the distance, in radii, at which a unit sphere fits the
// narrower side of the frame.
func fitDistance(aperture float64, width, height int) float64 {
	half := aperture / 2
	if height < width {
		half = math.Atan(math.Tan(half) * float64(height) / float64(width))
	}
	return fitMargin / math.Sin(half)
}

func (st *stage) newRenderer(cfg config.Config) *render.ImageRenderer {
	sources := render.MultiSource{render.MemorySource(st.model.Textures), render.DirSource{}}
	if cfg.TextureDir != "" {
		sources = append(sources, render.DirSource{Dir: cfg.TextureDir, BaseName: true})
	}

	return render.NewImageRenderer(render.Options{
		BackfaceCulling: !cfg.NoCull,
		NearPlane:       cfg.NearPlane * st.radius,
		Phong:           render.NewPhongCache(cfg.PhongCacheSize),
		Textures:        render.NewTextureCache(sources, cfg.TextureCacheSize),
	})
}

// refreshTextures drops cached images whose files changed. Images found by
// base name in textureDir have no traceable identity, so a change there
// drops everything. It reports whether anything was dropped.
func refreshTextures(cache *render.TextureCache, changed []string, textureDir string) bool {
	if textureDir != "" {
		dir := filepath.Clean(textureDir)
		for _, name := range changed {
			if filepath.Dir(name) == dir {
				cache.Purge()
				return true
			}
		}
	}

	dropped := false
	for _, name := range changed {
		if cache.Forget(name) {
			dropped = true
		}
	}
	return dropped
}
