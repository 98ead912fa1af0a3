package render

import (
	"math"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/scene"
)

const (
	// specularCenter is the quantized reflection coordinate of a ray
	// bouncing straight back at the viewer.
	specularCenter = 32768
	specularMax    = 65535

	// specularThreshold is the weakest highlight worth a table lookup.
	specularThreshold = 1.0
)

// viewLight is a light resolved into view space for one frame.
type viewLight struct {
	ambient   bool
	intensity float64
	fallOff   float64
	position  math3d.Vec3
}

func resolveLights(dst []viewLight, lights []scene.LightPlacement) []viewLight {
	dst = dst[:0]
	for _, lp := range lights {
		if lp.Light == nil {
			continue
		}
		dst = append(dst, viewLight{
			ambient:   lp.Light.IsAmbient(),
			intensity: lp.Light.Intensity,
			fallOff:   lp.Light.FallOff,
			position:  lp.Position(),
		})
	}
	return dst
}

// light computes per-vertex diffuse intensity and the strongest highlight
// for every vertex of f. Only the brightest point light at a vertex sets its
// highlight direction.
func (f *face) light(p *projection, lights []viewLight) {
	var normals []math3d.Vec3
	if f.src.Smooth {
		normals = p.vertexNormals()
	}

	for j, vi := range f.src.Vertices {
		n := f.normal
		if normals != nil {
			n = normals[vi]
		}
		pos := p.view[vi]

		diffuse, sf := 0.0, 0.0
		sx, sy := float64(specularCenter), float64(specularCenter)
		for i := range lights {
			l := &lights[i]
			if l.ambient {
				diffuse += l.intensity * 256
				continue
			}

			dir := l.position.Sub(pos)
			dist := dir.Len()
			dir = dir.Normalize()
			cos := n.Dot(dir)
			if cos <= 0 {
				continue
			}

			att := l.intensity
			if l.fallOff > 0 {
				att *= l.fallOff / (l.fallOff + dist)
			}
			diffuse += att * cos * 256

			if s := att * 256; s > sf {
				sf = s
				sx, sy = reflectionCoords(n, dir)
			}
		}

		f.diffuse[j] = diffuse
		f.specX[j], f.specY[j], f.specF[j] = sx, sy, sf
	}
}

// reflectionCoords quantizes the reflection of the light direction about n
// to phong table coordinates. Reflections pointing away from the viewer map
// to the table corner.
func reflectionCoords(n, toLight math3d.Vec3) (x, y float64) {
	r := toLight.Reflect(n).Negate()
	if r.Z <= 0 {
		return 0, 0
	}
	x = math.Max(0, math.Min(specularMax, specularCenter+r.X*specularCenter))
	y = math.Max(0, math.Min(specularMax, specularCenter-r.Y*specularCenter))
	return x, y
}

// maxSpecular returns the strongest highlight over the face's vertices.
func (f *face) maxSpecular() float64 {
	m := 0.0
	for _, s := range f.specF {
		m = max(m, s)
	}
	return m
}
