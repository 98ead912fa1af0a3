package render

import (
	"math"

	"golang.org/x/image/math/fixed"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
)

// maxScreenCoord keeps projected coordinates inside fixed.Int26_6 range
// with room for the edge arithmetic.
const maxScreenCoord = 1 << 24

// frame holds the per-frame projection parameters.
type frame struct {
	width, height int
	cx, cy        float64
	perspective   float64
	near          float64
	cull          bool
	volume        ViewVolume
}

// projection is the per-object working state, reused across objects and
// frames so steady-state rendering does not allocate.
type projection struct {
	object    *models.Object
	transform math3d.Mat4

	view  []math3d.Vec3
	x, y  []fixed.Int26_6
	depth []float64 // 1/distance ahead of the camera; 0 when too close or behind

	normals      []math3d.Vec3
	normalsReady bool

	faces []face
}

// face is a projected face ready for lighting and rasterization. All slices
// run parallel to the source face's vertex list.
type face struct {
	src    *models.Face
	normal math3d.Vec3

	x, y, depth []float64
	diffuse     []float64 // 256 = fully lit
	specX       []float64
	specY       []float64
	specF       []float64 // 256 = full highlight
	texU, texV  []float64 // texel units
}

func toFixed(v float64) fixed.Int26_6 {
	v = math.Max(-maxScreenCoord, math.Min(maxScreenCoord, v))
	return fixed.Int26_6(math.Round(v * 64))
}

func fromFixed(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

func resize[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}
	return s[:n]
}

// project transforms obj into view and screen space and collects the faces
// that survive culling. It returns false when the whole object lies outside
// the view volume.
func (p *projection) project(obj *models.Object, transform math3d.Mat4, fr *frame, stats *RenderStats) bool {
	p.object = obj
	p.transform = transform
	p.normalsReady = false
	p.faces = p.faces[:0]

	n := len(obj.Vertices)
	p.view = resize(p.view, n)
	for i, v := range obj.Vertices {
		p.view[i] = transform.MulVec3(v)
	}
	if !fr.volume.IntersectAABB(BoundPoints(p.view)) {
		return false
	}

	p.x = resize(p.x, n)
	p.y = resize(p.y, n)
	p.depth = resize(p.depth, n)
	cx, cy := toFixed(fr.cx), toFixed(fr.cy)
	for i, v := range p.view {
		ahead := -v.Z
		if ahead < fr.near {
			p.x[i], p.y[i], p.depth[i] = cx, cy, 0
			continue
		}
		d := 1 / ahead
		p.x[i] = toFixed(fr.cx + v.X*fr.perspective*d)
		p.y[i] = toFixed(fr.cy - v.Y*fr.perspective*d)
		p.depth[i] = d
	}

	normals := obj.FaceNormals()
	for fi := range obj.Faces {
		src := &obj.Faces[fi]
		if !p.valid(src) {
			continue
		}
		stats.FacesProjected++

		if fr.cull && p.backFacing(src.Vertices) {
			stats.FacesBackfaced++
			continue
		}
		if !p.onScreen(src.Vertices, fr) {
			stats.FacesRejected++
			continue
		}
		p.addFace(src, transform.MulVec3Dir(normals[fi]).Normalize())
	}
	return true
}

// valid reports whether src is a polygon with in-range indices.
func (p *projection) valid(src *models.Face) bool {
	if len(src.Vertices) < 3 {
		return false
	}
	for _, vi := range src.Vertices {
		if vi < 0 || vi >= len(p.view) {
			return false
		}
	}
	return true
}

// backFacing reports whether the first three projected vertices wind
// clockwise on screen. Zero-area faces are kept.
func (p *projection) backFacing(idx []int) bool {
	x0, y0 := int64(p.x[idx[0]]), int64(p.y[idx[0]])
	x1, y1 := int64(p.x[idx[1]]), int64(p.y[idx[1]])
	x2, y2 := int64(p.x[idx[2]]), int64(p.y[idx[2]])
	return (x1-x0)*(y2-y0)-(y1-y0)*(x2-x0) > 0
}

// onScreen rejects faces touching the region behind the near plane and
// faces whose screen bounds miss the frame.
func (p *projection) onScreen(idx []int, fr *frame) bool {
	minX, maxX := p.x[idx[0]], p.x[idx[0]]
	minY, maxY := p.y[idx[0]], p.y[idx[0]]
	for _, vi := range idx {
		if p.depth[vi] == 0 {
			return false
		}
		minX, maxX = min(minX, p.x[vi]), max(maxX, p.x[vi])
		minY, maxY = min(minY, p.y[vi]), max(maxY, p.y[vi])
	}
	return minX.Floor() < fr.width && maxX >= 0 && minY.Floor() < fr.height && maxY >= 0
}

func (p *projection) addFace(src *models.Face, normal math3d.Vec3) {
	n := len(p.faces)
	if n < cap(p.faces) {
		p.faces = p.faces[:n+1]
	} else {
		p.faces = append(p.faces, face{})
	}
	f := &p.faces[n]
	f.src = src
	f.normal = normal

	k := len(src.Vertices)
	f.x = resize(f.x, k)
	f.y = resize(f.y, k)
	f.depth = resize(f.depth, k)
	f.diffuse = resize(f.diffuse, k)
	f.specX = resize(f.specX, k)
	f.specY = resize(f.specY, k)
	f.specF = resize(f.specF, k)
	f.texU = resize(f.texU, k)
	f.texV = resize(f.texV, k)
	for j, vi := range src.Vertices {
		f.x[j] = fromFixed(p.x[vi])
		f.y[j] = fromFixed(p.y[vi])
		f.depth[j] = p.depth[vi]
		f.texU[j], f.texV[j] = 0, 0
	}
}

// vertexNormals returns the object's vertex normals rotated into view
// space, computed once per object.
func (p *projection) vertexNormals() []math3d.Vec3 {
	if p.normalsReady {
		return p.normals
	}
	src := p.object.VertexNormals()
	p.normals = resize(p.normals, len(src))
	for i, n := range src {
		p.normals[i] = p.transform.MulVec3Dir(n).Normalize()
	}
	p.normalsReady = true
	return p.normals
}

// setTexCoords converts the face's normalized UVs to texel units of tex.
// It reports false when the face has no usable UVs.
func (f *face) setTexCoords(tex *TextureImage) bool {
	if len(f.src.UV) != len(f.src.Vertices) {
		return false
	}
	w, h := float64(tex.Width), float64(tex.Height)
	for j, uv := range f.src.UV {
		f.texU[j] = uv.X * w
		f.texV[j] = uv.Y * h
	}
	return true
}
