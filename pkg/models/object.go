// Package models provides the renderable object representation and the
// loaders and builders that produce it.
package models

import (
	"sync"

	"github.com/taigrr/scanline/pkg/math3d"
)

// Object is a polygon mesh: shared vertices and n-gon faces referencing them.
type Object struct {
	Name     string
	Vertices []math3d.Vec3
	Faces    []Face

	// Normals optionally supplies per-vertex normals. When nil, vertex
	// normals are averaged from the adjoining faces.
	Normals []math3d.Vec3

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3

	mu            sync.Mutex
	faceNormals   []math3d.Vec3
	vertexNormals []math3d.Vec3
}

// Face is a convex polygon. Vertices index into Object.Vertices in
// counter-clockwise order as seen from the front.
type Face struct {
	Vertices []int

	// UV holds one normalized texture coordinate per vertex, with V=0 at the
	// bottom edge of the image. May be nil for untextured faces.
	UV []math3d.Vec2

	Material *Material

	// Smooth selects vertex normals instead of the face normal for lighting.
	Smooth bool
}

// NewObject creates an empty object.
func NewObject(name string) *Object {
	return &Object{Name: name}
}

// AddVertex appends a vertex and returns its index.
func (o *Object) AddVertex(v math3d.Vec3) int {
	o.Vertices = append(o.Vertices, v)
	o.invalidate()
	return len(o.Vertices) - 1
}

// AddFace appends a face.
func (o *Object) AddFace(f Face) {
	o.Faces = append(o.Faces, f)
	o.invalidate()
}

func (o *Object) invalidate() {
	o.mu.Lock()
	o.faceNormals = nil
	o.vertexNormals = nil
	o.mu.Unlock()
}

// CalculateBounds computes the axis-aligned bounding box.
func (o *Object) CalculateBounds() {
	if len(o.Vertices) == 0 {
		return
	}

	o.BoundsMin = o.Vertices[0]
	o.BoundsMax = o.Vertices[0]

	for _, v := range o.Vertices[1:] {
		o.BoundsMin = o.BoundsMin.Min(v)
		o.BoundsMax = o.BoundsMax.Max(v)
	}
}

// Center returns the center of the bounding box.
func (o *Object) Center() math3d.Vec3 {
	return o.BoundsMin.Add(o.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (o *Object) Size() math3d.Vec3 {
	return o.BoundsMax.Sub(o.BoundsMin)
}

// FaceCount returns the number of faces.
func (o *Object) FaceCount() int {
	return len(o.Faces)
}

// VertexCount returns the number of vertices.
func (o *Object) VertexCount() int {
	return len(o.Vertices)
}

// FaceNormal returns the unit normal of face i. Faces with fewer than three
// vertices or zero area have a zero normal.
func (o *Object) FaceNormal(i int) math3d.Vec3 {
	return o.FaceNormals()[i]
}

// FaceNormals returns one unit normal per face. The returned slice is
// shared and must not be modified.
func (o *Object) FaceNormals() []math3d.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calculateNormals()
	return o.faceNormals
}

// VertexNormals returns one unit normal per vertex. The returned slice is
// shared and must not be modified.
func (o *Object) VertexNormals() []math3d.Vec3 {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calculateNormals()
	return o.vertexNormals
}

// calculateNormals fills the normal caches. Callers hold o.mu.
func (o *Object) calculateNormals() {
	if len(o.faceNormals) == len(o.Faces) && len(o.vertexNormals) == len(o.Vertices) {
		return
	}

	o.faceNormals = make([]math3d.Vec3, len(o.Faces))
	sums := make([]math3d.Vec3, len(o.Vertices))

	for i, f := range o.Faces {
		n := o.newellNormal(f.Vertices)
		o.faceNormals[i] = n.Normalize()

		// Area-weighted accumulation for smooth normals.
		for _, vi := range f.Vertices {
			if vi >= 0 && vi < len(sums) {
				sums[vi] = sums[vi].Add(n)
			}
		}
	}

	if len(o.Normals) == len(o.Vertices) {
		o.vertexNormals = make([]math3d.Vec3, len(o.Normals))
		for i, n := range o.Normals {
			o.vertexNormals[i] = n.Normalize()
		}
		return
	}

	for i := range sums {
		sums[i] = sums[i].Normalize()
	}
	o.vertexNormals = sums
}

// newellNormal returns the unnormalized polygon normal, whose length is
// twice the polygon area. Works for any planar n-gon.
func (o *Object) newellNormal(indices []int) math3d.Vec3 {
	var n math3d.Vec3
	if len(indices) < 3 {
		return n
	}
	for k, i := range indices {
		j := indices[(k+1)%len(indices)]
		if i < 0 || i >= len(o.Vertices) || j < 0 || j >= len(o.Vertices) {
			return math3d.Vec3{}
		}
		a, b := o.Vertices[i], o.Vertices[j]
		n.X += (a.Y - b.Y) * (a.Z + b.Z)
		n.Y += (a.Z - b.Z) * (a.X + b.X)
		n.Z += (a.X - b.X) * (a.Y + b.Y)
	}
	return n
}

// Transform applies a transformation matrix to all vertices.
func (o *Object) Transform(mat math3d.Mat4) {
	for i := range o.Vertices {
		o.Vertices[i] = mat.MulVec3(o.Vertices[i])
	}
	// Only the rotation part applies to normals.
	for i := range o.Normals {
		o.Normals[i] = mat.MulVec3Dir(o.Normals[i]).Normalize()
	}
	o.invalidate()
	o.CalculateBounds()
}

// Clone creates a deep copy of the object. Materials are shared.
func (o *Object) Clone() *Object {
	clone := &Object{
		Name:      o.Name,
		Vertices:  make([]math3d.Vec3, len(o.Vertices)),
		Faces:     make([]Face, len(o.Faces)),
		BoundsMin: o.BoundsMin,
		BoundsMax: o.BoundsMax,
	}
	copy(clone.Vertices, o.Vertices)
	for i, f := range o.Faces {
		f.Vertices = append([]int(nil), f.Vertices...)
		if f.UV != nil {
			f.UV = append([]math3d.Vec2(nil), f.UV...)
		}
		clone.Faces[i] = f
	}
	if o.Normals != nil {
		clone.Normals = append([]math3d.Vec3(nil), o.Normals...)
	}
	return clone
}
