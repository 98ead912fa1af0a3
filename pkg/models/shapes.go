package models

import "github.com/taigrr/scanline/pkg/math3d"

// quadUV maps the corners of a quad, in face order, onto the whole texture.
var quadUV = []math3d.Vec2{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}

// NewQuad creates a w×h rectangle in the XY plane, centered on the origin
// and facing +Z.
func NewQuad(w, h float64, mat *Material) *Object {
	o := NewObject("quad")
	hw, hh := w/2, h/2
	o.Vertices = []math3d.Vec3{
		{X: -hw, Y: -hh},
		{X: hw, Y: -hh},
		{X: hw, Y: hh},
		{X: -hw, Y: hh},
	}
	o.Faces = []Face{{
		Vertices: []int{0, 1, 2, 3},
		UV:       append([]math3d.Vec2(nil), quadUV...),
		Material: mat,
	}}
	o.CalculateBounds()
	return o
}

// NewBox creates an axis-aligned box centered on the origin with outward
// facing quads. Each side maps the full texture.
func NewBox(w, h, d float64, mat *Material) *Object {
	o := NewObject("box")
	x, y, z := w/2, h/2, d/2

	// Corner naming: l/r = -x/+x, b/t = -y/+y, k/f = -z/+z (back/front).
	lbk := o.AddVertex(math3d.V3(-x, -y, -z))
	rbk := o.AddVertex(math3d.V3(x, -y, -z))
	rtk := o.AddVertex(math3d.V3(x, y, -z))
	ltk := o.AddVertex(math3d.V3(-x, y, -z))
	lbf := o.AddVertex(math3d.V3(-x, -y, z))
	rbf := o.AddVertex(math3d.V3(x, -y, z))
	rtf := o.AddVertex(math3d.V3(x, y, z))
	ltf := o.AddVertex(math3d.V3(-x, y, z))

	sides := [][]int{
		{lbf, rbf, rtf, ltf}, // +Z
		{rbk, lbk, ltk, rtk}, // -Z
		{rbf, rbk, rtk, rtf}, // +X
		{lbk, lbf, ltf, ltk}, // -X
		{ltf, rtf, rtk, ltk}, // +Y
		{lbk, rbk, rbf, lbf}, // -Y
	}
	for _, s := range sides {
		o.AddFace(Face{
			Vertices: s,
			UV:       append([]math3d.Vec2(nil), quadUV...),
			Material: mat,
		})
	}
	o.CalculateBounds()
	return o
}
