package render

import (
	"github.com/taigrr/scanline/pkg/math3d"
)

// Plane represents a plane in 3D space using the equation: Ax + By + Cz + D = 0
// where (A, B, C) is the normal and D is the distance from origin.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize normalizes the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = in front (same side as normal), negative = behind.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// ViewVolume is the region of view space that projects inside the frame and
// lies beyond the near plane. It has no far plane. Each plane's normal
// points inward.
type ViewVolume struct {
	Planes [5]Plane
}

// View volume plane indices.
const (
	VolumeLeft = iota
	VolumeRight
	VolumeTop
	VolumeBottom
	VolumeNear
)

// NewViewVolume builds the volume for a camera looking down -Z that maps
// view point (x, y, z) to screen (cx + x·f/-z, cy - y·f/-z), where f is the
// perspective factor and (cx, cy) the frame centre.
func NewViewVolume(f, cx, cy, near float64) ViewVolume {
	var v ViewVolume

	// screenX >= 0  <=>  f·x - cx·z >= 0
	v.Planes[VolumeLeft] = Plane{Normal: math3d.V3(f, 0, -cx)}
	// screenX <= 2cx  <=>  -f·x - cx·z >= 0
	v.Planes[VolumeRight] = Plane{Normal: math3d.V3(-f, 0, -cx)}
	// screenY >= 0  <=>  -f·y - cy·z >= 0
	v.Planes[VolumeTop] = Plane{Normal: math3d.V3(0, -f, -cy)}
	// screenY <= 2cy  <=>  f·y - cy·z >= 0
	v.Planes[VolumeBottom] = Plane{Normal: math3d.V3(0, f, -cy)}
	// -z >= near
	v.Planes[VolumeNear] = Plane{Normal: math3d.V3(0, 0, -1), D: -near}

	for i := range v.Planes {
		v.Planes[i].Normalize()
	}
	return v
}

// AABB represents an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// BoundPoints returns the smallest AABB containing pts.
func BoundPoints(pts []math3d.Vec3) AABB {
	if len(pts) == 0 {
		return AABB{}
	}
	b := AABB{Min: pts[0], Max: pts[0]}
	for _, p := range pts[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// IntersectAABB reports whether any part of box may be visible. It is
// conservative: a box near a corner of the volume can pass without
// touching it.
func (v ViewVolume) IntersectAABB(box AABB) bool {
	for i := range v.Planes {
		plane := v.Planes[i]

		// The corner furthest along the normal; if it is outside, so is the box.
		pVertex := math3d.V3(
			selectComponent(plane.Normal.X >= 0, box.Max.X, box.Min.X),
			selectComponent(plane.Normal.Y >= 0, box.Max.Y, box.Min.Y),
			selectComponent(plane.Normal.Z >= 0, box.Max.Z, box.Min.Z),
		)
		if plane.DistanceToPoint(pVertex) < 0 {
			return false
		}
	}
	return true
}

func selectComponent(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
