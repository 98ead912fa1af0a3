package models

import (
	"image/color"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
)

const eps = 1e-9

// TestMaterialDefaults verifies default material values.
func TestMaterialDefaults(t *testing.T) {
	m := NewMaterial("red", color.RGBA{255, 0, 0, 255}, 16)

	if m.ARGB != 0xFFFF0000 {
		t.Errorf("ARGB = %#x, want 0xFFFF0000", m.ARGB)
	}
	if m.IsTextured() {
		t.Errorf("IsTextured should be false without a texture")
	}
	r, g, b := m.RGB()
	if r != 255 || g != 0 || b != 0 {
		t.Errorf("RGB() = %d,%d,%d, want 255,0,0", r, g, b)
	}

	var nilMat *Material
	if nilMat.IsTextured() {
		t.Errorf("nil material should not be textured")
	}

	m.Texture = "brick.png"
	if !m.IsTextured() {
		t.Errorf("IsTextured should be true with a texture")
	}
}

func TestMaterialFromFactor(t *testing.T) {
	m := materialFromFactor("half", [4]float64{1, 0.5, -1, 0.2})
	if m.ARGB != 0xFFFF8000 {
		t.Errorf("ARGB = %#x, want 0xFFFF8000", m.ARGB)
	}
}

func TestFaceNormalWinding(t *testing.T) {
	tests := []struct {
		name  string
		verts []math3d.Vec3
		want  math3d.Vec3
	}{
		{
			name:  "ccw triangle faces +Z",
			verts: []math3d.Vec3{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
			want:  math3d.V3(0, 0, 1),
		},
		{
			name:  "cw triangle faces -Z",
			verts: []math3d.Vec3{{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 0}},
			want:  math3d.V3(0, 0, -1),
		},
		{
			name:  "pentagon",
			verts: []math3d.Vec3{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 3, Y: 1}, {X: 1, Y: 3}, {X: -1, Y: 1}},
			want:  math3d.V3(0, 0, 1),
		},
		{
			name:  "collinear",
			verts: []math3d.Vec3{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}},
			want:  math3d.Vec3{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := NewObject(tc.name)
			var idx []int
			for _, v := range tc.verts {
				idx = append(idx, o.AddVertex(v))
			}
			o.AddFace(Face{Vertices: idx})

			if got := o.FaceNormal(0); !got.NearlyEqual(tc.want, eps) {
				t.Errorf("FaceNormal = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestBoxNormalsPointOutward(t *testing.T) {
	box := NewBox(2, 2, 2, DefaultMaterial)

	if box.FaceCount() != 6 {
		t.Fatalf("box has %d faces, want 6", box.FaceCount())
	}
	if box.VertexCount() != 8 {
		t.Fatalf("box has %d vertices, want 8", box.VertexCount())
	}

	for i, f := range box.Faces {
		var centroid math3d.Vec3
		for _, vi := range f.Vertices {
			centroid = centroid.Add(box.Vertices[vi])
		}
		centroid = centroid.Scale(1.0 / float64(len(f.Vertices)))

		n := box.FaceNormal(i)
		if n.Dot(centroid) <= 0 {
			t.Errorf("face %d normal %v points inward (centroid %v)", i, n, centroid)
		}
	}

	// Corner normals average three faces.
	for i, n := range box.VertexNormals() {
		if n.Dot(box.Vertices[i]) <= 0 {
			t.Errorf("vertex %d normal %v points inward", i, n)
		}
	}
}

func TestQuadBounds(t *testing.T) {
	q := NewQuad(4, 2, DefaultMaterial)

	if !q.BoundsMin.NearlyEqual(math3d.V3(-2, -1, 0), eps) || !q.BoundsMax.NearlyEqual(math3d.V3(2, 1, 0), eps) {
		t.Errorf("bounds = %v..%v", q.BoundsMin, q.BoundsMax)
	}
	if !q.Size().NearlyEqual(math3d.V3(4, 2, 0), eps) {
		t.Errorf("Size() = %v", q.Size())
	}
	if !q.Center().NearlyEqual(math3d.V3(0, 0, 0), eps) {
		t.Errorf("Center() = %v", q.Center())
	}
	if len(q.Faces[0].UV) != 4 {
		t.Errorf("quad face has %d UVs, want 4", len(q.Faces[0].UV))
	}
}

func TestExplicitNormalsWin(t *testing.T) {
	q := NewQuad(1, 1, DefaultMaterial)
	q.Normals = []math3d.Vec3{{X: 0, Y: 0, Z: 2}, {Z: 2}, {Z: 2}, {X: 1}}

	normals := q.VertexNormals()
	if !normals[3].NearlyEqual(math3d.V3(1, 0, 0), eps) {
		t.Errorf("explicit normal = %v, want (1,0,0)", normals[3])
	}
	if !normals[0].NearlyEqual(math3d.V3(0, 0, 1), eps) {
		t.Errorf("explicit normal not normalized: %v", normals[0])
	}
}

func TestTransformInvalidatesNormals(t *testing.T) {
	q := NewQuad(1, 1, DefaultMaterial)
	if n := q.FaceNormal(0); !n.NearlyEqual(math3d.V3(0, 0, 1), eps) {
		t.Fatalf("FaceNormal = %v", n)
	}

	// Quarter turn about Y swings +Z onto +X.
	q.Transform(math3d.RotateY(1.5707963267948966))
	if n := q.FaceNormal(0); !n.NearlyEqual(math3d.V3(1, 0, 0), 1e-6) {
		t.Errorf("FaceNormal after transform = %v, want (1,0,0)", n)
	}
}

// TestObjectCloneIsDeep verifies Clone copies geometry but shares materials.
func TestObjectCloneIsDeep(t *testing.T) {
	orig := NewQuad(1, 1, DefaultMaterial)
	clone := orig.Clone()

	clone.Vertices[0] = math3d.V3(9, 9, 9)
	clone.Faces[0].Vertices[0] = 3
	clone.Faces[0].UV[0] = math3d.V2(5, 5)

	if orig.Vertices[0] == clone.Vertices[0] {
		t.Errorf("Clone should have independent vertices")
	}
	if orig.Faces[0].Vertices[0] != 0 {
		t.Errorf("Clone should have independent face indices")
	}
	if orig.Faces[0].UV[0] != math3d.V2(0, 0) {
		t.Errorf("Clone should have independent UVs")
	}
	if clone.Faces[0].Material != orig.Faces[0].Material {
		t.Errorf("Clone should share materials")
	}
}
