package math3d

import (
	"math"
	"testing"
)

const eps = 1e-9

func TestMulVec3(t *testing.T) {
	tests := []struct {
		name string
		m    Mat4
		in   Vec3
		want Vec3
	}{
		{"identity", Identity(), V3(1, 2, 3), V3(1, 2, 3)},
		{"translate", Translate(V3(1, -1, 2)), V3(1, 2, 3), V3(2, 1, 5)},
		{"scale", Scale(V3(2, 3, 4)), V3(1, 1, 1), V3(2, 3, 4)},
		{"rotate y quarter", RotateY(math.Pi / 2), V3(1, 0, 0), V3(0, 0, -1)},
		{"rotate x quarter", RotateX(math.Pi / 2), V3(0, 1, 0), V3(0, 0, 1)},
		{"rotate z quarter", RotateZ(math.Pi / 2), V3(1, 0, 0), V3(0, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.m.MulVec3(tt.in)
			if !got.NearlyEqual(tt.want, eps) {
				t.Errorf("MulVec3(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMulVec3DirIgnoresTranslation(t *testing.T) {
	m := Translate(V3(10, 20, 30))
	got := m.MulVec3Dir(V3(0, 0, 1))
	if !got.NearlyEqual(V3(0, 0, 1), eps) {
		t.Errorf("MulVec3Dir = %v, want (0,0,1)", got)
	}
}

func TestMulOrder(t *testing.T) {
	// Scale first, then translate.
	m := Translate(V3(1, 0, 0)).Mul(ScaleUniform(2))
	got := m.MulVec3(V3(1, 1, 1))
	if !got.NearlyEqual(V3(3, 2, 2), eps) {
		t.Errorf("T*S applied to (1,1,1) = %v, want (3,2,2)", got)
	}
}

func TestFromTRS(t *testing.T) {
	half := math.Sqrt2 / 2
	// Quarter turn about Y.
	q := [4]float64{0, half, 0, half}

	got := FromTRS(V3(1, 2, 3), q, V3(2, 2, 2))
	want := Translate(V3(1, 2, 3)).Mul(RotateY(math.Pi / 2)).Mul(ScaleUniform(2))

	for i := range got {
		if math.Abs(got[i]-want[i]) > eps {
			t.Fatalf("FromTRS[%d] = %f, want %f", i, got[i], want[i])
		}
	}
	if tr := got.Translation(); !tr.NearlyEqual(V3(1, 2, 3), eps) {
		t.Errorf("Translation() = %v, want (1,2,3)", tr)
	}
}

func TestRotateAxisMatchesRotateY(t *testing.T) {
	a := Rotate(V3(0, 1, 0), 0.7)
	b := RotateY(0.7)
	for i := range a {
		if math.Abs(a[i]-b[i]) > eps {
			t.Fatalf("Rotate(Y)[%d] = %f, RotateY = %f", i, a[i], b[i])
		}
	}
}

func TestVec3(t *testing.T) {
	if n := V3(3, 0, 4).Normalize(); !n.NearlyEqual(V3(0.6, 0, 0.8), eps) {
		t.Errorf("Normalize = %v", n)
	}
	if n := V3(0, 0, 0).Normalize(); n != (Vec3{}) {
		t.Errorf("zero Normalize = %v, want zero", n)
	}
	if c := V3(1, 0, 0).Cross(V3(0, 1, 0)); !c.NearlyEqual(V3(0, 0, 1), eps) {
		t.Errorf("X cross Y = %v, want Z", c)
	}
	// Light coming straight down onto an up-facing surface bounces straight up.
	r := V3(0, -1, 0).Reflect(V3(0, 1, 0))
	if !r.NearlyEqual(V3(0, 1, 0), eps) {
		t.Errorf("Reflect = %v, want (0,1,0)", r)
	}
}
