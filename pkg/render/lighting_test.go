package render

import (
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
)

// litQuad projects a 2×2 quad facing the camera one unit ahead, so its
// first vertex sits at (-1, -1, -1) in view space with normal +Z.
func litQuad(t *testing.T) (*projection, *face) {
	t.Helper()
	fr := frame{width: 60, height: 60, cx: 30, cy: 30, perspective: 40, near: 0.1, cull: true}
	fr.volume = NewViewVolume(fr.perspective, fr.cx, fr.cy, fr.near)

	var p projection
	var stats RenderStats
	q := models.NewQuad(2, 2, nil)
	if !p.project(q, math3d.Translate(math3d.V3(0, 0, -1)), &fr, &stats) {
		t.Fatal("quad culled")
	}
	if len(p.faces) != 1 {
		t.Fatalf("projected %d faces, want 1", len(p.faces))
	}
	return &p, &p.faces[0]
}

func pointLight(intensity, fallOff float64, pos math3d.Vec3) viewLight {
	return viewLight{intensity: intensity, fallOff: fallOff, position: pos}
}

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

func TestFaceLightAmbientOnly(t *testing.T) {
	p, f := litQuad(t)
	f.light(p, []viewLight{{ambient: true, intensity: 0.25}})

	for j := range f.diffuse {
		if !approx(f.diffuse[j], 64) {
			t.Errorf("vertex %d diffuse = %v, want 64", j, f.diffuse[j])
		}
		if f.specF[j] != 0 || f.specX[j] != specularCenter || f.specY[j] != specularCenter {
			t.Errorf("vertex %d highlight = (%v, %v, %v), want none", j, f.specX[j], f.specY[j], f.specF[j])
		}
	}
}

func TestFaceLightFallOff(t *testing.T) {
	p, f := litQuad(t)
	// Towards (1, 1, 2) from the first vertex: distance √6, cos 2/√6.
	f.light(p, []viewLight{pointLight(1, 2, math3d.V3(0, 0, 1))})

	dist := math.Sqrt(6)
	att := 2 / (2 + dist)
	if want := att * (2 / dist) * 256; !approx(f.diffuse[0], want) {
		t.Errorf("diffuse = %v, want %v", f.diffuse[0], want)
	}
	if want := att * 256; !approx(f.specF[0], want) {
		t.Errorf("specular factor = %v, want %v", f.specF[0], want)
	}
}

func TestFaceLightBrightestHighlightWins(t *testing.T) {
	bright := pointLight(1, 0, math3d.Vec3{})
	dim := pointLight(0.3, 0, math3d.V3(-1, -1, 5))
	behind := pointLight(4, 0, math3d.V3(0, 0, -5))
	amb := viewLight{ambient: true, intensity: 0.25}

	// At the first vertex the bright light arrives along (1,1,1)/√3 and the
	// dim one straight down the normal. The light behind the face adds
	// nothing even though it is the strongest.
	a := 1 / math.Sqrt(3)
	wantDiffuse := 64 + a*256 + 0.3*256
	wantX := specularCenter * (1 - a)
	wantY := specularCenter * (1 + a)

	tests := []struct {
		name    string
		lights  []viewLight
		diffuse float64
	}{
		{"bright first", []viewLight{amb, bright, dim, behind}, wantDiffuse},
		{"bright last", []viewLight{behind, dim, amb, bright}, wantDiffuse},
		{"dim twice", []viewLight{dim, bright, behind, dim, amb}, wantDiffuse + 0.3*256},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p, f := litQuad(t)
			f.light(p, tc.lights)

			if !approx(f.diffuse[0], tc.diffuse) {
				t.Errorf("diffuse = %v, want %v", f.diffuse[0], tc.diffuse)
			}
			if !approx(f.specF[0], 256) {
				t.Errorf("specular factor = %v, want 256 from the bright light alone", f.specF[0])
			}
			if !approx(f.specX[0], wantX) || !approx(f.specY[0], wantY) {
				t.Errorf("highlight at (%v, %v), want the bright light's (%v, %v)",
					f.specX[0], f.specY[0], wantX, wantY)
			}
		})
	}
}

func TestFaceLightBackLitOnly(t *testing.T) {
	p, f := litQuad(t)
	f.light(p, []viewLight{pointLight(1, 0, math3d.V3(0, 0, -5))})

	for j := range f.diffuse {
		if f.diffuse[j] != 0 || f.specF[j] != 0 {
			t.Errorf("vertex %d lit from behind: diffuse %v, specular %v", j, f.diffuse[j], f.specF[j])
		}
	}
}
