package scene

import (
	"math"
	"testing"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
)

const eps = 1e-9

func TestCameraViewMatrix(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Camera)
		world math3d.Vec3
		want  math3d.Vec3
	}{
		{
			name:  "origin camera is identity",
			setup: func(c *Camera) {},
			world: math3d.V3(1, 2, -3),
			want:  math3d.V3(1, 2, -3),
		},
		{
			name:  "translated camera",
			setup: func(c *Camera) { c.Position = math3d.V3(0, 0, 5) },
			world: math3d.V3(0, 0, 0),
			want:  math3d.V3(0, 0, -5),
		},
		{
			name: "look at target from the side",
			setup: func(c *Camera) {
				c.Position = math3d.V3(5, 0, 0)
				c.LookAt(math3d.V3(0, 0, 0))
			},
			world: math3d.V3(0, 0, 0),
			want:  math3d.V3(0, 0, -5),
		},
		{
			name: "orbit keeps target ahead",
			setup: func(c *Camera) {
				c.Orbit(math3d.V3(1, 1, 1), 4, 0.8, 0.3)
			},
			world: math3d.V3(1, 1, 1),
			want:  math3d.V3(0, 0, -4),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCamera()
			tc.setup(c)
			got := c.ViewMatrix().MulVec3(tc.world)
			if !got.NearlyEqual(tc.want, 1e-6) {
				t.Errorf("view-space point = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCameraForwardMatchesView(t *testing.T) {
	c := NewCamera()
	c.Position = math3d.V3(1, 2, 3)
	c.Pitch, c.Yaw = 0.2, -0.7

	ahead := c.Position.Add(c.Forward().Scale(10))
	got := c.ViewMatrix().MulVec3(ahead)
	if !got.NearlyEqual(math3d.V3(0, 0, -10), 1e-6) {
		t.Errorf("point ahead of camera maps to %v, want (0,0,-10)", got)
	}
}

func TestPerspectiveFactor(t *testing.T) {
	c := NewCamera()
	c.Aperture = math.Pi / 2
	c.FitWidth(200)

	if math.Abs(c.PerspectiveFactor()-100) > 1e-9 {
		t.Errorf("PerspectiveFactor = %v, want 100", c.PerspectiveFactor())
	}
}

func TestLightKinds(t *testing.T) {
	if !NewAmbientLight(1).IsAmbient() {
		t.Error("ambient light should be ambient")
	}
	if NewPointLight(1, 0).IsAmbient() {
		t.Error("point light with zero fall-off should not be ambient")
	}
}

func TestGather(t *testing.T) {
	s := New()
	quad := models.NewQuad(1, 1, models.DefaultMaterial)

	parent := NewNode("parent")
	parent.Transform = math3d.Translate(math3d.V3(0, 0, -2))
	parent.Add(NewObjectNode(quad, math3d.Translate(math3d.V3(1, 0, 0))))
	s.Add(parent, NewLightNode(NewPointLight(1, 10), math3d.V3(0, 5, 0)))
	s.Add(&Node{Name: "zero transform", Light: NewAmbientLight(0.5)})

	cam := NewCamera()
	cam.Position = math3d.V3(0, 0, 1)

	objects, lights := s.Gather(nil, nil, cam)
	if len(objects) != 1 {
		t.Fatalf("gathered %d objects, want 1", len(objects))
	}
	if objects[0].Object != quad {
		t.Errorf("gathered the wrong object")
	}
	if origin := objects[0].Transform.MulVec3(math3d.Vec3{}); !origin.NearlyEqual(math3d.V3(1, 0, -3), eps) {
		t.Errorf("object origin in view space = %v, want (1,0,-3)", origin)
	}

	if len(lights) != 2 {
		t.Fatalf("gathered %d lights, want 2", len(lights))
	}
	if p := lights[0].Position(); !p.NearlyEqual(math3d.V3(0, 5, -1), eps) {
		t.Errorf("light position in view space = %v, want (0,5,-1)", p)
	}
	if p := lights[1].Position(); !p.NearlyEqual(math3d.V3(0, 0, -1), eps) {
		t.Errorf("zero-transform light should sit at its parent: %v", p)
	}

	// Reusing the destination slice keeps the backing array.
	reused, reusedLights := s.Gather(objects[:0], lights[:0], cam)
	if &reused[0] != &objects[0] || &reusedLights[0] != &lights[0] {
		t.Errorf("Gather should append into the supplied slices")
	}
}

func TestUpdate(t *testing.T) {
	s := New()
	n := NewObjectNode(models.NewQuad(1, 1, nil), math3d.Identity())
	s.Add(n)

	s.Update(func(root *Node) {
		root.Children[0].Transform = math3d.Translate(math3d.V3(0, 0, -7))
	})

	objects, _ := s.Gather(nil, nil, NewCamera())
	if z := objects[0].Transform.Translation().Z; z != -7 {
		t.Errorf("updated translation Z = %v, want -7", z)
	}
}

func TestGatherConsistentWithUpdate(t *testing.T) {
	s := New()
	obj := NewObjectNode(models.NewQuad(1, 1, nil), math3d.Identity())
	light := NewLightNode(NewPointLight(1, 0), math3d.Vec3{})
	s.Add(obj, light)

	// The object and the light always move together, so any gather that
	// straddles an update sees them apart.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range 500 {
			move := math3d.Translate(math3d.V3(0, 0, -float64(i)))
			s.Update(func(*Node) {
				obj.Transform = move
				light.Transform = move
			})
		}
	}()

	cam := NewCamera()
	var objects []ObjectPlacement
	var lights []LightPlacement
	for {
		select {
		case <-done:
			return
		default:
		}
		objects, lights = s.Gather(objects[:0], lights[:0], cam)
		if o, l := objects[0].Transform.Translation(), lights[0].Position(); !o.NearlyEqual(l, eps) {
			t.Fatalf("object at %v but light at %v", o, l)
		}
	}
}
