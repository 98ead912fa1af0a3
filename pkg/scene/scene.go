// Package scene provides the scene graph the renderer draws: a tree of
// transformed nodes carrying objects and lights, flattened per frame into
// view-space placements for a camera.
package scene

import (
	"sync"

	"github.com/taigrr/scanline/pkg/math3d"
	"github.com/taigrr/scanline/pkg/models"
)

// Light is a light source. Its position comes from the node that holds it.
type Light struct {
	Name string

	// Intensity scales the light; 1 is full strength.
	Intensity float64

	// FallOff is the distance at which a point light drops to half
	// intensity. Negative makes the light ambient; zero disables
	// attenuation.
	FallOff float64
}

// NewAmbientLight creates a light that reaches every surface equally.
func NewAmbientLight(intensity float64) *Light {
	return &Light{Name: "ambient", Intensity: intensity, FallOff: -1}
}

// NewPointLight creates a positional light.
func NewPointLight(intensity, fallOff float64) *Light {
	return &Light{Name: "point", Intensity: intensity, FallOff: fallOff}
}

// IsAmbient reports whether the light ignores position and orientation.
func (l *Light) IsAmbient() bool {
	return l.FallOff < 0
}

// Node is an element of the scene graph. Transform maps node space into the
// parent's space; the zero matrix is treated as the identity.
type Node struct {
	Name      string
	Transform math3d.Mat4
	Object    *models.Object
	Light     *Light
	Children  []*Node
}

// NewNode creates a node with the identity transform.
func NewNode(name string) *Node {
	return &Node{Name: name, Transform: math3d.Identity()}
}

// NewObjectNode wraps an object in a node.
func NewObjectNode(obj *models.Object, transform math3d.Mat4) *Node {
	return &Node{Name: obj.Name, Transform: transform, Object: obj}
}

// NewLightNode places a light at a world position.
func NewLightNode(l *Light, position math3d.Vec3) *Node {
	return &Node{Name: l.Name, Transform: math3d.Translate(position), Light: l}
}

// Add appends children and returns n.
func (n *Node) Add(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// ObjectPlacement pairs an object with its object-to-view transform.
type ObjectPlacement struct {
	Object    *models.Object
	Transform math3d.Mat4
}

// LightPlacement pairs a light with its light-to-view transform.
type LightPlacement struct {
	Light     *Light
	Transform math3d.Mat4
}

// Position returns the light position in view space.
func (p LightPlacement) Position() math3d.Vec3 {
	return p.Transform.Translation()
}

// Scene is a scene graph safe for concurrent gathering and updating.
type Scene struct {
	mu   sync.RWMutex
	root *Node
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{root: NewNode("root")}
}

// Add attaches nodes to the scene root.
func (s *Scene) Add(nodes ...*Node) {
	s.mu.Lock()
	s.root.Add(nodes...)
	s.mu.Unlock()
}

// Update runs fn with exclusive access to the graph so node transforms or
// children can change between frames without racing a render.
func (s *Scene) Update(fn func(root *Node)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.root)
}

// Gather appends every object and light in the graph, with transforms
// relative to cam, to the given slices and returns the extended slices.
// Both are taken from the same state of the graph.
func (s *Scene) Gather(objects []ObjectPlacement, lights []LightPlacement, cam *Camera) ([]ObjectPlacement, []LightPlacement) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	walk(s.root, cam.ViewMatrix(), func(n *Node, toView math3d.Mat4) {
		if n.Object != nil {
			objects = append(objects, ObjectPlacement{Object: n.Object, Transform: toView})
		}
		if n.Light != nil {
			lights = append(lights, LightPlacement{Light: n.Light, Transform: toView})
		}
	})
	return objects, lights
}

// walk visits n and its descendants depth-first with accumulated transforms.
func walk(n *Node, parent math3d.Mat4, visit func(*Node, math3d.Mat4)) {
	m := parent
	if n.Transform != (math3d.Mat4{}) {
		m = parent.Mul(n.Transform)
	}
	visit(n, m)
	for _, c := range n.Children {
		walk(c, m, visit)
	}
}
