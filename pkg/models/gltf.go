package models

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/taigrr/scanline/pkg/math3d"
)

// Instance places an object in model space.
type Instance struct {
	Object    *Object
	Transform math3d.Mat4
}

// Model is the result of loading a glTF document: one instance per mesh
// node plus the encoded images its materials reference.
type Model struct {
	Name      string
	Instances []Instance

	// Textures holds embedded image bytes keyed by texture identity.
	// Identities of external images are file paths and are not listed here.
	Textures map[string][]byte
}

// Bounds returns the model-space bounding box over all instances.
func (m *Model) Bounds() (min, max math3d.Vec3) {
	first := true
	for _, inst := range m.Instances {
		if len(inst.Object.Vertices) == 0 {
			continue
		}
		for _, v := range inst.Object.Vertices {
			p := inst.Transform.MulVec3(v)
			if first {
				min, max = p, p
				first = false
				continue
			}
			min = min.Min(p)
			max = max.Max(p)
		}
	}
	return min, max
}

// FaceCount returns the number of faces over all instances.
func (m *Model) FaceCount() int {
	n := 0
	for _, inst := range m.Instances {
		n += inst.Object.FaceCount()
	}
	return n
}

// GLTFLoader loads GLTF/GLB files into objects.
type GLTFLoader struct {
	// SmoothNormals marks faces smooth-shaded. When the file carries
	// normals they are used as the vertex normals.
	SmoothNormals bool

	// SpecularExponent is assigned to materials whose roughness is unset.
	SpecularExponent int
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		SmoothNormals:    true,
		SpecularExponent: DefaultMaterial.SpecularExponent,
	}
}

// LoadGLTF loads a .gltf or .glb file with the default loader.
func LoadGLTF(path string) (*Model, error) {
	return NewGLTFLoader().Load(path)
}

// Load reads a GLTF or GLB file.
func (l *GLTFLoader) Load(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf: open %s: %w", path, err)
	}
	return l.FromDocument(doc, path)
}

// FromDocument converts a decoded document. path names the model and
// resolves relative image URIs.
func (l *GLTFLoader) FromDocument(doc *gltf.Document, path string) (*Model, error) {
	model := &Model{
		Name:     filepath.Base(path),
		Textures: make(map[string][]byte),
	}

	materials, err := l.loadMaterials(doc, path, model)
	if err != nil {
		return nil, err
	}

	objects := make([]*Object, len(doc.Meshes))
	for i, m := range doc.Meshes {
		obj, err := l.processMesh(doc, m, materials)
		if err != nil {
			return nil, fmt.Errorf("gltf: mesh %q: %w", m.Name, err)
		}
		objects[i] = obj
	}

	roots := sceneRoots(doc)
	if roots == nil {
		// No scene graph: show every mesh untransformed.
		for _, obj := range objects {
			model.Instances = append(model.Instances, Instance{Object: obj, Transform: math3d.Identity()})
		}
		return model, nil
	}

	visited := make(map[int]bool)
	var walk func(idx int, parent math3d.Mat4)
	walk = func(idx int, parent math3d.Mat4) {
		if idx < 0 || idx >= len(doc.Nodes) || visited[idx] {
			return
		}
		visited[idx] = true
		node := doc.Nodes[idx]
		world := parent.Mul(nodeTransform(node))
		if node.Mesh != nil && *node.Mesh < len(objects) {
			model.Instances = append(model.Instances, Instance{Object: objects[*node.Mesh], Transform: world})
		}
		for _, c := range node.Children {
			walk(c, world)
		}
	}
	for _, r := range roots {
		walk(r, math3d.Identity())
	}

	return model, nil
}

// sceneRoots returns the root nodes of the default scene, or nil when the
// document has no scenes.
func sceneRoots(doc *gltf.Document) []int {
	if len(doc.Scenes) == 0 {
		return nil
	}
	s := 0
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		s = *doc.Scene
	}
	return doc.Scenes[s].Nodes
}

func nodeTransform(n *gltf.Node) math3d.Mat4 {
	m := math3d.Mat4(n.MatrixOrDefault())
	if m != math3d.Identity() {
		return m
	}
	t := n.TranslationOrDefault()
	s := n.ScaleOrDefault()
	return math3d.FromTRS(
		math3d.V3(t[0], t[1], t[2]),
		n.RotationOrDefault(),
		math3d.V3(s[0], s[1], s[2]),
	)
}

// loadMaterials converts document materials, registering the images they
// reference under stable texture identities.
func (l *GLTFLoader) loadMaterials(doc *gltf.Document, path string, model *Model) ([]*Material, error) {
	materials := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		factor := [4]float64{1, 1, 1, 1}
		exp := l.SpecularExponent
		var texIdx *int

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			if pbr.BaseColorFactor != nil {
				factor = *pbr.BaseColorFactor
			}
			if pbr.RoughnessFactor != nil {
				exp = roughnessToExponent(*pbr.RoughnessFactor)
			}
			if pbr.BaseColorTexture != nil {
				texIdx = &pbr.BaseColorTexture.Index
			}
		}

		mat := materialFromFactor(gm.Name, factor)
		mat.SpecularExponent = exp

		if texIdx != nil {
			id, err := l.textureIdentity(doc, *texIdx, path, model)
			if err != nil {
				return nil, fmt.Errorf("gltf: material %q: %w", gm.Name, err)
			}
			mat.Texture = id
		}
		materials[i] = mat
	}
	return materials, nil
}

// roughnessToExponent maps PBR roughness onto a Phong exponent.
func roughnessToExponent(r float64) int {
	r = math.Max(0.05, math.Min(1, r))
	return int(math.Round(2/(r*r) - 2))
}

func (l *GLTFLoader) textureIdentity(doc *gltf.Document, texIdx int, path string, model *Model) (string, error) {
	if texIdx < 0 || texIdx >= len(doc.Textures) || doc.Textures[texIdx].Source == nil {
		return "", nil
	}
	imgIdx := *doc.Textures[texIdx].Source
	if imgIdx < 0 || imgIdx >= len(doc.Images) {
		return "", fmt.Errorf("texture %d: image %d out of range", texIdx, imgIdx)
	}
	img := doc.Images[imgIdx]
	id := fmt.Sprintf("%s#image%d", filepath.Base(path), imgIdx)

	switch {
	case img.BufferView != nil:
		bv := doc.BufferViews[*img.BufferView]
		data := doc.Buffers[bv.Buffer].Data
		if bv.ByteOffset+bv.ByteLength > len(data) {
			return "", fmt.Errorf("image %d: buffer view out of range", imgIdx)
		}
		model.Textures[id] = data[bv.ByteOffset : bv.ByteOffset+bv.ByteLength]
	case strings.HasPrefix(img.URI, "data:"):
		comma := strings.IndexByte(img.URI, ',')
		if comma < 0 {
			return "", fmt.Errorf("image %d: malformed data URI", imgIdx)
		}
		data, err := base64.StdEncoding.DecodeString(img.URI[comma+1:])
		if err != nil {
			return "", fmt.Errorf("image %d: %w", imgIdx, err)
		}
		model.Textures[id] = data
	case img.URI != "":
		// External file, resolved by the texture source.
		id = filepath.Join(filepath.Dir(path), filepath.FromSlash(img.URI))
	default:
		return "", nil
	}
	return id, nil
}

// processMesh extracts geometry from a GLTF mesh.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, materials []*Material) (*Object, error) {
	obj := NewObject(m.Name)
	var normals []math3d.Vec3

	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}

		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return nil, fmt.Errorf("read positions: %w", err)
		}

		var primNormals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			primNormals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return nil, fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return nil, fmt.Errorf("read uvs: %w", err)
			}
		}

		mat := DefaultMaterial
		if prim.Material != nil && *prim.Material < len(materials) {
			mat = materials[*prim.Material]
		}

		base := len(obj.Vertices)
		obj.Vertices = append(obj.Vertices, positions...)
		if primNormals != nil || normals != nil {
			// Keep normals parallel to vertices once any primitive has them.
			for len(normals) < base {
				normals = append(normals, math3d.Vec3{})
			}
			for i := range positions {
				var n math3d.Vec3
				if i < len(primNormals) {
					n = primNormals[i]
				}
				normals = append(normals, n)
			}
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return nil, fmt.Errorf("read indices: %w", err)
			}
		} else {
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// glTF front faces are counter-clockwise, matching Face.
		for i := 0; i+2 < len(indices); i += 3 {
			tri := []int{indices[i], indices[i+1], indices[i+2]}
			face := Face{Material: mat, Smooth: l.SmoothNormals}
			for _, idx := range tri {
				if idx >= len(positions) {
					return nil, errors.New("index out of range")
				}
				face.Vertices = append(face.Vertices, base+idx)
				if uvs != nil && idx < len(uvs) {
					// glTF puts V=0 at the top of the image.
					face.UV = append(face.UV, math3d.V2(uvs[idx].X, 1-uvs[idx].Y))
				}
			}
			if len(face.UV) != len(face.Vertices) {
				face.UV = nil
			}
			obj.Faces = append(obj.Faces, face)
		}
	}

	if len(normals) == len(obj.Vertices) {
		obj.Normals = normals
	}
	obj.CalculateBounds()
	return obj, nil
}

// readVec3Accessor reads Vec3 data from a GLTF accessor.
func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	floats, err := readFloatAccessor(doc, accessorIdx, gltf.AccessorVec3, 3)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec3, len(floats)/3)
	for i := range result {
		result[i] = math3d.V3(floats[i*3], floats[i*3+1], floats[i*3+2])
	}
	return result, nil
}

// readVec2Accessor reads Vec2 data from a GLTF accessor.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	floats, err := readFloatAccessor(doc, accessorIdx, gltf.AccessorVec2, 2)
	if err != nil {
		return nil, err
	}
	result := make([]math3d.Vec2, len(floats)/2)
	for i := range result {
		result[i] = math3d.V2(floats[i*2], floats[i*2+1])
	}
	return result, nil
}

// readFloatAccessor reads n float components per element.
func readFloatAccessor(doc *gltf.Document, accessorIdx int, typ gltf.AccessorType, n int) ([]float64, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != typ {
		return nil, fmt.Errorf("accessor %d: expected %v, got %v", accessorIdx, typ, accessor.Type)
	}
	if accessor.ComponentType != gltf.ComponentFloat {
		return nil, fmt.Errorf("accessor %d: unsupported component type %v", accessorIdx, accessor.ComponentType)
	}

	data, start, stride, err := accessorView(doc, accessor, n*4)
	if err != nil {
		return nil, err
	}

	result := make([]float64, accessor.Count*n)
	for i := range accessor.Count {
		offset := start + i*stride
		if offset+n*4 > len(data) {
			return nil, fmt.Errorf("accessor %d: data out of range", accessorIdx)
		}
		for j := range n {
			bits := binary.LittleEndian.Uint32(data[offset+j*4:])
			result[i*n+j] = float64(math.Float32frombits(bits))
		}
	}
	return result, nil
}

// readIndices reads index data from a GLTF accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	if accessorIdx < 0 || accessorIdx >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", accessorIdx)
	}
	accessor := doc.Accessors[accessorIdx]

	var size int
	switch accessor.ComponentType {
	case gltf.ComponentUbyte:
		size = 1
	case gltf.ComponentUshort:
		size = 2
	case gltf.ComponentUint:
		size = 4
	default:
		return nil, fmt.Errorf("unexpected index type: %v", accessor.ComponentType)
	}

	data, start, stride, err := accessorView(doc, accessor, size)
	if err != nil {
		return nil, err
	}

	result := make([]int, accessor.Count)
	for i := range accessor.Count {
		offset := start + i*stride
		if offset+size > len(data) {
			return nil, fmt.Errorf("accessor %d: data out of range", accessorIdx)
		}
		switch size {
		case 1:
			result[i] = int(data[offset])
		case 2:
			result[i] = int(binary.LittleEndian.Uint16(data[offset:]))
		case 4:
			result[i] = int(binary.LittleEndian.Uint32(data[offset:]))
		}
	}
	return result, nil
}

// accessorView resolves an accessor to its buffer bytes, first element
// offset and element stride.
func accessorView(doc *gltf.Document, accessor *gltf.Accessor, elemSize int) ([]byte, int, int, error) {
	if accessor.BufferView == nil {
		return nil, 0, 0, errors.New("accessor has no buffer view")
	}

	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]
	if buffer.Data == nil {
		return nil, 0, 0, errors.New("buffer has no data")
	}

	stride := bufferView.ByteStride
	if stride == 0 {
		stride = elemSize
	}
	return buffer.Data, bufferView.ByteOffset + accessor.ByteOffset, stride, nil
}
