package scene

import (
	"image"

	"github.com/go-gl/mathgl/mgl32"
)

// AlphaMode mirrors the glTF material alpha modes.
type AlphaMode int

const (
	AlphaOpaque AlphaMode = iota
	AlphaMask
	AlphaBlend
)

// Vertex is the interleaved vertex layout uploaded to the GPU.
type Vertex struct {
	Position [3]float32
	Normal   [3]float32
	UV       [2]float32
}

// Texture is a decoded image ready for upload.
type Texture struct {
	Name  string
	Image *image.RGBA
}

// Material is an unlit-plus-ambient approximation of a PBR material:
// only the base color channel is used.
type Material struct {
	Name        string
	BaseColor   mgl32.Vec4
	Texture     *Texture
	AlphaMode   AlphaMode
	AlphaCutoff float32
	DoubleSided bool
}

// DefaultMaterial is used by primitives that reference no material.
func DefaultMaterial() *Material {
	return &Material{
		Name:        "default",
		BaseColor:   mgl32.Vec4{1, 1, 1, 1},
		AlphaCutoff: 0.5,
	}
}

// Mesh is one drawable primitive with its world transform baked in.
type Mesh struct {
	Name     string
	Vertices []Vertex
	Indices  []uint32
	World    mgl32.Mat4
	Material *Material
}

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	Min, Max mgl32.Vec3
}

// Extend grows b to include p. With first set the box collapses onto p.
func (b *Bounds) Extend(p mgl32.Vec3, first bool) {
	if first {
		b.Min, b.Max = p, p
		return
	}
	for i := 0; i < 3; i++ {
		b.Min[i] = min(b.Min[i], p[i])
		b.Max[i] = max(b.Max[i], p[i])
	}
}

// Center returns the middle of the box.
func (b Bounds) Center() mgl32.Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Model is the root of a loaded asset.
type Model struct {
	name   string
	Meshes []*Mesh
	Bounds Bounds
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{name: name}
}

// Name implements Object.
func (m *Model) Name() string {
	return m.name
}

// AddMesh appends a mesh and grows the model bounds by its world-space vertices.
func (m *Model) AddMesh(mesh *Mesh) {
	first := m.vertexCount() == 0
	for _, v := range mesh.Vertices {
		p := mesh.World.Mul4x1(mgl32.Vec4{v.Position[0], v.Position[1], v.Position[2], 1}).Vec3()
		m.Bounds.Extend(p, first)
		first = false
	}
	m.Meshes = append(m.Meshes, mesh)
}

// Textures returns the distinct textures used by the model's materials.
func (m *Model) Textures() []*Texture {
	seen := make(map[*Texture]bool)
	var out []*Texture
	for _, mesh := range m.Meshes {
		if mesh.Material == nil || mesh.Material.Texture == nil || seen[mesh.Material.Texture] {
			continue
		}
		seen[mesh.Material.Texture] = true
		out = append(out, mesh.Material.Texture)
	}
	return out
}

func (m *Model) vertexCount() int {
	n := 0
	for _, mesh := range m.Meshes {
		n += len(mesh.Vertices)
	}
	return n
}
