package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrviewer/internal/engine/scene"
)

// scene.Vertex layout: position(3) + normal(3) + uv(2)
const meshStride = 8 * 4

type gpuMesh struct {
	mesh    *scene.Mesh
	vao     uint32
	vbo     uint32
	ebo     uint32
	count   int32
	texture uint32
}

func (m *gpuMesh) material() *scene.Material {
	if m.mesh.Material == nil {
		return defaultMaterial
	}
	return m.mesh.Material
}

var defaultMaterial = scene.DefaultMaterial()

type gpuModel struct {
	meshes []gpuMesh
}

func (g *gpuModel) release() {
	for i := range g.meshes {
		m := &g.meshes[i]
		gl.DeleteVertexArrays(1, &m.vao)
		gl.DeleteBuffers(1, &m.vbo)
		gl.DeleteBuffers(1, &m.ebo)
	}
	g.meshes = nil
}

type drawItem struct {
	mesh  *gpuMesh
	depth float32
}

// viewDepth is the camera-space distance of a mesh origin, used to sort
// transparent meshes.
func viewDepth(view mgl32.Mat4, m *scene.Mesh) float32 {
	origin := m.World.Col(3)
	return -view.Mul4x1(origin).Z()
}

func uploadMesh(mesh *scene.Mesh, texture uint32) gpuMesh {
	g := gpuMesh{mesh: mesh, count: int32(len(mesh.Indices)), texture: texture}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)

	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(mesh.Vertices)*meshStride, gl.Ptr(mesh.Vertices), gl.STATIC_DRAW)

	gl.GenBuffers(1, &g.ebo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(mesh.Indices)*4, gl.Ptr(mesh.Indices), gl.STATIC_DRAW)

	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, meshStride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, meshStride, 3*4)
	gl.EnableVertexAttribArray(1)
	gl.VertexAttribPointerWithOffset(2, 2, gl.FLOAT, false, meshStride, 6*4)
	gl.EnableVertexAttribArray(2)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return g
}

type gpuVisual struct {
	vao, vbo, ebo uint32
	mode          uint32
	count         int32
	opacity       float32
	additive      bool
}

func (g *gpuVisual) release() {
	gl.DeleteVertexArrays(1, &g.vao)
	gl.DeleteBuffers(1, &g.vbo)
	if g.ebo != 0 {
		gl.DeleteBuffers(1, &g.ebo)
	}
}

// uploadVisual interleaves a controller visual as position(3) + color(3).
func uploadVisual(v scene.Visual) *gpuVisual {
	g := &gpuVisual{opacity: 1}
	var data []float32
	var indices []uint32

	switch vis := v.(type) {
	case *scene.Line:
		g.mode = gl.LINES
		g.additive = vis.Additive
		for i, p := range vis.Positions {
			c := mgl32.Vec3{1, 1, 1}
			if i < len(vis.Colors) {
				c = vis.Colors[i]
			}
			data = append(data, p[0], p[1], p[2], c[0], c[1], c[2])
		}
		g.count = int32(len(vis.Positions))
	case *scene.Ring:
		g.mode = gl.TRIANGLES
		g.opacity = vis.Opacity
		for _, p := range vis.Positions {
			data = append(data, p[0], p[1], p[2], vis.Color[0], vis.Color[1], vis.Color[2])
		}
		indices = vis.Indices
		g.count = int32(len(indices))
	}

	gl.GenVertexArrays(1, &g.vao)
	gl.BindVertexArray(g.vao)
	gl.GenBuffers(1, &g.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	if len(data) > 0 {
		gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STATIC_DRAW)
	}
	if len(indices) > 0 {
		gl.GenBuffers(1, &g.ebo)
		gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
		gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(indices)*4, gl.Ptr(indices), gl.STATIC_DRAW)
	}

	stride := int32(6 * 4)
	gl.VertexAttribPointerWithOffset(0, 3, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 3, gl.FLOAT, false, stride, 3*4)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	return g
}
