package model

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// writeQuadGLB writes a two-triangle quad under a translated parent node,
// textured with imageURI, and returns the file path.
func writeQuadGLB(t *testing.T, dir, imageURI string) string {
	t.Helper()

	doc := gltf.NewDocument()
	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {1, 1}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	doc.Meshes = []*gltf.Mesh{{
		Name: "quad",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: gltf.Attribute{attrPosition: pos, attrTexCoord0: uv},
			Material:   gltf.Index(0),
		}},
	}}
	doc.Materials = []*gltf.Material{{
		Name:        "stone",
		DoubleSided: true,
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor:  &[4]float64{1, 0.5, 0.25, 1},
			BaseColorTexture: &gltf.TextureInfo{Index: 0},
		},
	}}
	doc.Textures = []*gltf.Texture{{Source: gltf.Index(0)}}
	doc.Images = []*gltf.Image{{Name: "stone", URI: imageURI}}
	doc.Nodes = []*gltf.Node{
		{Name: "root", Translation: [3]float64{0, 2, 0}, Children: []uint32{1}},
		{Name: "quad", Mesh: gltf.Index(0)},
	}
	doc.Scenes = []*gltf.Scene{{Nodes: []uint32{0}}}
	doc.Scene = gltf.Index(0)

	path := filepath.Join(dir, "scene.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))
	return path
}

func TestImportTexturedQuad(t *testing.T) {
	dir := t.TempDir()
	dataURI := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes(t, color.RGBA{R: 255, A: 255}))
	path := writeQuadGLB(t, dir, dataURI)

	var mu sync.Mutex
	var steps [][2]int
	mdl, err := NewImporter(2).Import(context.Background(), path, func(loaded, total int) {
		mu.Lock()
		steps = append(steps, [2]int{loaded, total})
		mu.Unlock()
	})
	require.NoError(t, err)

	require.Len(t, mdl.Meshes, 1)
	mesh := mdl.Meshes[0]
	assert.Equal(t, "quad", mesh.Name)
	assert.Len(t, mesh.Vertices, 4)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, mesh.Indices)
	assert.Equal(t, [2]float32{1, 1}, mesh.Vertices[2].UV)

	// Normals were computed because the primitive had none
	for _, v := range mesh.Vertices {
		assert.InDelta(t, 1, v.Normal[2], 1e-5)
	}

	// Parent translation is baked into the world transform
	assert.True(t, mdl.Bounds.Min.ApproxEqual(mgl32.Vec3{0, 2, 0}))
	assert.True(t, mdl.Bounds.Max.ApproxEqual(mgl32.Vec3{1, 3, 0}))

	mat := mesh.Material
	require.NotNil(t, mat)
	assert.Equal(t, "stone", mat.Name)
	assert.True(t, mat.DoubleSided)
	assert.Equal(t, mgl32.Vec4{1, 0.5, 0.25, 1}, mat.BaseColor)
	require.NotNil(t, mat.Texture)
	assert.Equal(t, uint8(255), mat.Texture.Image.RGBAAt(0, 0).R)

	// document + image + primitive
	require.Len(t, steps, 3)
	assert.Equal(t, [2]int{3, 3}, steps[len(steps)-1])
}

func TestImportExternalImage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "stone%20wall.png"), pngBytes(t, color.RGBA{G: 255, A: 255}), 0644))
	path := writeQuadGLB(t, dir, "stone%2520wall.png")

	mdl, err := NewImporter(1).Import(context.Background(), path, nil)
	require.NoError(t, err)
	require.NotNil(t, mdl.Meshes[0].Material.Texture)
	assert.Equal(t, uint8(255), mdl.Meshes[0].Material.Texture.Image.RGBAAt(1, 1).G)
}

func TestImportMissingImageDegrades(t *testing.T) {
	dir := t.TempDir()
	path := writeQuadGLB(t, dir, "missing.png")

	mdl, err := NewImporter(1).Import(context.Background(), path, nil)
	require.NoError(t, err)
	assert.Nil(t, mdl.Meshes[0].Material.Texture)
	assert.Equal(t, float32(0.5), mdl.Meshes[0].Material.BaseColor[1])
}

func TestImportMissingFile(t *testing.T) {
	_, err := NewImporter(1).Import(context.Background(), filepath.Join(t.TempDir(), "nope.gltf"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.gltf")
}

func TestImportCanceled(t *testing.T) {
	path := writeQuadGLB(t, t.TempDir(), "missing.png")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewImporter(1).Import(ctx, path, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestImportNoGeometry(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "empty"}}
	doc.Scenes = []*gltf.Scene{{Nodes: []uint32{0}}}
	doc.Scene = gltf.Index(0)

	path := filepath.Join(t.TempDir(), "empty.glb")
	require.NoError(t, gltf.SaveBinary(doc, path))

	_, err := NewImporter(1).Import(context.Background(), path, nil)
	assert.ErrorIs(t, err, ErrNoGeometry)
}

func TestLocalTransformDefaults(t *testing.T) {
	assert.Equal(t, mgl32.Ident4(), localTransform(&gltf.Node{}))

	n := &gltf.Node{
		Translation: [3]float64{1, 2, 3},
		Rotation:    [4]float64{0, 0, 0, 1},
		Scale:       [3]float64{2, 2, 2},
	}
	p := localTransform(n).Mul4x1(mgl32.Vec4{1, 0, 0, 1}).Vec3()
	assert.True(t, p.ApproxEqual(mgl32.Vec3{3, 2, 3}))
}

func TestLocalTransformMatrix(t *testing.T) {
	n := &gltf.Node{Matrix: [16]float64{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 5, 6, 7, 1}}
	p := localTransform(n).Mul4x1(mgl32.Vec4{0, 0, 0, 1}).Vec3()
	assert.Equal(t, mgl32.Vec3{5, 6, 7}, p)
}

func TestComputeNormals(t *testing.T) {
	positions := [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 0, -1}, {5, 5, 5}}
	normals := ComputeNormals(positions, []uint32{0, 1, 2})

	for i := 0; i < 3; i++ {
		assert.True(t, mgl32.Vec3(normals[i]).ApproxEqual(mgl32.Vec3{0, 1, 0}), "vertex %d: %v", i, normals[i])
	}
	assert.Equal(t, [3]float32{0, 1, 0}, normals[3], "unused vertex")
}

func TestRootNodesWithoutScenes(t *testing.T) {
	doc := &gltf.Document{Nodes: []*gltf.Node{
		{Children: []uint32{2}},
		{},
		{},
	}}
	assert.Equal(t, []int{0, 1}, rootNodes(doc))
	assert.Zero(t, countPrimitives(doc, rootNodes(doc)))
}

func TestImportIndexBounds(t *testing.T) {
	build := func(mutate func(doc *gltf.Document)) string {
		doc := gltf.NewDocument()
		pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
		doc.Meshes = []*gltf.Mesh{{
			Name:       "tri",
			Primitives: []*gltf.Primitive{{Attributes: gltf.Attribute{attrPosition: pos}}},
		}}
		doc.Nodes = []*gltf.Node{{Name: "tri", Mesh: gltf.Index(0)}}
		doc.Scenes = []*gltf.Scene{{Nodes: []uint32{0}}}
		doc.Scene = gltf.Index(0)
		mutate(doc)

		path := filepath.Join(t.TempDir(), "bounds.glb")
		require.NoError(t, gltf.SaveBinary(doc, path))
		return path
	}

	tests := []struct {
		name    string
		mutate  func(doc *gltf.Document)
		wantErr string
	}{
		{
			name: "material out of range falls back",
			mutate: func(doc *gltf.Document) {
				doc.Meshes[0].Primitives[0].Material = gltf.Index(7)
			},
		},
		{
			name: "scene index out of range uses first scene",
			mutate: func(doc *gltf.Document) {
				doc.Scene = gltf.Index(3)
			},
		},
		{
			name: "child out of range",
			mutate: func(doc *gltf.Document) {
				doc.Nodes[0].Children = []uint32{9}
			},
			wantErr: "node index 9 out of range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mdl, err := NewImporter(1).Import(context.Background(), build(tt.mutate), nil)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Len(t, mdl.Meshes, 1)
			assert.Equal(t, "default", mdl.Meshes[0].Material.Name)
		})
	}
}

func TestBufferViewBytesBounds(t *testing.T) {
	doc := &gltf.Document{
		Buffers: []*gltf.Buffer{{ByteLength: 4, Data: []byte{1, 2, 3, 4}}},
		BufferViews: []*gltf.BufferView{
			{Buffer: 0, ByteOffset: 1, ByteLength: 2},
			{Buffer: 0, ByteOffset: 2, ByteLength: 8},
			{Buffer: 5, ByteLength: 1},
		},
	}

	data, err := bufferViewBytes(doc, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 3}, data)

	_, err = bufferViewBytes(doc, 1)
	assert.ErrorContains(t, err, "exceeds buffer")
	_, err = bufferViewBytes(doc, 2)
	assert.ErrorContains(t, err, "buffer 5 out of range")
	_, err = bufferViewBytes(doc, 3)
	assert.ErrorContains(t, err, "buffer view 3 out of range")
}
