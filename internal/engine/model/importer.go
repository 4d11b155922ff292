// Package model imports glTF 2.0 assets into scene models.
package model

import (
	"context"
	"errors"
	"fmt"
	"image"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/panjf2000/ants/v2"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"

	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/engine/texture"
	"github.com/Faultbox/xrviewer/internal/logger"
)

// Attribute names read from primitives.
const (
	attrPosition  = "POSITION"
	attrNormal    = "NORMAL"
	attrTexCoord0 = "TEXCOORD_0"
)

// ErrNoGeometry is returned when a document contains nothing drawable.
var ErrNoGeometry = errors.New("model has no triangle geometry")

// ProgressFunc receives the units of work done so far and the total.
// It may be called from several goroutines.
type ProgressFunc func(loaded, total int)

// Importer converts glTF documents to scene models.
type Importer struct {
	// Workers bounds parallel image decoding.
	Workers int

	log *zap.Logger
}

// NewImporter creates an importer decoding images on up to workers goroutines.
func NewImporter(workers int) *Importer {
	if workers < 1 {
		workers = 1
	}
	return &Importer{
		Workers: workers,
		log:     logger.Named("model"),
	}
}

// progress serializes ProgressFunc calls and counts work units.
type progress struct {
	mu     sync.Mutex
	fn     ProgressFunc
	loaded int
	total  int
}

func (p *progress) step() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loaded++
	if p.fn != nil {
		p.fn(p.loaded, p.total)
	}
}

// Import reads the .gltf or .glb file at path together with its buffers and
// images. Progress counts the document, every image and every primitive.
func (im *Importer) Import(ctx context.Context, path string, onProgress ProgressFunc) (*scene.Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roots := rootNodes(doc)
	prog := &progress{fn: onProgress, total: 1 + len(doc.Images) + countPrimitives(doc, roots)}
	prog.step()

	images, err := im.decodeImages(ctx, doc, filepath.Dir(path), prog)
	if err != nil {
		return nil, err
	}
	materials := buildMaterials(doc, images)

	mdl := scene.NewModel(filepath.Base(path))
	for _, root := range roots {
		if err := im.walk(ctx, doc, root, mgl32.Ident4(), materials, mdl, prog); err != nil {
			return nil, err
		}
	}
	if len(mdl.Meshes) == 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoGeometry)
	}

	im.log.Debug("model imported",
		zap.String("path", path),
		zap.Int("meshes", len(mdl.Meshes)),
		zap.Int("textures", len(mdl.Textures())),
	)
	return mdl, nil
}

func (im *Importer) walk(ctx context.Context, doc *gltf.Document, idx int, parent mgl32.Mat4,
	materials []*scene.Material, mdl *scene.Model, prog *progress) error {

	if idx < 0 || idx >= len(doc.Nodes) {
		return fmt.Errorf("node index %d out of range", idx)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	node := doc.Nodes[idx]
	world := parent.Mul4(localTransform(node))

	if node.Mesh != nil && int(*node.Mesh) < len(doc.Meshes) {
		gm := doc.Meshes[*node.Mesh]
		for pi, prim := range gm.Primitives {
			mesh, err := im.readPrimitive(doc, prim)
			prog.step()
			if err != nil {
				return fmt.Errorf("mesh %q primitive %d: %w", gm.Name, pi, err)
			}
			if mesh == nil {
				continue
			}
			mesh.Name = gm.Name
			mesh.World = world
			mesh.Material = scene.DefaultMaterial()
			if prim.Material != nil && int(*prim.Material) < len(materials) {
				mesh.Material = materials[*prim.Material]
			}
			mdl.AddMesh(mesh)
		}
	}

	for _, child := range node.Children {
		if err := im.walk(ctx, doc, int(child), world, materials, mdl, prog); err != nil {
			return err
		}
	}
	return nil
}

// readPrimitive returns nil for primitives that are not triangle lists.
func (im *Importer) readPrimitive(doc *gltf.Document, prim *gltf.Primitive) (*scene.Mesh, error) {
	if prim.Mode != gltf.PrimitiveTriangles {
		im.log.Debug("skipping non-triangle primitive", zap.Int("mode", int(prim.Mode)))
		return nil, nil
	}

	posIdx, ok := prim.Attributes[attrPosition]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	if int(posIdx) >= len(doc.Accessors) {
		return nil, fmt.Errorf("position accessor %d out of range", posIdx)
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("reading positions: %w", err)
	}

	var indices []uint32
	if prim.Indices != nil {
		if int(*prim.Indices) >= len(doc.Accessors) {
			return nil, fmt.Errorf("index accessor %d out of range", *prim.Indices)
		}
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("reading indices: %w", err)
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	for _, i := range indices {
		if int(i) >= len(positions) {
			return nil, fmt.Errorf("index %d out of range (%d vertices)", i, len(positions))
		}
	}

	var normals [][3]float32
	if ni, ok := prim.Attributes[attrNormal]; ok && int(ni) < len(doc.Accessors) {
		normals, err = modeler.ReadNormal(doc, doc.Accessors[ni], nil)
		if err != nil {
			return nil, fmt.Errorf("reading normals: %w", err)
		}
	}
	if len(normals) != len(positions) {
		normals = ComputeNormals(positions, indices)
	}

	var uvs [][2]float32
	if ti, ok := prim.Attributes[attrTexCoord0]; ok && int(ti) < len(doc.Accessors) {
		uvs, err = modeler.ReadTextureCoord(doc, doc.Accessors[ti], nil)
		if err != nil {
			return nil, fmt.Errorf("reading texture coordinates: %w", err)
		}
	}

	mesh := &scene.Mesh{
		Vertices: make([]scene.Vertex, len(positions)),
		Indices:  indices,
	}
	for i, p := range positions {
		v := scene.Vertex{Position: p, Normal: normals[i]}
		if i < len(uvs) {
			v.UV = uvs[i]
		}
		mesh.Vertices[i] = v
	}
	return mesh, nil
}

// decodeImages decodes every image on the worker pool. A broken image is
// logged and leaves a nil entry so its materials fall back to base color.
func (im *Importer) decodeImages(ctx context.Context, doc *gltf.Document, dir string, prog *progress) ([]*scene.Texture, error) {
	out := make([]*scene.Texture, len(doc.Images))
	if len(doc.Images) == 0 {
		return out, nil
	}

	pool, err := ants.NewPool(im.Workers)
	if err != nil {
		return nil, fmt.Errorf("creating decode pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i, img := range doc.Images {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			defer prog.step()
			if ctx.Err() != nil {
				return
			}

			name := imageName(img, i)
			data, err := imageBytes(doc, img, dir)
			if err == nil {
				var rgba *image.RGBA
				if rgba, err = texture.Decode(data); err == nil {
					out[i] = &scene.Texture{Name: name, Image: rgba}
					return
				}
			}
			im.log.Warn("texture unavailable, using base color",
				zap.String("image", name),
				zap.Error(err),
			)
		})
		if submitErr != nil {
			wg.Done()
			return nil, fmt.Errorf("scheduling image %d: %w", i, submitErr)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func imageName(img *gltf.Image, i int) string {
	switch {
	case img.Name != "":
		return img.Name
	case img.URI != "" && !img.IsEmbeddedResource():
		return img.URI
	default:
		return fmt.Sprintf("image%d", i)
	}
}

// imageBytes returns the encoded image from a buffer view, a data URI or a
// file relative to dir.
func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	if img.BufferView != nil {
		return bufferViewBytes(doc, int(*img.BufferView))
	}
	if img.IsEmbeddedResource() {
		return img.MarshalData()
	}
	if img.URI == "" {
		return nil, errors.New("image has neither uri nor buffer view")
	}

	rel, err := url.PathUnescape(img.URI)
	if err != nil {
		rel = img.URI
	}
	if filepath.IsAbs(rel) || strings.Contains(rel, "://") {
		return nil, fmt.Errorf("refusing non-relative image uri %q", img.URI)
	}
	return os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
}

func bufferViewBytes(doc *gltf.Document, idx int) ([]byte, error) {
	if idx < 0 || idx >= len(doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d out of range", idx)
	}
	bv := doc.BufferViews[idx]
	if int(bv.Buffer) >= len(doc.Buffers) {
		return nil, fmt.Errorf("buffer %d out of range", bv.Buffer)
	}
	data := doc.Buffers[bv.Buffer].Data
	start := int(bv.ByteOffset)
	end := start + int(bv.ByteLength)
	if end > len(data) {
		return nil, fmt.Errorf("buffer view %d exceeds buffer (%d > %d)", idx, end, len(data))
	}
	return data[start:end], nil
}

func buildMaterials(doc *gltf.Document, images []*scene.Texture) []*scene.Material {
	out := make([]*scene.Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		m := scene.DefaultMaterial()
		m.Name = gm.Name
		m.DoubleSided = gm.DoubleSided

		switch gm.AlphaMode {
		case gltf.AlphaMask:
			m.AlphaMode = scene.AlphaMask
		case gltf.AlphaBlend:
			m.AlphaMode = scene.AlphaBlend
		}
		if gm.AlphaCutoff != nil {
			m.AlphaCutoff = float32(*gm.AlphaCutoff)
		}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			if f := pbr.BaseColorFactor; f != nil {
				m.BaseColor = mgl32.Vec4{float32(f[0]), float32(f[1]), float32(f[2]), float32(f[3])}
			}
			if ti := pbr.BaseColorTexture; ti != nil && int(ti.Index) < len(doc.Textures) {
				if src := doc.Textures[ti.Index].Source; src != nil && int(*src) < len(images) {
					m.Texture = images[*src]
				}
			}
		}
		out[i] = m
	}
	return out
}

func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		idx := 0
		if doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes) {
			idx = int(*doc.Scene)
		}
		return toInts(doc.Scenes[idx].Nodes)
	}

	// No scenes: every node nobody parents is a root
	child := make([]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) < len(child) {
				child[c] = true
			}
		}
	}
	var roots []int
	for i, isChild := range child {
		if !isChild {
			roots = append(roots, i)
		}
	}
	return roots
}

// countPrimitives counts the primitives reachable from roots, matching the
// progress steps walk will take.
func countPrimitives(doc *gltf.Document, roots []int) int {
	n := 0
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		if idx < 0 || idx >= len(doc.Nodes) || depth > len(doc.Nodes) {
			return
		}
		node := doc.Nodes[idx]
		if node.Mesh != nil && int(*node.Mesh) < len(doc.Meshes) {
			n += len(doc.Meshes[*node.Mesh].Primitives)
		}
		for _, c := range node.Children {
			visit(int(c), depth+1)
		}
	}
	for _, r := range roots {
		visit(r, 0)
	}
	return n
}

func toInts(idx []uint32) []int {
	out := make([]int, len(idx))
	for i, v := range idx {
		out[i] = int(v)
	}
	return out
}
