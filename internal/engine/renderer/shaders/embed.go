// Package shaders provides embedded GLSL shader sources.
package shaders

import (
	_ "embed"

	"github.com/Faultbox/xrviewer/internal/engine/shader"
)

var (
	//go:embed mesh.vert
	meshVert string
	//go:embed mesh.frag
	meshFrag string
	//go:embed unlit.vert
	unlitVert string
	//go:embed unlit.frag
	unlitFrag string
)

// Mesh lights, fogs and tone maps glTF meshes.
var Mesh = shader.Sources{Vertex: meshVert, Fragment: meshFrag}

// Unlit draws the vertex-colored controller lines and rings.
var Unlit = shader.Sources{Vertex: unlitVert, Fragment: unlitFrag}
