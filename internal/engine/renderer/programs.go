package renderer

import (
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/xrviewer/internal/engine/renderer/shaders"
	"github.com/Faultbox/xrviewer/internal/engine/scene"
	"github.com/Faultbox/xrviewer/internal/engine/shader"
)

// meshProgram holds the lit mesh shader and its uniform locations.
type meshProgram struct {
	*shader.Program

	model, view, projection, normalMatrix int32
	baseColor, hasTexture, texture         int32
	alphaMode, alphaCutoff                 int32
	ambient, hasKey, keyColor, keyDir      int32
	hasFog, fogColor, fogNear, fogFar      int32
	toneMapping, exposure                  int32
}

func newMeshProgram() (meshProgram, error) {
	prog, err := shader.Build("mesh", shaders.Mesh)
	if err != nil {
		return meshProgram{}, err
	}
	u := prog.Uniform
	return meshProgram{
		Program:      prog,
		model:        u("uModel"),
		view:         u("uView"),
		projection:   u("uProjection"),
		normalMatrix: u("uNormalMatrix"),
		baseColor:    u("uBaseColor"),
		hasTexture:   u("uHasTexture"),
		texture:      u("uTexture"),
		alphaMode:    u("uAlphaMode"),
		alphaCutoff:  u("uAlphaCutoff"),
		ambient:      u("uAmbient"),
		hasKey:       u("uHasKey"),
		keyColor:     u("uKeyColor"),
		keyDir:       u("uKeyDirection"),
		hasFog:       u("uHasFog"),
		fogColor:     u("uFogColor"),
		fogNear:      u("uFogNear"),
		fogFar:       u("uFogFar"),
		toneMapping:  u("uToneMapping"),
		exposure:     u("uExposure"),
	}, nil
}

// setFrame uploads the per-camera uniforms. The program must be in use.
func (p *meshProgram) setFrame(s *scene.Scene, view, proj mgl32.Mat4, tone int32, exposure float32) {
	gl.UniformMatrix4fv(p.view, 1, false, &view[0])
	gl.UniformMatrix4fv(p.projection, 1, false, &proj[0])

	ambient := s.Ambient.Color.Mul(s.Ambient.Intensity)
	gl.Uniform3f(p.ambient, ambient.X(), ambient.Y(), ambient.Z())

	if s.Key != nil {
		key := s.Key.Color.Mul(s.Key.Intensity)
		dir := s.Key.Direction.Normalize()
		gl.Uniform1i(p.hasKey, 1)
		gl.Uniform3f(p.keyColor, key.X(), key.Y(), key.Z())
		gl.Uniform3f(p.keyDir, dir.X(), dir.Y(), dir.Z())
	} else {
		gl.Uniform1i(p.hasKey, 0)
	}

	if s.Fog != nil {
		gl.Uniform1i(p.hasFog, 1)
		gl.Uniform3f(p.fogColor, s.Fog.Color.X(), s.Fog.Color.Y(), s.Fog.Color.Z())
		gl.Uniform1f(p.fogNear, s.Fog.Near)
		gl.Uniform1f(p.fogFar, s.Fog.Far)
	} else {
		gl.Uniform1i(p.hasFog, 0)
	}

	gl.Uniform1i(p.toneMapping, tone)
	gl.Uniform1f(p.exposure, exposure)
	gl.Uniform1i(p.texture, 0)
}

func (p *meshProgram) draw(m *gpuMesh) {
	mat := m.material()
	world := m.mesh.World
	normal := world.Mat3().Inv().Transpose()

	gl.UniformMatrix4fv(p.model, 1, false, &world[0])
	gl.UniformMatrix3fv(p.normalMatrix, 1, false, &normal[0])
	gl.Uniform4f(p.baseColor, mat.BaseColor[0], mat.BaseColor[1], mat.BaseColor[2], mat.BaseColor[3])
	gl.Uniform1i(p.alphaMode, int32(mat.AlphaMode))
	gl.Uniform1f(p.alphaCutoff, mat.AlphaCutoff)

	if m.texture != 0 {
		gl.Uniform1i(p.hasTexture, 1)
		gl.ActiveTexture(gl.TEXTURE0)
		gl.BindTexture(gl.TEXTURE_2D, m.texture)
	} else {
		gl.Uniform1i(p.hasTexture, 0)
	}

	if mat.DoubleSided {
		gl.Disable(gl.CULL_FACE)
	} else {
		gl.Enable(gl.CULL_FACE)
		gl.CullFace(gl.BACK)
	}

	gl.BindVertexArray(m.vao)
	gl.DrawElementsWithOffset(gl.TRIANGLES, m.count, gl.UNSIGNED_INT, 0)
	gl.BindVertexArray(0)
}

// unlitProgram draws controller visuals with vertex colors.
type unlitProgram struct {
	*shader.Program
	model, view, projection int32
	opacity                 int32
}

func newUnlitProgram() (unlitProgram, error) {
	prog, err := shader.Build("unlit", shaders.Unlit)
	if err != nil {
		return unlitProgram{}, err
	}
	locs, err := prog.Require("uModel", "uView", "uProjection")
	if err != nil {
		prog.Delete()
		return unlitProgram{}, err
	}
	return unlitProgram{
		Program:    prog,
		model:      locs["uModel"],
		view:       locs["uView"],
		projection: locs["uProjection"],
		opacity:    prog.Uniform("uOpacity"),
	}, nil
}
