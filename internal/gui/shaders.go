package gui

import (
	_ "embed"

	"github.com/san-kum/herofield/internal/render"
)

var (
	//go:embed shaders/bloom.fs
	bloomShader string
	//go:embed shaders/chromatic.fs
	chromaticShader string
	//go:embed shaders/dof.fs
	dofShader string
)

// passSources maps each post-processing pass to its fragment shader.
var passSources = map[render.Pass]string{
	render.Bloom:               bloomShader,
	render.ChromaticAberration: chromaticShader,
	render.DepthOfField:        dofShader,
}
