package compute

import _ "embed"

//go:embed shaders/identity.comp
var identityShader string

//go:embed shaders/drift.comp
var driftShader string
