package shader

import (
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gogpu/naga"
)

// ShaderType identifies which render stage a shader is used for.
type ShaderType int

const (
	// ShaderTypeVertex is the vertex shader type, used for vertex processing in render pipelines.
	ShaderTypeVertex ShaderType = iota

	// ShaderTypeFragment is the fragment shader type, used for fragment processing in pair with a vertex shader.
	ShaderTypeFragment
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	default:
		return "unknown"
	}
}

var (
	// ErrShaderInvalid is returned when shader source cannot be read, fails validation,
	// has no entry point for its stage, or declares resource bindings.
	ErrShaderInvalid = errors.New("invalid shader")
)

// shader is the implementation of the Shader interface.
type shader struct {
	key          string
	source       string
	shaderType   ShaderType
	entryPoint   string
	vertexInputs []VertexInput
}

// Shader defines the interface for a loaded and validated WGSL shader stage. It exposes the shader's
// unique key, source code, entry point and, for vertex shaders, the declared vertex inputs.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for labels and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Source retrieves the WGSL shader source code.
	//
	// Returns:
	//   - string: the WGSL source code of the shader
	Source() string

	// EntryPoint returns the entry point name for this shader's stage.
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main")
	EntryPoint() string

	// ShaderType returns the stage of the shader.
	//
	// Returns:
	//   - ShaderType: ShaderTypeVertex or ShaderTypeFragment
	ShaderType() ShaderType

	// VertexInputs returns the @location inputs of the vertex entry point, sorted by location.
	// Fragment shaders and vertex shaders that read no vertex buffers return an empty slice.
	//
	// Returns:
	//   - []VertexInput: the declared vertex inputs
	VertexInputs() []VertexInput
}

var _ Shader = &shader{}

// NewShader reads WGSL source from a file and creates a validated Shader from it.
//
// Parameters:
//   - key: a unique identifier for the shader, used for labels and lookups
//   - shaderType: the stage the shader is used for
//   - sourcePath: the file path to read WGSL source from
//
// Returns:
//   - Shader: the loaded shader
//   - error: ErrShaderInvalid if the file cannot be read or the source is rejected
func NewShader(key string, shaderType ShaderType, sourcePath string) (Shader, error) {
	if sourcePath == "" {
		return nil, errors.Wrapf(ErrShaderInvalid, "shader %q: no source path", key)
	}
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "shader %q: read %s", key, sourcePath), ErrShaderInvalid)
	}
	return NewShaderFromSource(key, shaderType, string(data))
}

// NewShaderFromSource creates a validated Shader from in-memory WGSL source.
// The source is compiled with naga so syntax and type errors are reported before any GPU work.
//
// Parameters:
//   - key: a unique identifier for the shader
//   - shaderType: the stage the shader is used for
//   - source: the WGSL source text
//
// Returns:
//   - Shader: the loaded shader
//   - error: ErrShaderInvalid if the source is rejected
func NewShaderFromSource(key string, shaderType ShaderType, source string) (Shader, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.Wrapf(ErrShaderInvalid, "shader %q: empty source", key)
	}
	if _, err := naga.Compile(source); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "shader %q: compile", key), ErrShaderInvalid)
	}

	s := &shader{
		key:        key,
		source:     source,
		shaderType: shaderType,
	}
	s.entryPoint = parseEntryPoint(source, shaderType)
	if s.entryPoint == "" {
		return nil, errors.Wrapf(ErrShaderInvalid, "shader %q: no @%s entry point", key, shaderType)
	}
	// pipeline layouts are always empty, so any resource binding would fail pipeline creation
	if names := parseBindingNames(source); len(names) > 0 {
		return nil, errors.Wrapf(ErrShaderInvalid, "shader %q: declares resource bindings %v", key, names)
	}
	if shaderType == ShaderTypeVertex {
		s.vertexInputs = parseVertexInputs(source)
	}
	return s, nil
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint() string {
	return s.entryPoint
}

func (s *shader) ShaderType() ShaderType {
	return s.shaderType
}

func (s *shader) VertexInputs() []VertexInput {
	return s.vertexInputs
}
