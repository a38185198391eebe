package shader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coloredSource = `
struct VertexInput {
    @location(0) position: vec2<f32>,
    @location(1) color: vec3<f32>,
};

struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) color: vec3<f32>,
};

// entry points share one module
@vertex
fn vs_main(in: VertexInput) -> VertexOutput {
    var out: VertexOutput;
    out.position = vec4<f32>(in.position, 0.0, 1.0);
    out.color = in.color;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return vec4<f32>(in.color, 1.0);
}
`

const positionSource = `
@vertex
fn vs_main(@location(0) in_vertex_position: vec2<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(in_vertex_position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.4, 1.0, 1.0);
}
`

func TestParseEntryPoint(t *testing.T) {
	assert.Equal(t, "vs_main", parseEntryPoint(coloredSource, ShaderTypeVertex))
	assert.Equal(t, "fs_main", parseEntryPoint(coloredSource, ShaderTypeFragment))
	assert.Equal(t, "", parseEntryPoint("fn helper() {}", ShaderTypeVertex))
}

func TestParseEntryPointIgnoresComments(t *testing.T) {
	src := "// @vertex fn commented() {}\n/* @vertex fn blocked() {} */\n@vertex\nfn real_main() -> @builtin(position) vec4<f32> { return vec4<f32>(); }"
	assert.Equal(t, "real_main", parseEntryPoint(src, ShaderTypeVertex))
}

func TestParseVertexInputsFromStruct(t *testing.T) {
	inputs := parseVertexInputs(coloredSource)
	require.Len(t, inputs, 2)

	assert.Equal(t, uint32(0), inputs[0].Location)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, inputs[0].Format)
	assert.Equal(t, uint64(8), inputs[0].Size)

	assert.Equal(t, uint32(1), inputs[1].Location)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, inputs[1].Format)
	assert.Equal(t, "color", inputs[1].Name)
}

func TestParseVertexInputsFromParameters(t *testing.T) {
	inputs := parseVertexInputs(positionSource)
	require.Len(t, inputs, 1)
	assert.Equal(t, "in_vertex_position", inputs[0].Name)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, inputs[0].Format)
}

func TestParseVertexInputsSkipsBuiltins(t *testing.T) {
	src := `
@vertex
fn vs_main(@builtin(vertex_index) in_vertex_index: u32) -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}`
	assert.Empty(t, parseVertexInputs(src))
}

func TestParseBindingNames(t *testing.T) {
	src := "@group(0) @binding(0) var<uniform> uTime: f32;\n@group(0) @binding(1) var tex: texture_2d<f32>;"
	assert.Equal(t, []string{"uTime", "tex"}, parseBindingNames(src))
	assert.Empty(t, parseBindingNames(positionSource))
}

func TestNewShaderFromSource(t *testing.T) {
	vs, err := NewShaderFromSource("colored", ShaderTypeVertex, coloredSource)
	require.NoError(t, err)
	assert.Equal(t, "colored", vs.Key())
	assert.Equal(t, "vs_main", vs.EntryPoint())
	assert.Equal(t, ShaderTypeVertex, vs.ShaderType())
	assert.Len(t, vs.VertexInputs(), 2)

	fs, err := NewShaderFromSource("colored", ShaderTypeFragment, coloredSource)
	require.NoError(t, err)
	assert.Equal(t, "fs_main", fs.EntryPoint())
	assert.Empty(t, fs.VertexInputs())
}

func TestNewShaderFromSourceRejects(t *testing.T) {
	tests := []struct {
		name   string
		typ    ShaderType
		source string
	}{
		{"empty", ShaderTypeVertex, "   \n"},
		{"syntax", ShaderTypeVertex, "@vertex fn vs_main( -> {"},
		{"missing stage", ShaderTypeFragment, `
@vertex
fn vs_main() -> @builtin(position) vec4<f32> {
    return vec4<f32>(0.0, 0.0, 0.0, 1.0);
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewShaderFromSource("bad", tt.typ, tt.source)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShaderInvalid))
		})
	}
}

func TestNewShaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shader.wgsl")
	require.NoError(t, os.WriteFile(path, []byte(positionSource), 0o600))

	s, err := NewShader("file", ShaderTypeVertex, path)
	require.NoError(t, err)
	assert.Equal(t, positionSource, s.Source())

	_, err = NewShader("missing", ShaderTypeVertex, filepath.Join(t.TempDir(), "nope.wgsl"))
	assert.True(t, errors.Is(err, ErrShaderInvalid))

	_, err = NewShader("unset", ShaderTypeVertex, "")
	assert.True(t, errors.Is(err, ErrShaderInvalid))
}

func TestParseVertexInputsMixedParameters(t *testing.T) {
	src := `
@vertex
fn vs_main(@builtin(vertex_index) idx: u32, @location(0) pos: vec2<f32>, @location(1) color: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(pos, 0.0, 1.0);
}`
	inputs := parseVertexInputs(src)
	require.Len(t, inputs, 2)
	assert.Equal(t, "pos", inputs[0].Name)
	assert.Equal(t, uint32(1), inputs[1].Location)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, inputs[1].Format)
	assert.Equal(t, "vs_main", parseEntryPoint(src, ShaderTypeVertex))
}
