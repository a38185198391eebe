package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSource = `
@vertex
fn vs_main(@location(0) position: vec2<f32>, @location(1) color: vec3<f32>) -> @builtin(position) vec4<f32> {
    return vec4<f32>(position, 0.0, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(0.0, 0.4, 1.0, 1.0);
}
`

func testShaders(t *testing.T) (shader.Shader, shader.Shader) {
	t.Helper()
	vs, err := shader.NewShaderFromSource("test", shader.ShaderTypeVertex, testSource)
	require.NoError(t, err)
	fs, err := shader.NewShaderFromSource("test", shader.ShaderTypeFragment, testSource)
	require.NoError(t, err)
	return vs, fs
}

func TestBuiltinLayouts(t *testing.T) {
	assert.Equal(t, uint64(8), LayoutPosition2D.ArrayStride)
	require.Len(t, LayoutPosition2D.Attributes, 1)
	assert.Equal(t, wgpu.VertexFormatFloat32x2, LayoutPosition2D.Attributes[0].Format)
	assert.Equal(t, uint32(0), LayoutPosition2D.Attributes[0].ShaderLocation)

	assert.Equal(t, uint64(20), LayoutPosition2DColor3.ArrayStride)
	require.Len(t, LayoutPosition2DColor3.Attributes, 2)
	assert.Equal(t, uint64(8), LayoutPosition2DColor3.Attributes[1].Offset)
	assert.Equal(t, uint32(1), LayoutPosition2DColor3.Attributes[1].ShaderLocation)
	assert.Equal(t, wgpu.VertexFormatFloat32x3, LayoutPosition2DColor3.Attributes[1].Format)
	assert.Equal(t, 5, LayoutPosition2DColor3.FloatsPerVertex())
}

func TestEmptyLayout(t *testing.T) {
	var l VertexLayout
	assert.True(t, l.Empty())
	assert.Nil(t, l.BufferLayouts())

	buffers := LayoutPosition2D.BufferLayouts()
	require.Len(t, buffers, 1)
	assert.Equal(t, wgpu.VertexStepModeVertex, buffers[0].StepMode)
}

func TestNewVertexLayoutRejectsUnsupportedFormat(t *testing.T) {
	_, err := NewVertexLayout(wgpu.VertexFormatFloat32x2, wgpu.VertexFormatUint8x2)
	assert.Error(t, err)
}

func TestLayoutMismatches(t *testing.T) {
	vs, _ := testShaders(t)

	assert.Empty(t, LayoutPosition2DColor3.Mismatches(vs.VertexInputs()))

	// the shader reads location 1 that the position-only layout does not provide
	mismatches := LayoutPosition2D.Mismatches(vs.VertexInputs())
	require.Len(t, mismatches, 1)
	assert.Contains(t, mismatches[0], "location 1")

	wrong := MustVertexLayout(wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x3)
	assert.Len(t, wrong.Mismatches(vs.VertexInputs()), 1)
}

func TestBlendPresets(t *testing.T) {
	assert.Nil(t, BlendNone.State())

	basic := BlendBasicAlpha.State()
	require.NotNil(t, basic)
	assert.Equal(t, wgpu.BlendFactorSrcAlpha, basic.Color.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOneMinusSrcAlpha, basic.Color.DstFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, basic.Color.Operation)
	assert.Equal(t, wgpu.BlendFactorOne, basic.Alpha.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorZero, basic.Alpha.DstFactor)

	pass := BlendPremultipliedPassThrough.State()
	require.NotNil(t, pass)
	assert.Equal(t, basic.Color, pass.Color)
	assert.Equal(t, wgpu.BlendFactorZero, pass.Alpha.SrcFactor)
	assert.Equal(t, wgpu.BlendFactorOne, pass.Alpha.DstFactor)
	assert.Equal(t, wgpu.BlendOperationAdd, pass.Alpha.Operation)
}

func TestParseBlendPreset(t *testing.T) {
	for _, preset := range []BlendPreset{BlendNone, BlendBasicAlpha, BlendPremultipliedPassThrough} {
		got, err := ParseBlendPreset(preset.String())
		require.NoError(t, err)
		assert.Equal(t, preset, got)
	}
	assert.Equal(t, "basic-alpha-blend", BlendBasicAlpha.String())
	assert.Equal(t, "premultiplied-pass-through", BlendPremultipliedPassThrough.String())

	_, err := ParseBlendPreset("additive")
	assert.Error(t, err)
}

func TestNewPipelineDefaults(t *testing.T) {
	vs, fs := testShaders(t)
	p := NewPipeline("default", WithVertexShader(vs), WithFragmentShader(fs))

	assert.Equal(t, "default", p.PipelineKey())
	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
	assert.Equal(t, BlendNone, p.BlendPreset())
	assert.Nil(t, p.BlendState())
	assert.Equal(t, DrawModeNonIndexed, p.DrawMode())
	assert.True(t, p.VertexLayout().Empty())
	assert.Same(t, vs, p.Shader(shader.ShaderTypeVertex))
	assert.Same(t, fs, p.Shader(shader.ShaderTypeFragment))
	assert.NoError(t, p.Validate())
}

func TestPipelineOptions(t *testing.T) {
	vs, fs := testShaders(t)
	p := NewPipeline("indexed",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexLayout(LayoutPosition2DColor3),
		WithBlendPreset(BlendPremultipliedPassThrough),
		WithDrawMode(DrawModeIndexed),
		WithInterStageComponents(3),
	)
	assert.Equal(t, DrawModeIndexed, p.DrawMode())
	assert.Equal(t, BlendPremultipliedPassThrough, p.BlendPreset())
	assert.Equal(t, uint32(3), p.InterStageComponents())
	assert.Equal(t, uint64(20), p.VertexLayout().ArrayStride)
	assert.NoError(t, p.Validate())
}

func TestPipelineValidate(t *testing.T) {
	vs, fs := testShaders(t)
	tests := []struct {
		name string
		p    Pipeline
	}{
		{"no key", NewPipeline("", WithVertexShader(vs), WithFragmentShader(fs))},
		{"no fragment", NewPipeline("p", WithVertexShader(vs))},
		{"swapped stages", NewPipeline("p", WithVertexShader(fs), WithFragmentShader(vs))},
		{"indexed without layout", NewPipeline("p", WithVertexShader(vs), WithFragmentShader(fs), WithDrawMode(DrawModeIndexed))},
		{"unknown preset", NewPipeline("p", WithVertexShader(vs), WithFragmentShader(fs), WithBlendPreset(BlendPreset(42)))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.p.Validate())
		})
	}
}

func TestShippedPositionShaderMatchesLayout(t *testing.T) {
	vs, err := shader.NewShader("vertex-buffer", shader.ShaderTypeVertex, filepath.Join("..", "..", "..", "assets", "shaders", "position.wgsl"))
	require.NoError(t, err)
	require.Len(t, vs.VertexInputs(), 1)
	assert.Empty(t, LayoutPosition2D.Mismatches(vs.VertexInputs()))
}

func TestPrimitiveStateIsFixed(t *testing.T) {
	vs, fs := testShaders(t)
	p := NewPipeline("colored",
		WithVertexShader(vs),
		WithFragmentShader(fs),
		WithVertexLayout(LayoutPosition2DColor3),
		WithBlendPreset(BlendPremultipliedPassThrough),
		WithDrawMode(DrawModeIndexed),
		WithInterStageComponents(3),
	)

	assert.Equal(t, wgpu.PrimitiveTopologyTriangleList, p.Topology())
	assert.Equal(t, wgpu.FrontFaceCCW, p.FrontFace())
	assert.Equal(t, wgpu.CullModeNone, p.CullMode())
	assert.Equal(t, wgpu.ColorWriteMaskAll, p.WriteMask())
}
