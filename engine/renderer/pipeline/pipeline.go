package pipeline

import (
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// DrawMode selects the draw call a pipeline is used with.
type DrawMode int

const (
	// DrawModeNonIndexed issues Draw(vertexCount, 1, 0, 0).
	DrawModeNonIndexed DrawMode = iota

	// DrawModeIndexed issues DrawIndexed(indexCount, 1, 0, 0, 0) with uint16 indices.
	DrawModeIndexed
)

func (m DrawMode) String() string {
	switch m {
	case DrawModeNonIndexed:
		return "non-indexed"
	case DrawModeIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// pipeline is the implementation of the Pipeline interface.
// It is the immutable configuration from which one backend render pipeline is built.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for labels and lookups
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	vertexLayout         VertexLayout
	blendPreset          BlendPreset
	drawMode             DrawMode
	interStageComponents uint32

	cullMode  wgpu.CullMode
	topology  wgpu.PrimitiveTopology
	frontFace wgpu.FrontFace
	writeMask wgpu.ColorWriteMask
}

// Pipeline defines the interface for a render pipeline configuration: the shader stages, the interleaved
// vertex layout, the fragment blend preset, primitive state and the draw mode used every frame.
// The pipeline layout is always empty; no bind groups are modeled.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline, used for labels and lookups.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader associated with the specified stage if it exists, nil otherwise.
	//
	// Parameters:
	//   - shaderType: the stage of shader to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader associated with the specified stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// VertexLayout returns the interleaved vertex buffer layout. The empty layout means no vertex buffer is bound.
	//
	// Returns:
	//   - VertexLayout: the vertex layout
	VertexLayout() VertexLayout

	// BlendPreset returns the named blend configuration of the color target.
	//
	// Returns:
	//   - BlendPreset: the blend preset
	BlendPreset() BlendPreset

	// BlendState returns the blend state of the color target, or nil when blending is disabled.
	//
	// Returns:
	//   - *wgpu.BlendState: the blend state
	BlendState() *wgpu.BlendState

	// DrawMode returns whether frames issue an indexed or a non-indexed draw.
	//
	// Returns:
	//   - DrawMode: the draw mode
	DrawMode() DrawMode

	// InterStageComponents returns the number of scalar components passed from the vertex to the
	// fragment stage, used when deriving required device limits. Zero means unconstrained.
	//
	// Returns:
	//   - uint32: the inter-stage component count
	InterStageComponents() uint32

	// CullMode returns the cull mode configured for this pipeline.
	//
	// Returns:
	//   - wgpu.CullMode: the cull mode for this pipeline
	CullMode() wgpu.CullMode

	// Topology returns the primitive topology configured for this pipeline.
	//
	// Returns:
	//   - wgpu.PrimitiveTopology: the primitive topology for this pipeline
	Topology() wgpu.PrimitiveTopology

	// FrontFace returns the front face winding order configured for this pipeline.
	//
	// Returns:
	//   - wgpu.FrontFace: the front face winding order for this pipeline
	FrontFace() wgpu.FrontFace

	// WriteMask returns the color write mask configured for this pipeline.
	//
	// Returns:
	//   - wgpu.ColorWriteMask: the color write mask for this pipeline
	WriteMask() wgpu.ColorWriteMask

	// Validate checks that the configuration can be built into a backend pipeline.
	//
	// Returns:
	//   - error: an error describing the first problem found, or nil
	Validate() error
}

var _ Pipeline = &pipeline{}

// NewPipeline is the entry point to create a new Pipeline. Primitive state is fixed: a triangle list
// with counter-clockwise front faces, no culling and all color channels written. Defaults are no
// blending and non-indexed draws.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
		blendPreset: BlendNone,
		drawMode:    DrawModeNonIndexed,
		cullMode:    wgpu.CullModeNone,
		topology:    wgpu.PrimitiveTopologyTriangleList,
		frontFace:   wgpu.FrontFaceCCW,
		writeMask:   wgpu.ColorWriteMaskAll,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) VertexLayout() VertexLayout {
	return p.vertexLayout
}

func (p *pipeline) BlendPreset() BlendPreset {
	return p.blendPreset
}

func (p *pipeline) BlendState() *wgpu.BlendState {
	return p.blendPreset.State()
}

func (p *pipeline) DrawMode() DrawMode {
	return p.drawMode
}

func (p *pipeline) InterStageComponents() uint32 {
	return p.interStageComponents
}

func (p *pipeline) CullMode() wgpu.CullMode {
	return p.cullMode
}

func (p *pipeline) Topology() wgpu.PrimitiveTopology {
	return p.topology
}

func (p *pipeline) FrontFace() wgpu.FrontFace {
	return p.frontFace
}

func (p *pipeline) WriteMask() wgpu.ColorWriteMask {
	return p.writeMask
}

func (p *pipeline) Validate() error {
	if p.pipelineKey == "" {
		return errors.New("pipeline key must not be empty")
	}
	if p.vertexShader == nil || p.fragmentShader == nil {
		return errors.Newf("pipeline %q: both vertex and fragment shaders must be set", p.pipelineKey)
	}
	if p.vertexShader.ShaderType() != shader.ShaderTypeVertex {
		return errors.Newf("pipeline %q: shader %q is not a vertex shader", p.pipelineKey, p.vertexShader.Key())
	}
	if p.fragmentShader.ShaderType() != shader.ShaderTypeFragment {
		return errors.Newf("pipeline %q: shader %q is not a fragment shader", p.pipelineKey, p.fragmentShader.Key())
	}
	if p.drawMode == DrawModeIndexed && p.vertexLayout.Empty() {
		return errors.Newf("pipeline %q: indexed drawing needs a vertex layout", p.pipelineKey)
	}
	if p.vertexLayout.ArrayStride%4 != 0 {
		return errors.Newf("pipeline %q: vertex stride %d is not a multiple of 4", p.pipelineKey, p.vertexLayout.ArrayStride)
	}
	if _, ok := blendPresetNames[p.blendPreset]; !ok {
		return errors.Newf("pipeline %q: unknown blend preset %d", p.pipelineKey, int(p.blendPreset))
	}
	return nil
}
