package pipeline

import "github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"

// PipelineBuilderOption is a functional option used to configure a Pipeline during construction.
type PipelineBuilderOption func(*pipeline)

// WithVertexShader sets the vertex shader for this pipeline.
//
// Parameters:
//   - s: the vertex shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex shader for this pipeline
func WithVertexShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexShader = s
	}
}

// WithFragmentShader sets the fragment shader for this pipeline.
//
// Parameters:
//   - s: the fragment shader to use for this pipeline
//
// Returns:
//   - PipelineBuilderOption: a function that sets the fragment shader for this pipeline
func WithFragmentShader(s shader.Shader) PipelineBuilderOption {
	return func(p *pipeline) {
		p.fragmentShader = s
	}
}

// WithVertexLayout sets the interleaved vertex buffer layout. It must match the vertex shader's inputs.
//
// Parameters:
//   - layout: the vertex layout, e.g. LayoutPosition2D or LayoutPosition2DColor3
//
// Returns:
//   - PipelineBuilderOption: a function that sets the vertex layout for this pipeline
func WithVertexLayout(layout VertexLayout) PipelineBuilderOption {
	return func(p *pipeline) {
		p.vertexLayout = layout
	}
}

// WithBlendPreset sets the named blend configuration of the color target.
//
// Parameters:
//   - preset: the blend preset
//
// Returns:
//   - PipelineBuilderOption: a function that sets the blend preset for this pipeline
func WithBlendPreset(preset BlendPreset) PipelineBuilderOption {
	return func(p *pipeline) {
		p.blendPreset = preset
	}
}

// WithDrawMode selects indexed or non-indexed drawing.
//
// Parameters:
//   - mode: the draw mode
//
// Returns:
//   - PipelineBuilderOption: a function that sets the draw mode for this pipeline
func WithDrawMode(mode DrawMode) PipelineBuilderOption {
	return func(p *pipeline) {
		p.drawMode = mode
	}
}

// WithInterStageComponents sets the number of scalar components the vertex stage passes to the fragment stage.
//
// Parameters:
//   - n: the component count
//
// Returns:
//   - PipelineBuilderOption: a function that sets the inter-stage component count
func WithInterStageComponents(n uint32) PipelineBuilderOption {
	return func(p *pipeline) {
		p.interStageComponents = n
	}
}
