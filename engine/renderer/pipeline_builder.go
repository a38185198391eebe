package renderer

import (
	"log/slog"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// BuiltPipeline is a backend render pipeline together with the shader modules it was compiled from.
type BuiltPipeline struct {
	Config   pipeline.Pipeline
	Pipeline RenderPipeline
	Modules  []ShaderModule
}

// Release releases the pipeline, then its shader modules.
func (b *BuiltPipeline) Release() {
	if b == nil {
		return
	}
	if b.Pipeline != nil {
		b.Pipeline.Release()
		b.Pipeline = nil
	}
	for _, m := range b.Modules {
		m.Release()
	}
	b.Modules = nil
}

// BuildPipeline compiles the shader modules of p and assembles the immutable render pipeline.
// Stages that share the same source share one module. The pipeline layout is empty.
//
// Parameters:
//   - device: the device to build on
//   - p: the pipeline configuration
//   - colorTargetFormat: the format of the color target, usually the swap chain format
//   - logger: receives a warning for every vertex layout mismatch with the vertex shader, may be nil
//
// Returns:
//   - *BuiltPipeline: the built pipeline
//   - error: an error if validation, module or pipeline creation fails
func BuildPipeline(device Device, p pipeline.Pipeline, colorTargetFormat wgpu.TextureFormat, logger *slog.Logger) (*BuiltPipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	vertexShader := p.Shader(shader.ShaderTypeVertex)
	fragmentShader := p.Shader(shader.ShaderTypeFragment)

	for _, m := range p.VertexLayout().Mismatches(vertexShader.VertexInputs()) {
		logger.Warn("vertex layout does not match shader inputs", "pipeline", p.PipelineKey(), "shader", vertexShader.Key(), "detail", m)
	}

	built := &BuiltPipeline{Config: p}
	modules := make(map[string]ShaderModule, 2)
	module := func(s shader.Shader) (ShaderModule, error) {
		if m, ok := modules[s.Source()]; ok {
			return m, nil
		}
		m, err := device.CreateShaderModule(s.Key(), s.Source())
		if err != nil {
			return nil, errors.Wrapf(err, "create shader module %q", s.Key())
		}
		modules[s.Source()] = m
		built.Modules = append(built.Modules, m)
		return m, nil
	}

	vs, err := module(vertexShader)
	if err != nil {
		built.Release()
		return nil, err
	}
	fs, err := module(fragmentShader)
	if err != nil {
		built.Release()
		return nil, err
	}

	rp, err := device.CreateRenderPipeline(&RenderPipelineDescriptor{
		Label:            p.PipelineKey() + " Render Pipeline",
		VertexModule:     vs,
		VertexEntryPoint: vertexShader.EntryPoint(),
		Buffers:          p.VertexLayout().BufferLayouts(),
		Primitive: wgpu.PrimitiveState{
			Topology:         p.Topology(),
			StripIndexFormat: wgpu.IndexFormatUndefined,
			FrontFace:        p.FrontFace(),
			CullMode:         p.CullMode(),
		},
		FragmentModule:     fs,
		FragmentEntryPoint: fragmentShader.EntryPoint(),
		Targets: []wgpu.ColorTargetState{{
			Format:    colorTargetFormat,
			Blend:     p.BlendState(),
			WriteMask: p.WriteMask(),
		}},
		Multisample: wgpu.MultisampleState{
			Count:                  1,
			Mask:                   0xFFFFFFFF,
			AlphaToCoverageEnabled: false,
		},
	})
	if err != nil {
		built.Release()
		return nil, errors.Wrapf(err, "create render pipeline %q", p.PipelineKey())
	}
	built.Pipeline = rp
	return built, nil
}
