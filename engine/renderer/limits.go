package renderer

import (
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
)

// Limits is the subset of device capability ceilings the renderer negotiates.
// Max fields are upper bounds; alignment fields are minimums that must be copied from the adapter.
type Limits struct {
	MaxVertexAttributes           uint32
	MaxVertexBuffers              uint32
	MaxBufferSize                 uint64
	MaxVertexBufferArrayStride    uint32
	MaxInterStageShaderComponents uint32
	MaxBindGroups                 uint32

	MinUniformBufferOffsetAlignment uint32
	MinStorageBufferOffsetAlignment uint32
}

// Check verifies that l can be requested from an adapter supporting the given limits.
//
// Parameters:
//   - supported: the limits reported by the adapter
//
// Returns:
//   - error: ErrLimitsExceeded naming the first offending field, or nil
func (l Limits) Check(supported Limits) error {
	maxFields := []struct {
		name      string
		required  uint64
		supported uint64
	}{
		{"max_vertex_attributes", uint64(l.MaxVertexAttributes), uint64(supported.MaxVertexAttributes)},
		{"max_vertex_buffers", uint64(l.MaxVertexBuffers), uint64(supported.MaxVertexBuffers)},
		{"max_buffer_size", l.MaxBufferSize, supported.MaxBufferSize},
		{"max_vertex_buffer_array_stride", uint64(l.MaxVertexBufferArrayStride), uint64(supported.MaxVertexBufferArrayStride)},
		{"max_inter_stage_shader_components", uint64(l.MaxInterStageShaderComponents), uint64(supported.MaxInterStageShaderComponents)},
		{"max_bind_groups", uint64(l.MaxBindGroups), uint64(supported.MaxBindGroups)},
	}
	for _, f := range maxFields {
		if f.required > f.supported {
			return errors.Wrapf(ErrLimitsExceeded, "%s: required %d, supported %d", f.name, f.required, f.supported)
		}
	}

	if l.MinUniformBufferOffsetAlignment != supported.MinUniformBufferOffsetAlignment {
		return errors.Wrapf(ErrLimitsExceeded, "min_uniform_buffer_offset_alignment: required %d, supported %d",
			l.MinUniformBufferOffsetAlignment, supported.MinUniformBufferOffsetAlignment)
	}
	if l.MinStorageBufferOffsetAlignment != supported.MinStorageBufferOffsetAlignment {
		return errors.Wrapf(ErrLimitsExceeded, "min_storage_buffer_offset_alignment: required %d, supported %d",
			l.MinStorageBufferOffsetAlignment, supported.MinStorageBufferOffsetAlignment)
	}
	return nil
}

// RequiredLimits builds a required-limits contract from the adapter's supported limits.
// Every non-zero max field in the overrides replaces the supported value; zero fields inherit it.
// Alignment fields are always copied verbatim from supported.
//
// Parameters:
//   - supported: the limits reported by the adapter
//   - overrides: the caller's requested limits, applied in order
//
// Returns:
//   - Limits: the merged limits
func RequiredLimits(supported Limits, overrides ...Limits) Limits {
	out := supported
	for _, o := range overrides {
		if o.MaxVertexAttributes != 0 {
			out.MaxVertexAttributes = o.MaxVertexAttributes
		}
		if o.MaxVertexBuffers != 0 {
			out.MaxVertexBuffers = o.MaxVertexBuffers
		}
		if o.MaxBufferSize != 0 {
			out.MaxBufferSize = o.MaxBufferSize
		}
		if o.MaxVertexBufferArrayStride != 0 {
			out.MaxVertexBufferArrayStride = o.MaxVertexBufferArrayStride
		}
		if o.MaxInterStageShaderComponents != 0 {
			out.MaxInterStageShaderComponents = o.MaxInterStageShaderComponents
		}
		if o.MaxBindGroups != 0 {
			out.MaxBindGroups = o.MaxBindGroups
		}
	}
	out.MinUniformBufferOffsetAlignment = supported.MinUniformBufferOffsetAlignment
	out.MinStorageBufferOffsetAlignment = supported.MinStorageBufferOffsetAlignment
	return out
}

// LimitsForPipeline derives the smallest limits that can run the given pipeline with buffers of the given sizes.
// The result is meant to be passed to RequiredLimits as an override.
//
// Parameters:
//   - p: the pipeline configuration
//   - vertexBytes: the size of the vertex buffer in bytes
//   - indexBytes: the size of the index buffer in bytes, zero when not indexed
//
// Returns:
//   - Limits: the minimum limits the pipeline needs
func LimitsForPipeline(p pipeline.Pipeline, vertexBytes, indexBytes uint64) Limits {
	layout := p.VertexLayout()
	l := Limits{
		MaxVertexAttributes:           uint32(max(len(layout.Attributes), 1)),
		MaxVertexBuffers:              1,
		MaxBufferSize:                 max(vertexBytes, indexBytes, 4),
		MaxVertexBufferArrayStride:    uint32(max(layout.ArrayStride, 4)),
		MaxInterStageShaderComponents: p.InterStageComponents(),
		MaxBindGroups:                 1,
	}
	return l
}
