package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/shader"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// vertexFormatSizes holds the byte size of every vertex format a layout may use.
var vertexFormatSizes = map[wgpu.VertexFormat]uint64{
	wgpu.VertexFormatFloat32:   4,
	wgpu.VertexFormatFloat32x2: 8,
	wgpu.VertexFormatFloat32x3: 12,
	wgpu.VertexFormatFloat32x4: 16,
	wgpu.VertexFormatUint32:    4,
	wgpu.VertexFormatUint32x2:  8,
	wgpu.VertexFormatUint32x3:  12,
	wgpu.VertexFormatUint32x4:  16,
	wgpu.VertexFormatSint32:    4,
	wgpu.VertexFormatSint32x2:  8,
	wgpu.VertexFormatSint32x3:  12,
	wgpu.VertexFormatSint32x4:  16,
}

// VertexLayout describes one interleaved vertex buffer: an ordered attribute list and a fixed stride.
// The zero value is the empty layout used by shaders that generate their vertices from the vertex index.
type VertexLayout struct {
	ArrayStride uint64
	Attributes  []wgpu.VertexAttribute
}

var (
	// LayoutPosition2D is a single vec2 position at location 0.
	LayoutPosition2D = MustVertexLayout(wgpu.VertexFormatFloat32x2)

	// LayoutPosition2DColor3 is a vec2 position at location 0 followed by a vec3 color at location 1.
	LayoutPosition2DColor3 = MustVertexLayout(wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3)
)

// NewVertexLayout packs the given formats tightly into one interleaved buffer.
// Attribute i is bound to shader location i and starts where attribute i-1 ends.
//
// Parameters:
//   - formats: the attribute formats in location order
//
// Returns:
//   - VertexLayout: the packed layout
//   - error: an error if a format is not supported
func NewVertexLayout(formats ...wgpu.VertexFormat) (VertexLayout, error) {
	layout := VertexLayout{Attributes: make([]wgpu.VertexAttribute, 0, len(formats))}
	for i, f := range formats {
		size, ok := vertexFormatSizes[f]
		if !ok {
			return VertexLayout{}, errors.Newf("unsupported vertex format %v at location %d", f, i)
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         f,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(i),
		})
		layout.ArrayStride += size
	}
	return layout, nil
}

// MustVertexLayout is like NewVertexLayout but panics on an unsupported format.
func MustVertexLayout(formats ...wgpu.VertexFormat) VertexLayout {
	l, err := NewVertexLayout(formats...)
	if err != nil {
		panic(err)
	}
	return l
}

// Empty reports whether the layout declares no vertex buffer at all.
func (l VertexLayout) Empty() bool {
	return len(l.Attributes) == 0
}

// FloatsPerVertex is the number of 4-byte components in one vertex.
func (l VertexLayout) FloatsPerVertex() int {
	return int(l.ArrayStride / 4)
}

// BufferLayouts returns the backend vertex buffer layouts: none for the empty layout, otherwise exactly one.
func (l VertexLayout) BufferLayouts() []wgpu.VertexBufferLayout {
	if l.Empty() {
		return nil
	}
	return []wgpu.VertexBufferLayout{{
		ArrayStride: l.ArrayStride,
		StepMode:    wgpu.VertexStepModeVertex,
		Attributes:  l.Attributes,
	}}
}

// Mismatches compares the layout against the inputs a vertex shader declares and describes every disagreement.
// A mismatch is not an error: the data silently corrupts, so callers usually log these.
//
// Parameters:
//   - inputs: the vertex shader's declared inputs
//
// Returns:
//   - []string: one description per disagreement, empty when the layout matches
func (l VertexLayout) Mismatches(inputs []shader.VertexInput) []string {
	var out []string
	byLocation := make(map[uint32]wgpu.VertexAttribute, len(l.Attributes))
	for _, a := range l.Attributes {
		byLocation[a.ShaderLocation] = a
	}
	declared := make(map[uint32]bool, len(inputs))
	for _, in := range inputs {
		declared[in.Location] = true
		a, ok := byLocation[in.Location]
		if !ok {
			out = append(out, fmt.Sprintf("location %d (%s) has no attribute", in.Location, in.Name))
			continue
		}
		if a.Format != in.Format {
			out = append(out, fmt.Sprintf("location %d (%s) format %v, layout has %v", in.Location, in.Name, in.Format, a.Format))
		}
	}
	for _, a := range l.Attributes {
		if !declared[a.ShaderLocation] {
			out = append(out, fmt.Sprintf("attribute at location %d is not read by the shader", a.ShaderLocation))
		}
	}
	return out
}
