package renderer

import (
	"github.com/Carmen-Shannon/oxy-learn/common"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Mesh is the GPU-resident geometry drawn every frame. Buffers live for the whole run.
type Mesh struct {
	VertexBuffer Buffer
	IndexBuffer  Buffer

	VertexCount uint32
	IndexCount  uint32
	Stride      uint64
	IndexFormat wgpu.IndexFormat
}

// NewMesh creates and fills a vertex buffer and, when indices are given, a uint16 index buffer.
// The vertex data must be a whole number of vertices of the layout's stride. Index values are
// not checked against the vertex count.
//
// Parameters:
//   - device: the device to allocate the buffers on
//   - queue: the queue used to write the buffer contents
//   - layout: the vertex layout the data is interleaved with
//   - points: the interleaved vertex floats
//   - indices: the uint16 indices, nil for non-indexed geometry
//
// Returns:
//   - *Mesh: the uploaded mesh
//   - error: ErrStrideMismatch if the data does not match the layout, or a buffer error
func NewMesh(device Device, queue Queue, layout pipeline.VertexLayout, points []float32, indices []uint16) (*Mesh, error) {
	if layout.Empty() {
		return nil, errors.Wrap(ErrStrideMismatch, "vertex data needs a non-empty layout")
	}
	byteSize := uint64(len(points)) * 4
	if byteSize == 0 || byteSize%layout.ArrayStride != 0 {
		return nil, errors.Wrapf(ErrStrideMismatch, "%d bytes of vertex data with stride %d", byteSize, layout.ArrayStride)
	}

	m := &Mesh{
		VertexCount: uint32(byteSize / layout.ArrayStride),
		Stride:      layout.ArrayStride,
		IndexFormat: wgpu.IndexFormatUndefined,
	}

	vb, err := device.CreateBuffer("Vertex Buffer", byteSize, wgpu.BufferUsageCopyDst|wgpu.BufferUsageVertex)
	if err != nil {
		return nil, errors.Wrap(err, "create vertex buffer")
	}
	m.VertexBuffer = vb
	if err := queue.WriteBuffer(vb, 0, common.Float32sToBytes(points)); err != nil {
		m.Release()
		return nil, errors.Wrap(err, "write vertex buffer")
	}

	if len(indices) == 0 {
		return m, nil
	}

	data := common.Uint16sToBytes(indices)
	ib, err := device.CreateBuffer("Index Buffer", uint64(len(data)), wgpu.BufferUsageCopyDst|wgpu.BufferUsageIndex)
	if err != nil {
		m.Release()
		return nil, errors.Wrap(err, "create index buffer")
	}
	m.IndexBuffer = ib
	m.IndexCount = uint32(len(indices))
	m.IndexFormat = wgpu.IndexFormatUint16
	if err := queue.WriteBuffer(ib, 0, data); err != nil {
		m.Release()
		return nil, errors.Wrap(err, "write index buffer")
	}
	return m, nil
}

// ProceduralMesh describes geometry generated by the vertex shader from the vertex index. No buffers are bound.
func ProceduralMesh(vertexCount uint32) *Mesh {
	return &Mesh{VertexCount: vertexCount, IndexFormat: wgpu.IndexFormatUndefined}
}

// Indexed reports whether the mesh carries an index buffer.
func (m *Mesh) Indexed() bool {
	return m.IndexBuffer != nil && m.IndexCount > 0
}

// VertexByteRange is the bound size of the vertex buffer: vertexCount × stride.
func (m *Mesh) VertexByteRange() uint64 {
	return uint64(m.VertexCount) * m.Stride
}

// IndexByteRange is the bound size of the index buffer: indexCount × 2.
func (m *Mesh) IndexByteRange() uint64 {
	return uint64(m.IndexCount) * 2
}

// Release destroys and releases the buffers.
func (m *Mesh) Release() {
	if m == nil {
		return
	}
	if m.VertexBuffer != nil {
		m.VertexBuffer.Destroy()
		m.VertexBuffer.Release()
		m.VertexBuffer = nil
	}
	if m.IndexBuffer != nil {
		m.IndexBuffer.Destroy()
		m.IndexBuffer.Release()
		m.IndexBuffer = nil
	}
}
