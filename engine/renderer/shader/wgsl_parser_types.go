package shader

import "github.com/cogentcore/webgpu/wgpu"

// vertexFormatInfo holds the wgpu vertex format and its byte size for offset calculation
type vertexFormatInfo struct {
	format wgpu.VertexFormat
	size   uint64
}

// parsedField represents a single field or parameter extracted from WGSL source during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a WGSL struct block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// VertexInput is one @location input declared by a vertex entry point, either directly as a
// parameter or through an input struct.
type VertexInput struct {
	Name     string
	Location uint32
	Format   wgpu.VertexFormat
	Size     uint64
}
