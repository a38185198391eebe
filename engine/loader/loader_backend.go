package loader

import (
	"io"
)

// loaderBackend defines the generic interface for parsing geometry from a stream.
// Concrete implementations (e.g., textLoaderBackend) handle format-specific details.
type loaderBackend interface {
	// LoadReader parses geometry from the reader.
	//
	// Parameters:
	//   - r: the reader providing geometry data
	//
	// Returns:
	//   - *Geometry: the parsed geometry
	//   - error: ErrGeometryFormat if parsing fails
	LoadReader(r io.Reader) (*Geometry, error)
}
