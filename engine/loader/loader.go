package loader

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// LoaderBackendType identifies the geometry file format backend to use.
type LoaderBackendType int

const (
	// BackendTypeText selects the sectioned text format: a [points] section of whitespace-separated
	// floats and an optional [indices] section of integers.
	BackendTypeText LoaderBackendType = iota
)

var (
	// ErrGeometryFormat is returned when geometry data cannot be parsed.
	ErrGeometryFormat = errors.New("malformed geometry")

	// ErrGeometryRead is returned when a geometry file cannot be opened or read.
	ErrGeometryRead = errors.New("cannot read geometry")
)

// Geometry is interleaved vertex data plus optional uint16 indices. The vertex layout the
// floats are interleaved with is decided by the pipeline that draws them.
type Geometry struct {
	Points  []float32
	Indices []uint16
}

// Indexed reports whether the geometry carries indices.
func (g *Geometry) Indexed() bool {
	return len(g.Indices) > 0
}

// VertexCount returns the number of whole vertices for the given number of floats per vertex,
// or an error if the points are not a whole number of vertices.
func (g *Geometry) VertexCount(floatsPerVertex int) (int, error) {
	if floatsPerVertex <= 0 {
		return 0, errors.Newf("floats per vertex must be positive, got %d", floatsPerVertex)
	}
	if len(g.Points)%floatsPerVertex != 0 {
		return 0, errors.Wrapf(ErrGeometryFormat, "%d floats is not a multiple of %d", len(g.Points), floatsPerVertex)
	}
	return len(g.Points) / floatsPerVertex, nil
}

// loader is the implementation of the Loader interface.
type loader struct {
	mu sync.RWMutex

	geometryCache map[string]*Geometry

	backend loaderBackend
}

// Loader defines the public-facing interface for loading and caching geometry.
// It abstracts the file format behind a backend and caches loaded geometry by path.
type Loader interface {
	// Load reads a geometry file and caches the result.
	// If the geometry is already cached (by cleaned file path), the cached version is returned.
	//
	// Parameters:
	//   - path: the file path to the geometry file
	//
	// Returns:
	//   - *Geometry: the loaded and cached geometry
	//   - error: ErrGeometryRead if the file cannot be read, ErrGeometryFormat if it cannot be parsed
	Load(path string) (*Geometry, error)

	// LoadReader parses geometry from a reader stream and caches it by the given name.
	//
	// Parameters:
	//   - name: the cache key for the loaded geometry
	//   - r: the reader providing geometry data
	//
	// Returns:
	//   - *Geometry: the loaded geometry
	//   - error: ErrGeometryFormat if the data cannot be parsed
	LoadReader(name string, r io.Reader) (*Geometry, error)

	// Get retrieves cached geometry by name. Returns nil if not found.
	//
	// Parameters:
	//   - name: the cache key to look up
	//
	// Returns:
	//   - *Geometry: the cached geometry or nil
	Get(name string) *Geometry

	// Geometries returns a copy of the geometry cache.
	//
	// Returns:
	//   - map[string]*Geometry: all cached geometry keyed by name
	Geometries() map[string]*Geometry
}

var _ Loader = &loader{}

// NewLoader creates a new Loader instance with the specified backend type and options applied.
//
// Parameters:
//   - backendType: the type of loader backend to use (e.g., BackendTypeText)
//   - options: a variadic list of LoaderBuilderOption functions to configure the Loader
//
// Returns:
//   - Loader: a new instance of Loader configured with the provided backend and options
func NewLoader(backendType LoaderBackendType, options ...LoaderBuilderOption) Loader {
	l := &loader{
		mu:            sync.RWMutex{},
		geometryCache: make(map[string]*Geometry),
	}

	switch backendType {
	case BackendTypeText:
		fallthrough
	default:
		l.backend = newTextLoaderBackend()
	}

	for _, option := range options {
		option(l)
	}
	return l
}

func (l *loader) Load(path string) (*Geometry, error) {
	key := filepath.Clean(path)
	if g := l.Get(key); g != nil {
		return g, nil
	}

	f, err := os.Open(key)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "open geometry %s", key), ErrGeometryRead)
	}
	defer f.Close()

	return l.LoadReader(key, f)
}

func (l *loader) LoadReader(name string, r io.Reader) (*Geometry, error) {
	g, err := l.backend.LoadReader(r)
	if err != nil {
		return nil, errors.Wrapf(err, "load geometry %s", name)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	// a concurrent load of the same name may have won
	if cached, ok := l.geometryCache[name]; ok {
		return cached, nil
	}
	l.geometryCache[name] = g
	return g, nil
}

func (l *loader) Get(name string) *Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.geometryCache[name]
}

func (l *loader) Geometries() map[string]*Geometry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[string]*Geometry, len(l.geometryCache))
	for k, v := range l.geometryCache {
		out[k] = v
	}
	return out
}
