package loader

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithGeometry is an option builder that pre-populates the geometry cache.
//
// Parameters:
//   - key: the cache key for the geometry
//   - geometry: the geometry to cache
//
// Returns:
//   - LoaderBuilderOption: a function that applies the geometry option to a loader
func WithGeometry(key string, geometry *Geometry) LoaderBuilderOption {
	return func(l *loader) {
		l.geometryCache[key] = geometry
	}
}

// WithPresets is an option builder that caches every built-in preset under its name.
//
// Returns:
//   - LoaderBuilderOption: a function that applies the presets option to a loader
func WithPresets() LoaderBuilderOption {
	return func(l *loader) {
		for name, build := range presets {
			l.geometryCache[name] = build()
		}
	}
}
