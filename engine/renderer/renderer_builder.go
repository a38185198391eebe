package renderer

import (
	"log/slog"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithBackendType selects the built-in backend implementation.
//
// Parameters:
//   - backendType: the backend to use (BackendTypeWGPU)
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend type option to a renderer
func WithBackendType(backendType RendererBackendType) RendererBuilderOption {
	return func(r *renderer) {
		r.backendType = backendType
	}
}

// WithBackend supplies a custom Backend, overriding the backend type. Used to run the renderer
// against a recording backend in tests.
//
// Parameters:
//   - backend: the backend to create the instance from
//
// Returns:
//   - RendererBuilderOption: a function that applies the backend option to a renderer
func WithBackend(backend Backend) RendererBuilderOption {
	return func(r *renderer) {
		r.backend = backend
	}
}

// WithRequiredLimits constrains the device limits. Zero fields inherit the adapter's supported
// value; alignment fields always do.
//
// Parameters:
//   - limits: the limits to request
//
// Returns:
//   - RendererBuilderOption: a function that applies the required limits option to a renderer
func WithRequiredLimits(limits Limits) RendererBuilderOption {
	return func(r *renderer) {
		r.requiredLimits = limits
	}
}

// WithClearColor sets the color every frame's render pass clears to.
//
// Parameters:
//   - color: the clear color
//
// Returns:
//   - RendererBuilderOption: a function that applies the clear color option to a renderer
func WithClearColor(color wgpu.Color) RendererBuilderOption {
	return func(r *renderer) {
		r.clearColor = color
	}
}

// WithLogger sets the structured logger for renderer and notification output.
//
// Parameters:
//   - logger: the logger to use
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *slog.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithForceFallbackAdapter forces WGPU to use a CPU/software fallback adapter instead of
// hardware GPU acceleration. This requires a software Vulkan ICD to be installed on the system
// (e.g. SwiftShader or lavapipe).
//
// Parameters:
//   - force: true to force the software fallback adapter, false to use hardware (default)
//
// Returns:
//   - RendererBuilderOption: a function that applies the force fallback option to a renderer
func WithForceFallbackAdapter(force bool) RendererBuilderOption {
	return func(r *renderer) {
		r.forceFallbackAdapter = force
	}
}

// WithRequestTimeout bounds how long adapter and device requests may take to resolve.
//
// Parameters:
//   - timeout: the timeout applied to both requests together; non-positive values keep the default
//
// Returns:
//   - RendererBuilderOption: a function that applies the timeout option to a renderer
func WithRequestTimeout(timeout time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		if timeout > 0 {
			r.requestTimeout = timeout
		}
	}
}

// WithNotificationWorkers sets the worker count of the asynchronous notification pool.
//
// Parameters:
//   - workers: the maximum number of workers
//
// Returns:
//   - RendererBuilderOption: a function that applies the worker count option to a renderer
func WithNotificationWorkers(workers int) RendererBuilderOption {
	return func(r *renderer) {
		r.notifyWorkers = workers
	}
}

// WithSwapChainFormat overrides the swap chain format instead of using the surface's preferred one.
//
// Parameters:
//   - format: the texture format
//
// Returns:
//   - RendererBuilderOption: a function that applies the format option to a renderer
func WithSwapChainFormat(format wgpu.TextureFormat) RendererBuilderOption {
	return func(r *renderer) {
		r.swapChainFormat = format
	}
}
