package renderer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

const (
	defaultDeviceLabel    = "Default device"
	defaultQueueLabel     = "Default queue"
	defaultRequestTimeout = 5 * time.Second
)

// DefaultClearColor is the background every frame is cleared to unless configured otherwise.
var DefaultClearColor = wgpu.Color{R: 0.9, G: 0.1, B: 0.2, A: 1.0}

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	backendType RendererBackendType
	backend     Backend
	logger      *slog.Logger

	rc   *RenderContext
	sink *NotificationSink

	// Pre-creation config collected from builder options
	forceFallbackAdapter bool
	requiredLimits       Limits
	clearColor           wgpu.Color
	requestTimeout       time.Duration
	notifyWorkers        int
	swapChainFormat      wgpu.TextureFormat

	deviceLimits Limits
}

// Renderer defines the interface for the rendering system.
//
// A Renderer negotiates an adapter and a device for one window surface, owns the swap chain, one
// built render pipeline and one mesh, and renders frames with them. The backend is pluggable so
// the same flow runs against WebGPU or a recording test backend.
type Renderer interface {
	// Context returns the render context owned by the renderer.
	//
	// Returns:
	//   - *RenderContext: the context; valid until Release
	Context() *RenderContext

	// RegisterPipeline builds the pipeline against the swap chain format and makes it the pipeline
	// drawn every frame. A previously registered pipeline is released.
	//
	// Parameters:
	//   - p: the pipeline configuration
	//
	// Returns:
	//   - error: an error if the pipeline could not be built
	RegisterPipeline(p pipeline.Pipeline) error

	// InitMesh uploads interleaved vertex floats and optional uint16 indices laid out for the
	// registered pipeline, replacing any previous mesh.
	//
	// Parameters:
	//   - points: the interleaved vertex floats
	//   - indices: the indices, nil for non-indexed geometry
	//
	// Returns:
	//   - error: ErrNotInitialized without a pipeline, ErrStrideMismatch, or a buffer error
	InitMesh(points []float32, indices []uint16) error

	// InitProceduralMesh draws vertexCount vertices generated by the vertex shader, with no buffers.
	//
	// Parameters:
	//   - vertexCount: the number of vertices to draw
	InitProceduralMesh(vertexCount uint32)

	// RenderFrame renders one frame.
	//
	// Returns:
	//   - FrameState: FrameIdle after a completed frame, otherwise the state the frame failed in
	//   - error: ErrViewUnavailable when the surface cannot produce a view, or the frame failure
	RenderFrame() (FrameState, error)

	// Stats returns the frame counters.
	//
	// Returns:
	//   - FrameStats: the counters
	Stats() FrameStats

	// Notifications waits for pending asynchronous notifications and returns their counters.
	//
	// Returns:
	//   - NotificationStats: the counters
	Notifications() NotificationStats

	// Limits returns the limits the device was created with.
	//
	// Returns:
	//   - Limits: the device's required limits
	Limits() Limits

	// Release releases every handle in dependency order. Calling it twice is safe.
	Release()
}

var _ Renderer = &renderer{}

// NewRenderer negotiates an adapter and a device for the window surface described by surfaceDescriptor
// and configures a FIFO swap chain of the given size.
//
// Parameters:
//   - ctx: bounds the adapter and device requests; a request timeout is applied on top of it
//   - surfaceDescriptor: the platform-specific surface descriptor, typically from Window.SurfaceDescriptor()
//   - width: the surface width in pixels
//   - height: the surface height in pixels
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: the initialized renderer
//   - error: ErrInstanceUnavailable, ErrAdapterUnavailable, ErrDeviceUnavailable, ErrLimitsExceeded,
//     ErrRequestTimeout, or a surface error
func NewRenderer(ctx context.Context, surfaceDescriptor *wgpu.SurfaceDescriptor, width, height uint32, options ...RendererBuilderOption) (Renderer, error) {
	r := &renderer{
		mu:             &sync.Mutex{},
		backendType:    BackendTypeWGPU,
		logger:         slog.Default(),
		clearColor:     DefaultClearColor,
		requestTimeout: defaultRequestTimeout,
		notifyWorkers:  2,
	}

	// Apply options first so config flags (e.g. forceFallbackAdapter) are
	// available before the backend requests a GPU adapter.
	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch r.backendType {
		case BackendTypeWGPU:
			fallthrough
		default:
			r.backend = newWGPUBackend()
		}
	}

	r.sink = NewNotificationSink(r.logger, r.notifyWorkers)
	r.rc = &RenderContext{ClearColor: r.clearColor, Sink: r.sink}

	if err := r.init(ctx, surfaceDescriptor, width, height); err != nil {
		r.rc.Release()
		return nil, err
	}
	return r, nil
}

func (r *renderer) init(ctx context.Context, surfaceDescriptor *wgpu.SurfaceDescriptor, width, height uint32) error {
	instance, err := r.backend.CreateInstance()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "create instance"), ErrInstanceUnavailable)
	}
	r.rc.Instance = instance

	surface, err := instance.CreateSurface(surfaceDescriptor)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "create surface"), ErrInstanceUnavailable)
	}
	r.rc.Surface = surface

	reqCtx, cancel := context.WithTimeout(ctx, r.requestTimeout)
	defer cancel()

	adapter, err := RequestAdapter(reqCtx, instance, AdapterOptions{
		CompatibleSurface:    surface,
		ForceFallbackAdapter: r.forceFallbackAdapter,
	})
	if err != nil {
		return err
	}
	r.rc.Adapter = adapter

	supported := adapter.Limits()
	r.logger.Info("adapter acquired",
		"max_vertex_attributes", supported.MaxVertexAttributes,
		"max_vertex_buffers", supported.MaxVertexBuffers,
		"max_buffer_size", supported.MaxBufferSize,
		"max_vertex_buffer_array_stride", supported.MaxVertexBufferArrayStride,
		"max_inter_stage_shader_components", supported.MaxInterStageShaderComponents,
	)

	required := RequiredLimits(supported, r.requiredLimits)
	device, err := RequestDevice(reqCtx, adapter, DeviceDescriptor{
		Label:             defaultDeviceLabel,
		DefaultQueueLabel: defaultQueueLabel,
		RequiredLimits:    required,
	})
	if err != nil {
		return err
	}
	r.rc.Device = device
	r.deviceLimits = required
	InstallErrorSink(device, r.sink)
	r.rc.Queue = device.Queue()

	desc := NewSwapChainDescriptor(width, height)
	desc.Format = r.swapChainFormat
	swapChain, err := CreateSwapChain(device, surface, adapter, desc)
	if err != nil {
		return err
	}
	r.rc.SwapChain = swapChain
	r.logger.Info("swap chain configured", "width", width, "height", height, "format", swapChain.Format())
	return nil
}

func (r *renderer) Context() *RenderContext {
	return r.rc
}

func (r *renderer) RegisterPipeline(p pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rc.Device == nil || r.rc.SwapChain == nil {
		return ErrNotInitialized
	}
	built, err := BuildPipeline(r.rc.Device, p, r.rc.SwapChain.Format(), r.logger)
	if err != nil {
		return err
	}
	r.rc.Pipeline.Release()
	r.rc.Pipeline = built
	r.logger.Info("pipeline built", "pipeline", p.PipelineKey(), "blend", p.BlendPreset().String(), "draw_mode", p.DrawMode().String())
	return nil
}

func (r *renderer) InitMesh(points []float32, indices []uint16) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rc.Pipeline == nil {
		return errors.Wrap(ErrNotInitialized, "register a pipeline before its mesh")
	}
	mesh, err := NewMesh(r.rc.Device, r.rc.Queue, r.rc.Pipeline.Config.VertexLayout(), points, indices)
	if err != nil {
		return err
	}
	r.rc.Mesh.Release()
	r.rc.Mesh = mesh
	r.logger.Info("mesh uploaded", "vertices", mesh.VertexCount, "indices", mesh.IndexCount)
	return nil
}

func (r *renderer) InitProceduralMesh(vertexCount uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rc.Mesh.Release()
	r.rc.Mesh = ProceduralMesh(vertexCount)
}

func (r *renderer) RenderFrame() (FrameState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, err := RenderFrame(r.rc)
	if err != nil {
		r.logger.Error("frame failed", "state", state.String(), "error", err)
	}
	return state, err
}

func (r *renderer) Stats() FrameStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rc.Stats
}

func (r *renderer) Notifications() NotificationStats {
	r.sink.Flush()
	return r.sink.Stats()
}

func (r *renderer) Limits() Limits {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deviceLimits
}

func (r *renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rc.Release()
	r.sink.Close()
}
