package renderer

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeWGPU selects the WebGPU-based rendering backend.
	BackendTypeWGPU RendererBackendType = iota
)

// RequestStatus is the outcome reported by a backend for an asynchronous adapter or device request.
type RequestStatus int

const (
	// RequestStatusSuccess means the request produced a usable handle.
	RequestStatusSuccess RequestStatus = iota

	// RequestStatusUnavailable means no adapter or device matched the request.
	RequestStatusUnavailable

	// RequestStatusError means the backend rejected the request.
	RequestStatusError
)

func (s RequestStatus) String() string {
	switch s {
	case RequestStatusSuccess:
		return "success"
	case RequestStatusUnavailable:
		return "unavailable"
	case RequestStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorType classifies an error raised by the backend outside of any call that returns it.
type ErrorType int

const (
	ErrorTypeValidation ErrorType = iota
	ErrorTypeOutOfMemory
	ErrorTypeInternal
	ErrorTypeUnknown
	ErrorTypeDeviceLost
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeOutOfMemory:
		return "out-of-memory"
	case ErrorTypeInternal:
		return "internal"
	case ErrorTypeDeviceLost:
		return "device-lost"
	default:
		return "unknown"
	}
}

// WorkDoneStatus is the status delivered by a queue work-done notification.
type WorkDoneStatus int

const (
	WorkDoneStatusSuccess WorkDoneStatus = iota
	WorkDoneStatusError
	WorkDoneStatusUnknown
)

func (s WorkDoneStatus) String() string {
	switch s {
	case WorkDoneStatusSuccess:
		return "success"
	case WorkDoneStatusError:
		return "error"
	default:
		return "unknown"
	}
}

// UncapturedErrorCallback receives backend errors that were not returned to any caller.
// Implementations must not block and must not panic.
type UncapturedErrorCallback func(label string, errorType ErrorType, message string)

// AdapterOptions configures an adapter request.
type AdapterOptions struct {
	// CompatibleSurface is the surface the adapter must be able to present to.
	CompatibleSurface Surface

	// ForceFallbackAdapter requests a CPU/software adapter instead of hardware.
	ForceFallbackAdapter bool
}

// AdapterResult is delivered exactly once per adapter request.
type AdapterResult struct {
	Status  RequestStatus
	Adapter Adapter
	Message string
}

// DeviceResult is delivered exactly once per device request.
type DeviceResult struct {
	Status  RequestStatus
	Device  Device
	Message string
}

// DeviceDescriptor describes the logical device requested from an adapter.
type DeviceDescriptor struct {
	// Label names the device in backend diagnostics.
	Label string

	// DefaultQueueLabel names the device's single queue.
	DefaultQueueLabel string

	// RequiredLimits is the limits contract the device must honor. Every max field must be
	// at or below the adapter's supported value and alignment fields must match it exactly.
	RequiredLimits Limits
}

// RenderPassColorAttachment describes the single color target of a render pass.
type RenderPassColorAttachment struct {
	View       TextureView
	LoadOp     wgpu.LoadOp
	StoreOp    wgpu.StoreOp
	ClearValue wgpu.Color
}

// RenderPassDescriptor describes a render pass with one color attachment and no depth.
type RenderPassDescriptor struct {
	Label           string
	ColorAttachment RenderPassColorAttachment
}

// RenderPipelineDescriptor is the backend-facing description of a render pipeline.
// The pipeline layout is always empty: no bind groups are declared.
type RenderPipelineDescriptor struct {
	Label string

	VertexModule     ShaderModule
	VertexEntryPoint string
	Buffers          []wgpu.VertexBufferLayout

	Primitive wgpu.PrimitiveState

	FragmentModule     ShaderModule
	FragmentEntryPoint string
	Targets            []wgpu.ColorTargetState

	Multisample wgpu.MultisampleState
}

// Backend creates instances for a specific GPU API.
type Backend interface {
	// CreateInstance creates the process-wide entry point of the backend.
	//
	// Returns:
	//   - Instance: the created instance
	//   - error: ErrInstanceUnavailable if the backend could not be initialized
	CreateInstance() (Instance, error)
}

// Instance is the entry point of the graphics backend. It creates surfaces and adapters.
type Instance interface {
	// CreateSurface binds a native window, described by the platform surface descriptor, to a drawable surface.
	//
	// Parameters:
	//   - descriptor: the platform-specific surface descriptor obtained from the window
	//
	// Returns:
	//   - Surface: the created surface
	//   - error: an error if the surface could not be created
	CreateSurface(descriptor *wgpu.SurfaceDescriptor) (Surface, error)

	// RequestAdapter issues one asynchronous adapter request. The callback fires exactly once,
	// either inside this call or later, depending on the backend.
	//
	// Parameters:
	//   - options: the adapter request options
	//   - callback: receives the request outcome
	RequestAdapter(options AdapterOptions, callback func(AdapterResult))

	Release()
}

// Adapter represents one physical GPU and backend combination.
type Adapter interface {
	// Limits returns the limits supported by this adapter.
	Limits() Limits

	// RequestDevice issues one asynchronous device request. The callback fires exactly once.
	//
	// Parameters:
	//   - descriptor: the device descriptor including the required limits contract
	//   - callback: receives the request outcome
	RequestDevice(descriptor DeviceDescriptor, callback func(DeviceResult))

	Release()
}

// Device is a logical GPU handle used to allocate resources and submit work.
type Device interface {
	// Queue returns the device's single default queue.
	Queue() Queue

	// SetUncapturedErrorCallback installs the sink for errors not returned to any caller.
	SetUncapturedErrorCallback(callback UncapturedErrorCallback)

	CreateShaderModule(label, source string) (ShaderModule, error)
	CreateRenderPipeline(descriptor *RenderPipelineDescriptor) (RenderPipeline, error)
	CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error)
	CreateCommandEncoder(label string) (CommandEncoder, error)

	Release()
}

// Queue is the ordered submission channel for command buffers on a device.
type Queue interface {
	// Submit submits command buffers in the given order as one batch.
	Submit(commands ...CommandBuffer)

	// WriteBuffer schedules a write of data into buffer at offset.
	//
	// Parameters:
	//   - buffer: the destination buffer
	//   - offset: the byte offset into the destination buffer
	//   - data: the bytes to write; the length must be a multiple of 4
	//
	// Returns:
	//   - error: an error if the write does not fit the buffer
	WriteBuffer(buffer Buffer, offset uint64, data []byte) error

	// OnSubmittedWorkDone registers a one-shot notification for the work submitted so far.
	OnSubmittedWorkDone(callback func(status WorkDoneStatus))

	Release()
}

// Surface is a drawable surface bound to one native window.
type Surface interface {
	// PreferredFormat returns the surface's preferred texture format for the given adapter,
	// or wgpu.TextureFormatUndefined if the surface reports none.
	PreferredFormat(adapter Adapter) wgpu.TextureFormat

	// Configure sizes and formats the surface's buffer chain for the given device.
	Configure(adapter Adapter, device Device, descriptor SwapChainDescriptor) error

	// AcquireTextureView acquires the next presentable texture and returns a view of it.
	AcquireTextureView() (TextureView, error)

	// Present hands the acquired texture to the display compositor.
	Present()

	// DiscardTexture drops the acquired texture without presenting it.
	DiscardTexture()

	Release()
}

// ShaderModule is a compiled, immutable shader module.
type ShaderModule interface {
	Release()
}

// RenderPipeline is an immutable compiled render pipeline.
type RenderPipeline interface {
	Release()
}

// Buffer is GPU-resident memory sized at creation.
type Buffer interface {
	Size() uint64
	Destroy()
	Release()
}

// TextureView is a view of a texture usable as a render attachment.
type TextureView interface {
	Release()
}

// CommandEncoder records GPU commands for a single frame.
type CommandEncoder interface {
	BeginRenderPass(descriptor *RenderPassDescriptor) RenderPassEncoder
	Finish(label string) (CommandBuffer, error)
	Release()
}

// RenderPassEncoder records draw state and draw calls between begin and end of a render pass.
type RenderPassEncoder interface {
	SetPipeline(p RenderPipeline)
	SetVertexBuffer(slot uint32, buffer Buffer, offset, size uint64)
	SetIndexBuffer(buffer Buffer, format wgpu.IndexFormat, offset, size uint64)
	Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32)
	DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32)
	End()
	Release()
}

// CommandBuffer is a finished, submittable sequence of GPU commands.
type CommandBuffer interface {
	Release()
}
