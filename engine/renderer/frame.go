package renderer

import (
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/pipeline"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// FrameState is a step of the per-frame state machine.
type FrameState int

const (
	FrameIdle FrameState = iota
	FrameViewAcquired
	FramePassOpen
	FramePassClosed
	FrameSubmitted
	FramePresented
)

func (s FrameState) String() string {
	switch s {
	case FrameIdle:
		return "idle"
	case FrameViewAcquired:
		return "view-acquired"
	case FramePassOpen:
		return "pass-open"
	case FramePassClosed:
		return "pass-closed"
	case FrameSubmitted:
		return "submitted"
	case FramePresented:
		return "presented"
	default:
		return "unknown"
	}
}

const (
	renderPassEncoderLabel = "Render pass encoder"
	commandBufferLabel     = "Render pass command buffer"
)

// FrameStats counts frames and the frame-scoped handles released by RenderFrame.
type FrameStats struct {
	Frames                 uint64
	ViewsReleased          uint64
	EncodersReleased       uint64
	PassEncodersReleased   uint64
	CommandBuffersReleased uint64
	DrawCalls              uint64
}

// RenderContext owns every handle the frame loop needs. It is created by the runner and passed
// explicitly to each per-frame call.
type RenderContext struct {
	Instance  Instance
	Surface   Surface
	Adapter   Adapter
	Device    Device
	Queue     Queue
	SwapChain *SwapChain

	Pipeline *BuiltPipeline
	Mesh     *Mesh

	ClearColor wgpu.Color

	// Sink receives the queue work-done notification of every submitted frame; nil disables it.
	Sink  *NotificationSink
	Stats FrameStats
}

// RenderFrame encodes, submits and presents one frame:
// acquire view, begin one clearing pass, bind pipeline and buffers, draw once, end the pass,
// finish, submit, present. Frame-scoped handles are released on every exit path.
//
// Parameters:
//   - rc: the render context
//
// Returns:
//   - FrameState: FrameIdle after a completed frame, otherwise the state the frame failed in
//   - error: ErrViewUnavailable when no view could be acquired, or the failure that ended the frame
func RenderFrame(rc *RenderContext) (FrameState, error) {
	if rc.SwapChain == nil || rc.Pipeline == nil || rc.Pipeline.Pipeline == nil || rc.Mesh == nil {
		return FrameIdle, ErrNotInitialized
	}
	cfg := rc.Pipeline.Config
	indexed := cfg.DrawMode() == pipeline.DrawModeIndexed
	if indexed && !rc.Mesh.Indexed() {
		return FrameIdle, errors.Wrapf(ErrNotInitialized, "pipeline %q draws indexed but the mesh has no index buffer", cfg.PipelineKey())
	}

	view, err := rc.SwapChain.AcquireCurrentView()
	if err != nil {
		return FrameIdle, err
	}
	state := FrameViewAcquired
	defer func() {
		view.Release()
		rc.Stats.ViewsReleased++
	}()
	// no-op once presented
	defer rc.SwapChain.Abandon()

	encoder, err := rc.Device.CreateCommandEncoder(renderPassEncoderLabel)
	if err != nil {
		return state, errors.Wrap(err, "create command encoder")
	}
	defer func() {
		encoder.Release()
		rc.Stats.EncodersReleased++
	}()

	pass := encoder.BeginRenderPass(&RenderPassDescriptor{
		Label: cfg.PipelineKey(),
		ColorAttachment: RenderPassColorAttachment{
			View:       view,
			LoadOp:     wgpu.LoadOpClear,
			StoreOp:    wgpu.StoreOpStore,
			ClearValue: rc.ClearColor,
		},
	})
	state = FramePassOpen
	defer func() {
		pass.Release()
		rc.Stats.PassEncodersReleased++
	}()

	pass.SetPipeline(rc.Pipeline.Pipeline)
	if rc.Mesh.VertexBuffer != nil {
		pass.SetVertexBuffer(0, rc.Mesh.VertexBuffer, 0, rc.Mesh.VertexByteRange())
	}
	if indexed {
		pass.SetIndexBuffer(rc.Mesh.IndexBuffer, rc.Mesh.IndexFormat, 0, rc.Mesh.IndexByteRange())
		pass.DrawIndexed(rc.Mesh.IndexCount, 1, 0, 0, 0)
	} else {
		pass.Draw(rc.Mesh.VertexCount, 1, 0, 0)
	}
	rc.Stats.DrawCalls++
	pass.End()
	state = FramePassClosed

	command, err := encoder.Finish(commandBufferLabel)
	if err != nil {
		return state, errors.Wrap(err, "finish command encoder")
	}
	defer func() {
		command.Release()
		rc.Stats.CommandBuffersReleased++
	}()

	rc.Queue.Submit(command)
	state = FrameSubmitted
	if rc.Sink != nil {
		rc.Queue.OnSubmittedWorkDone(rc.Sink.WorkDone)
	}

	if err := rc.SwapChain.Present(); err != nil {
		return state, err
	}
	rc.Stats.Frames++

	return FrameIdle, nil
}

// Release tears the context down in dependency order: mesh buffers, pipeline and shader modules,
// swap chain, queue, device, surface, adapter, instance. Released handles are cleared so a
// second call is a no-op.
func (rc *RenderContext) Release() {
	if rc.Mesh != nil {
		rc.Mesh.Release()
		rc.Mesh = nil
	}
	if rc.Pipeline != nil {
		rc.Pipeline.Release()
		rc.Pipeline = nil
	}
	if rc.SwapChain != nil {
		rc.SwapChain.Release()
		rc.SwapChain = nil
	}
	if rc.Queue != nil {
		rc.Queue.Release()
		rc.Queue = nil
	}
	if rc.Device != nil {
		rc.Device.Release()
		rc.Device = nil
	}
	if rc.Surface != nil {
		rc.Surface.Release()
		rc.Surface = nil
	}
	if rc.Adapter != nil {
		rc.Adapter.Release()
		rc.Adapter = nil
	}
	if rc.Instance != nil {
		rc.Instance.Release()
		rc.Instance = nil
	}
}
