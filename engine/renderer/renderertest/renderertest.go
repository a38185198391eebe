// Package renderertest provides a recording renderer.Backend that runs the negotiation and frame
// flow without a GPU. Every backend call is appended to a call log, every release is counted per
// handle kind, and misuse such as double releases or draws after End is recorded as a violation.
package renderertest

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer"
	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// Handle kinds used by Released and ReleaseOrder.
const (
	KindInstance       = "instance"
	KindSurface        = "surface"
	KindAdapter        = "adapter"
	KindDevice         = "device"
	KindQueue          = "queue"
	KindShaderModule   = "shader-module"
	KindRenderPipeline = "render-pipeline"
	KindBuffer         = "buffer"
	KindTextureView    = "texture-view"
	KindEncoder        = "command-encoder"
	KindPassEncoder    = "render-pass-encoder"
	KindCommandBuffer  = "command-buffer"
)

// DefaultLimits are the supported limits reported by the fake adapter unless overridden.
var DefaultLimits = renderer.Limits{
	MaxVertexAttributes:             16,
	MaxVertexBuffers:                8,
	MaxBufferSize:                   256 << 20,
	MaxVertexBufferArrayStride:      2048,
	MaxInterStageShaderComponents:   60,
	MaxBindGroups:                   4,
	MinUniformBufferOffsetAlignment: 256,
	MinStorageBufferOffsetAlignment: 256,
}

// DrawCall is one recorded Draw or DrawIndexed.
type DrawCall struct {
	Indexed       bool
	Count         uint32
	InstanceCount uint32
	First         uint32
	BaseVertex    int32
	FirstInstance uint32
}

// BufferBinding is one recorded SetVertexBuffer or SetIndexBuffer.
type BufferBinding struct {
	Slot   uint32
	Label  string
	Format wgpu.IndexFormat
	Offset uint64
	Size   uint64
}

// PassRecord captures everything encoded into one render pass.
type PassRecord struct {
	Label        string
	LoadOp       wgpu.LoadOp
	StoreOp      wgpu.StoreOp
	ClearValue   wgpu.Color
	Pipeline     string
	VertexBuffer *BufferBinding
	IndexBuffer  *BufferBinding
	Draws        []DrawCall
	Ended        bool
}

// Backend is the recording backend. Configure the exported fields before handing it to
// renderer.WithBackend; read results through the accessor methods.
type Backend struct {
	// SupportedLimits is reported by the adapter. The zero value selects DefaultLimits.
	SupportedLimits renderer.Limits
	// PreferredFormat is reported by the surface. TextureFormatUndefined simulates a surface with no preference.
	PreferredFormat wgpu.TextureFormat

	InstanceErr error
	SurfaceErr  error

	AdapterStatus renderer.RequestStatus
	NilAdapter    bool
	// HangAdapter never resolves the adapter request.
	HangAdapter bool
	DeviceStatus renderer.RequestStatus
	// AsyncCallbacks resolves adapter and device requests from another goroutine.
	AsyncCallbacks bool
	// LateResults holds adapter and device requests back until the channel is closed, then
	// resolves them from another goroutine.
	LateResults chan struct{}

	ShaderErr   error
	PipelineErr error
	// FailAcquireAfter makes every acquisition after the first N fail. Zero never fails.
	FailAcquireAfter int
	WorkDoneStatus   renderer.WorkDoneStatus

	mu           sync.Mutex
	nextID       int
	calls        []string
	released     map[string]int
	releaseOrder []string
	violations   []string
	passes       []*PassRecord
	buffers      []*Buffer
	devices      []*Device
	configured   []renderer.SwapChainDescriptor
	acquired     int
	presented    int
	discarded    int
	submitted    int
}

var (
	_ renderer.Backend           = &Backend{}
	_ renderer.Instance          = &Instance{}
	_ renderer.Adapter           = &Adapter{}
	_ renderer.Device            = &Device{}
	_ renderer.Queue             = &Queue{}
	_ renderer.Surface           = &Surface{}
	_ renderer.ShaderModule      = &ShaderModule{}
	_ renderer.RenderPipeline    = &RenderPipeline{}
	_ renderer.Buffer            = &Buffer{}
	_ renderer.TextureView       = &TextureView{}
	_ renderer.CommandEncoder    = &CommandEncoder{}
	_ renderer.RenderPassEncoder = &RenderPassEncoder{}
	_ renderer.CommandBuffer     = &CommandBuffer{}
)

// NewBackend returns a backend with default limits and a BGRA8Unorm preferred surface format.
func NewBackend() *Backend {
	return &Backend{
		SupportedLimits: DefaultLimits,
		PreferredFormat: wgpu.TextureFormatBGRA8Unorm,
	}
}

func (b *Backend) record(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
}

func (b *Backend) violate(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.violations = append(b.violations, fmt.Sprintf(format, args...))
}

func (b *Backend) newHandle(kind, label string) handle {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	return handle{backend: b, kind: kind, label: label, id: b.nextID}
}

func (b *Backend) limits() renderer.Limits {
	if b.SupportedLimits == (renderer.Limits{}) {
		return DefaultLimits
	}
	return b.SupportedLimits
}

// Calls returns the call log in order.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Released returns how many handles of the kind were released.
func (b *Backend) Released(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.released[kind]
}

// ReleaseOrder returns the kinds of released handles in release order.
func (b *Backend) ReleaseOrder() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.releaseOrder...)
}

// Violations returns every recorded misuse: double releases, use after release, use after End.
func (b *Backend) Violations() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.violations...)
}

// Passes returns copies of the recorded render passes.
func (b *Backend) Passes() []PassRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PassRecord, 0, len(b.passes))
	for _, p := range b.passes {
		c := *p
		c.Draws = append([]DrawCall(nil), p.Draws...)
		out = append(out, c)
	}
	return out
}

// Buffers returns every buffer created, in creation order.
func (b *Backend) Buffers() []*Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Buffer(nil), b.buffers...)
}

// LastDevice returns the most recently created device, or nil.
func (b *Backend) LastDevice() *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.devices) == 0 {
		return nil
	}
	return b.devices[len(b.devices)-1]
}

// Configured returns every swap chain descriptor the surface was configured with.
func (b *Backend) Configured() []renderer.SwapChainDescriptor {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]renderer.SwapChainDescriptor(nil), b.configured...)
}

// Frames returns the acquire, present, discard and submit counts.
func (b *Backend) Frames() (acquired, presented, discarded, submitted int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.acquired, b.presented, b.discarded, b.submitted
}

func (b *Backend) CreateInstance() (renderer.Instance, error) {
	b.record("CreateInstance")
	if b.InstanceErr != nil {
		return nil, b.InstanceErr
	}
	return &Instance{handle: b.newHandle(KindInstance, "")}, nil
}

type handle struct {
	backend  *Backend
	kind     string
	label    string
	id       int
	released bool
}

func (h *handle) Release() {
	b := h.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.released {
		b.violations = append(b.violations, fmt.Sprintf("double release of %s#%d %q", h.kind, h.id, h.label))
		return
	}
	h.released = true
	if b.released == nil {
		b.released = make(map[string]int)
	}
	b.released[h.kind]++
	b.releaseOrder = append(b.releaseOrder, h.kind)
}

// live records a violation and reports false when the handle was already released.
func (h *handle) live(op string) bool {
	b := h.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if h.released {
		b.violations = append(b.violations, fmt.Sprintf("%s on released %s#%d %q", op, h.kind, h.id, h.label))
		return false
	}
	return true
}

// Instance is the fake instance.
type Instance struct{ handle }

func (i *Instance) CreateSurface(descriptor *wgpu.SurfaceDescriptor) (renderer.Surface, error) {
	b := i.backend
	i.live("CreateSurface")
	b.record("CreateSurface")
	if b.SurfaceErr != nil {
		return nil, b.SurfaceErr
	}
	return &Surface{handle: b.newHandle(KindSurface, "")}, nil
}

func (i *Instance) RequestAdapter(options renderer.AdapterOptions, callback func(renderer.AdapterResult)) {
	b := i.backend
	i.live("RequestAdapter")
	b.record("RequestAdapter fallback=%t surface=%t", options.ForceFallbackAdapter, options.CompatibleSurface != nil)
	if b.HangAdapter {
		return
	}
	res := renderer.AdapterResult{Status: b.AdapterStatus}
	switch {
	case b.AdapterStatus != renderer.RequestStatusSuccess:
		res.Message = "adapter request rejected"
	case !b.NilAdapter:
		res.Adapter = &Adapter{handle: b.newHandle(KindAdapter, "")}
	}
	b.resolve(func() { callback(res) })
}

func (b *Backend) resolve(fire func()) {
	switch {
	case b.LateResults != nil:
		go func() {
			<-b.LateResults
			fire()
		}()
	case b.AsyncCallbacks:
		go fire()
	default:
		fire()
	}
}

// Adapter is the fake adapter.
type Adapter struct{ handle }

func (a *Adapter) Limits() renderer.Limits {
	return a.backend.limits()
}

func (a *Adapter) RequestDevice(descriptor renderer.DeviceDescriptor, callback func(renderer.DeviceResult)) {
	b := a.backend
	a.live("RequestDevice")
	b.record("RequestDevice %s", descriptor.Label)
	res := renderer.DeviceResult{Status: b.DeviceStatus}
	if b.DeviceStatus != renderer.RequestStatusSuccess {
		res.Message = "device request rejected"
	} else {
		d := &Device{
			handle:     b.newHandle(KindDevice, descriptor.Label),
			Descriptor: descriptor,
		}
		d.queue = &Queue{handle: b.newHandle(KindQueue, descriptor.DefaultQueueLabel), device: d}
		b.mu.Lock()
		b.devices = append(b.devices, d)
		b.mu.Unlock()
		res.Device = d
	}
	b.resolve(func() { callback(res) })
}

// Device is the fake device.
type Device struct {
	handle
	// Descriptor is the descriptor the device was requested with.
	Descriptor renderer.DeviceDescriptor

	queue   *Queue
	mu      sync.Mutex
	onError renderer.UncapturedErrorCallback
}

func (d *Device) Queue() renderer.Queue {
	return d.queue
}

func (d *Device) SetUncapturedErrorCallback(callback renderer.UncapturedErrorCallback) {
	d.backend.record("SetUncapturedErrorCallback")
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = callback
}

// EmitError raises an uncaptured error as the backend would.
func (d *Device) EmitError(label string, errorType renderer.ErrorType, message string) {
	d.mu.Lock()
	cb := d.onError
	d.mu.Unlock()
	if cb != nil {
		cb(label, errorType, message)
	}
}

func (d *Device) CreateShaderModule(label, source string) (renderer.ShaderModule, error) {
	b := d.backend
	d.live("CreateShaderModule")
	b.record("CreateShaderModule %s", label)
	if b.ShaderErr != nil {
		return nil, b.ShaderErr
	}
	return &ShaderModule{handle: b.newHandle(KindShaderModule, label), Source: source}, nil
}

func (d *Device) CreateRenderPipeline(descriptor *renderer.RenderPipelineDescriptor) (renderer.RenderPipeline, error) {
	b := d.backend
	d.live("CreateRenderPipeline")
	b.record("CreateRenderPipeline %s", descriptor.Label)
	if b.PipelineErr != nil {
		return nil, b.PipelineErr
	}
	return &RenderPipeline{handle: b.newHandle(KindRenderPipeline, descriptor.Label), Descriptor: *descriptor}, nil
}

func (d *Device) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (renderer.Buffer, error) {
	b := d.backend
	d.live("CreateBuffer")
	b.record("CreateBuffer %s %d", label, size)
	if size > b.limits().MaxBufferSize {
		return nil, errors.Newf("buffer %q size %d exceeds max_buffer_size", label, size)
	}
	buf := &Buffer{handle: b.newHandle(KindBuffer, label), Usage: usage, data: make([]byte, size)}
	b.mu.Lock()
	b.buffers = append(b.buffers, buf)
	b.mu.Unlock()
	return buf, nil
}

func (d *Device) CreateCommandEncoder(label string) (renderer.CommandEncoder, error) {
	b := d.backend
	d.live("CreateCommandEncoder")
	b.record("CreateCommandEncoder %s", label)
	return &CommandEncoder{handle: b.newHandle(KindEncoder, label), device: d}, nil
}

func (d *Device) report(label, message string) {
	d.backend.violate("%s: %s", label, message)
	d.EmitError(label, renderer.ErrorTypeValidation, message)
}

// Queue is the fake queue. Writes land in the destination buffer immediately.
type Queue struct {
	handle
	device *Device
}

func (q *Queue) Submit(commands ...renderer.CommandBuffer) {
	b := q.backend
	q.live("Submit")
	for _, c := range commands {
		if cb, ok := c.(*CommandBuffer); ok {
			cb.live("Submit")
		}
	}
	b.record("Submit %d", len(commands))
	b.mu.Lock()
	b.submitted++
	b.mu.Unlock()
}

func (q *Queue) WriteBuffer(buffer renderer.Buffer, offset uint64, data []byte) error {
	b := q.backend
	q.live("WriteBuffer")
	buf, ok := buffer.(*Buffer)
	if !ok {
		return errors.New("foreign buffer")
	}
	if !buf.live("WriteBuffer") {
		return errors.Newf("write to released buffer %q", buf.label)
	}
	b.record("WriteBuffer %s %d %d", buf.label, offset, len(data))
	if len(data)%4 != 0 || offset%4 != 0 {
		return errors.Newf("write of %d bytes at %d is not 4-byte aligned", len(data), offset)
	}
	if offset+uint64(len(data)) > uint64(len(buf.data)) {
		return errors.Newf("write of %d bytes at %d exceeds buffer size %d", len(data), offset, len(buf.data))
	}
	copy(buf.data[offset:], data)
	return nil
}

func (q *Queue) OnSubmittedWorkDone(callback func(status renderer.WorkDoneStatus)) {
	q.backend.record("OnSubmittedWorkDone")
	callback(q.backend.WorkDoneStatus)
}

// Surface is the fake surface.
type Surface struct {
	handle
	holding bool
}

func (s *Surface) PreferredFormat(adapter renderer.Adapter) wgpu.TextureFormat {
	return s.backend.PreferredFormat
}

func (s *Surface) Configure(adapter renderer.Adapter, device renderer.Device, descriptor renderer.SwapChainDescriptor) error {
	b := s.backend
	s.live("Configure")
	b.record("Configure %dx%d", descriptor.Width, descriptor.Height)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configured = append(b.configured, descriptor)
	return nil
}

func (s *Surface) AcquireTextureView() (renderer.TextureView, error) {
	b := s.backend
	s.live("AcquireTextureView")
	b.record("AcquireTextureView")
	b.mu.Lock()
	if b.FailAcquireAfter > 0 && b.acquired >= b.FailAcquireAfter {
		b.mu.Unlock()
		return nil, errors.New("surface lost")
	}
	b.acquired++
	b.mu.Unlock()
	if s.holding {
		b.violate("texture acquired while one is held")
	}
	s.holding = true
	return &TextureView{handle: b.newHandle(KindTextureView, "")}, nil
}

func (s *Surface) Present() {
	b := s.backend
	s.live("Present")
	b.record("Present")
	if !s.holding {
		b.violate("present without acquired texture")
	}
	s.holding = false
	b.mu.Lock()
	b.presented++
	b.mu.Unlock()
}

func (s *Surface) DiscardTexture() {
	b := s.backend
	b.record("DiscardTexture")
	s.holding = false
	b.mu.Lock()
	b.discarded++
	b.mu.Unlock()
}

// ShaderModule is the fake shader module.
type ShaderModule struct {
	handle
	Source string
}

// RenderPipeline is the fake render pipeline.
type RenderPipeline struct {
	handle
	Descriptor renderer.RenderPipelineDescriptor
}

// TextureView is the fake texture view.
type TextureView struct{ handle }

// CommandBuffer is the fake command buffer.
type CommandBuffer struct{ handle }

// Buffer is the fake buffer. Its contents can be read back with Bytes.
type Buffer struct {
	handle
	Usage     wgpu.BufferUsage
	data      []byte
	destroyed bool
}

func (b *Buffer) Size() uint64 { return uint64(len(b.data)) }

func (b *Buffer) Destroy() {
	b.backend.record("Destroy %s", b.label)
	b.destroyed = true
}

// Label returns the label the buffer was created with.
func (b *Buffer) Label() string { return b.label }

// Destroyed reports whether Destroy was called.
func (b *Buffer) Destroyed() bool { return b.destroyed }

// Bytes returns a copy of the buffer contents.
func (b *Buffer) Bytes() []byte {
	return append([]byte(nil), b.data...)
}

// CommandEncoder is the fake command encoder.
type CommandEncoder struct {
	handle
	device   *Device
	open     *RenderPassEncoder
	finished bool
}

func (e *CommandEncoder) BeginRenderPass(descriptor *renderer.RenderPassDescriptor) renderer.RenderPassEncoder {
	b := e.backend
	e.live("BeginRenderPass")
	b.record("BeginRenderPass %s", descriptor.Label)
	if e.open != nil && !e.open.rec.Ended {
		b.violate("render pass begun while another is open")
	}
	if v, ok := descriptor.ColorAttachment.View.(*TextureView); ok {
		v.live("BeginRenderPass")
	}
	rec := &PassRecord{
		Label:      descriptor.Label,
		LoadOp:     descriptor.ColorAttachment.LoadOp,
		StoreOp:    descriptor.ColorAttachment.StoreOp,
		ClearValue: descriptor.ColorAttachment.ClearValue,
	}
	b.mu.Lock()
	b.passes = append(b.passes, rec)
	b.mu.Unlock()
	e.open = &RenderPassEncoder{handle: b.newHandle(KindPassEncoder, descriptor.Label), device: e.device, rec: rec}
	return e.open
}

func (e *CommandEncoder) Finish(label string) (renderer.CommandBuffer, error) {
	b := e.backend
	e.live("Finish")
	b.record("Finish %s", label)
	if e.open != nil && !e.open.rec.Ended {
		return nil, errors.New("finish with an open render pass")
	}
	if e.finished {
		return nil, errors.New("encoder already finished")
	}
	e.finished = true
	return &CommandBuffer{handle: b.newHandle(KindCommandBuffer, label)}, nil
}

// RenderPassEncoder is the fake render pass encoder.
type RenderPassEncoder struct {
	handle
	device *Device
	rec    *PassRecord
}

func (p *RenderPassEncoder) usable(op string) bool {
	if !p.live(op) {
		return false
	}
	if p.rec.Ended {
		p.device.report(p.label, op+" after End")
		return false
	}
	return true
}

func (p *RenderPassEncoder) SetPipeline(pipeline renderer.RenderPipeline) {
	if !p.usable("SetPipeline") {
		return
	}
	rp, ok := pipeline.(*RenderPipeline)
	if !ok {
		return
	}
	rp.live("SetPipeline")
	p.backend.record("SetPipeline %s", rp.label)
	p.rec.Pipeline = rp.label
}

func (p *RenderPassEncoder) SetVertexBuffer(slot uint32, buffer renderer.Buffer, offset, size uint64) {
	if !p.usable("SetVertexBuffer") {
		return
	}
	buf, ok := buffer.(*Buffer)
	if !ok {
		return
	}
	buf.live("SetVertexBuffer")
	p.backend.record("SetVertexBuffer %d %d %d", slot, offset, size)
	if offset+size > buf.Size() {
		p.device.report(p.label, fmt.Sprintf("vertex range [%d,%d) exceeds buffer size %d", offset, offset+size, buf.Size()))
		return
	}
	p.rec.VertexBuffer = &BufferBinding{Slot: slot, Label: buf.label, Offset: offset, Size: size}
}

func (p *RenderPassEncoder) SetIndexBuffer(buffer renderer.Buffer, format wgpu.IndexFormat, offset, size uint64) {
	if !p.usable("SetIndexBuffer") {
		return
	}
	buf, ok := buffer.(*Buffer)
	if !ok {
		return
	}
	buf.live("SetIndexBuffer")
	p.backend.record("SetIndexBuffer %d %d", offset, size)
	if offset+size > buf.Size() {
		p.device.report(p.label, fmt.Sprintf("index range [%d,%d) exceeds buffer size %d", offset, offset+size, buf.Size()))
		return
	}
	p.rec.IndexBuffer = &BufferBinding{Label: buf.label, Format: format, Offset: offset, Size: size}
}

func (p *RenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !p.usable("Draw") {
		return
	}
	p.backend.record("Draw %d %d %d %d", vertexCount, instanceCount, firstVertex, firstInstance)
	p.rec.Draws = append(p.rec.Draws, DrawCall{
		Count:         vertexCount,
		InstanceCount: instanceCount,
		First:         firstVertex,
		FirstInstance: firstInstance,
	})
}

func (p *RenderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !p.usable("DrawIndexed") {
		return
	}
	p.backend.record("DrawIndexed %d %d %d %d %d", indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
	p.rec.Draws = append(p.rec.Draws, DrawCall{
		Indexed:       true,
		Count:         indexCount,
		InstanceCount: instanceCount,
		First:         firstIndex,
		BaseVertex:    baseVertex,
		FirstInstance: firstInstance,
	})
}

func (p *RenderPassEncoder) End() {
	if !p.usable("End") {
		return
	}
	p.backend.record("End")
	p.rec.Ended = true
}
