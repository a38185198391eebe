package renderer

import (
	"runtime"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuBackend is the WebGPU implementation of Backend. Every WebGPU call happens on the thread
// that created the instance, which is locked to its OS thread.
type wgpuBackend struct{}

type wgpuInstance struct {
	instance *wgpu.Instance
}

type wgpuAdapter struct {
	adapter *wgpu.Adapter
}

type wgpuDevice struct {
	mu      *sync.Mutex
	label   string
	device  *wgpu.Device
	queue   *wgpuQueue
	onError UncapturedErrorCallback
}

type wgpuQueue struct {
	queue  *wgpu.Queue
	device *wgpu.Device
}

type wgpuSurface struct {
	surface *wgpu.Surface
	texture *wgpu.Texture
}

type wgpuShaderModule struct{ module *wgpu.ShaderModule }
type wgpuRenderPipeline struct{ pipeline *wgpu.RenderPipeline }
type wgpuTextureView struct{ view *wgpu.TextureView }
type wgpuCommandBuffer struct{ buffer *wgpu.CommandBuffer }

type wgpuBuffer struct {
	buffer *wgpu.Buffer
	size   uint64
}

type wgpuCommandEncoder struct {
	encoder *wgpu.CommandEncoder
	device  *wgpuDevice
}

type wgpuRenderPassEncoder struct {
	pass   *wgpu.RenderPassEncoder
	device *wgpuDevice
	label  string
	ended  bool
}

var (
	_ Backend           = &wgpuBackend{}
	_ Instance          = &wgpuInstance{}
	_ Adapter           = &wgpuAdapter{}
	_ Device            = &wgpuDevice{}
	_ Queue             = &wgpuQueue{}
	_ Surface           = &wgpuSurface{}
	_ ShaderModule      = &wgpuShaderModule{}
	_ RenderPipeline    = &wgpuRenderPipeline{}
	_ Buffer            = &wgpuBuffer{}
	_ TextureView       = &wgpuTextureView{}
	_ CommandEncoder    = &wgpuCommandEncoder{}
	_ RenderPassEncoder = &wgpuRenderPassEncoder{}
	_ CommandBuffer     = &wgpuCommandBuffer{}
)

func newWGPUBackend() Backend {
	return &wgpuBackend{}
}

func (b *wgpuBackend) CreateInstance() (Instance, error) {
	runtime.LockOSThread()
	return createWGPUInstance(func() *wgpu.Instance { return wgpu.CreateInstance(nil) })
}

// createWGPUInstance turns the binding's panic on a missing driver into ErrInstanceUnavailable.
func createWGPUInstance(create func() *wgpu.Instance) (instance Instance, err error) {
	defer func() {
		if r := recover(); r != nil {
			instance = nil
			err = errors.Wrapf(ErrInstanceUnavailable, "%v", r)
		}
	}()
	created := create()
	if created == nil {
		return nil, ErrInstanceUnavailable
	}
	return &wgpuInstance{instance: created}, nil
}

func (i *wgpuInstance) CreateSurface(descriptor *wgpu.SurfaceDescriptor) (Surface, error) {
	if descriptor == nil {
		return nil, errors.New("nil surface descriptor")
	}
	surface := i.instance.CreateSurface(descriptor)
	if surface == nil {
		return nil, errors.New("backend returned no surface")
	}
	return &wgpuSurface{surface: surface}, nil
}

// RequestAdapter resolves before returning: the WebGPU binding waits for the native callback internally.
func (i *wgpuInstance) RequestAdapter(options AdapterOptions, callback func(AdapterResult)) {
	opts := &wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: options.ForceFallbackAdapter,
	}
	if s, ok := options.CompatibleSurface.(*wgpuSurface); ok && s != nil {
		opts.CompatibleSurface = s.surface
	}

	a, err := i.instance.RequestAdapter(opts)
	switch {
	case err != nil:
		callback(AdapterResult{Status: RequestStatusError, Message: err.Error()})
	case a == nil:
		callback(AdapterResult{Status: RequestStatusUnavailable, Message: "no adapter returned"})
	default:
		callback(AdapterResult{Status: RequestStatusSuccess, Adapter: &wgpuAdapter{adapter: a}})
	}
}

func (i *wgpuInstance) Release() {
	i.instance.Release()
}

func (a *wgpuAdapter) Limits() Limits {
	return limitsFromWGPU(a.adapter.GetLimits().Limits)
}

func (a *wgpuAdapter) RequestDevice(descriptor DeviceDescriptor, callback func(DeviceResult)) {
	// start from every supported limit and overlay the negotiated fields
	limits := a.adapter.GetLimits().Limits
	applyLimits(&limits, descriptor.RequiredLimits)

	dev := &wgpuDevice{mu: &sync.Mutex{}, label: descriptor.Label}
	d, err := a.adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: descriptor.Label,
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
		DeviceLostCallback: dev.lost,
	})
	switch {
	case err != nil:
		callback(DeviceResult{Status: RequestStatusError, Message: err.Error()})
	case d == nil:
		callback(DeviceResult{Status: RequestStatusUnavailable, Message: "no device returned"})
	default:
		dev.device = d
		dev.queue = &wgpuQueue{queue: d.GetQueue(), device: d}
		callback(DeviceResult{Status: RequestStatusSuccess, Device: dev})
	}
}

func (a *wgpuAdapter) Release() {
	a.adapter.Release()
}

func limitsFromWGPU(l wgpu.Limits) Limits {
	return Limits{
		MaxVertexAttributes:             l.MaxVertexAttributes,
		MaxVertexBuffers:                l.MaxVertexBuffers,
		MaxBufferSize:                   l.MaxBufferSize,
		MaxVertexBufferArrayStride:      l.MaxVertexBufferArrayStride,
		MaxInterStageShaderComponents:   l.MaxInterStageShaderComponents,
		MaxBindGroups:                   l.MaxBindGroups,
		MinUniformBufferOffsetAlignment: l.MinUniformBufferOffsetAlignment,
		MinStorageBufferOffsetAlignment: l.MinStorageBufferOffsetAlignment,
	}
}

func applyLimits(dst *wgpu.Limits, l Limits) {
	dst.MaxVertexAttributes = l.MaxVertexAttributes
	dst.MaxVertexBuffers = l.MaxVertexBuffers
	dst.MaxBufferSize = l.MaxBufferSize
	dst.MaxVertexBufferArrayStride = l.MaxVertexBufferArrayStride
	dst.MaxInterStageShaderComponents = l.MaxInterStageShaderComponents
	dst.MaxBindGroups = l.MaxBindGroups
	dst.MinUniformBufferOffsetAlignment = l.MinUniformBufferOffsetAlignment
	dst.MinStorageBufferOffsetAlignment = l.MinStorageBufferOffsetAlignment
}

func (d *wgpuDevice) Queue() Queue {
	return d.queue
}

func (d *wgpuDevice) SetUncapturedErrorCallback(callback UncapturedErrorCallback) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onError = callback
}

// report forwards a validation failure that no call returns to the uncaptured-error callback.
func (d *wgpuDevice) report(label string, errorType ErrorType, message string) {
	d.mu.Lock()
	cb := d.onError
	d.mu.Unlock()
	if cb != nil {
		cb(label, errorType, message)
	}
}

// reportError forwards a non-nil error returned by a call whose signature cannot carry it.
func (d *wgpuDevice) reportError(label string, err error) {
	if err != nil {
		d.report(label, ErrorTypeValidation, err.Error())
	}
}

// lost receives the binding's device-lost notification. Loss caused by our own release is expected.
func (d *wgpuDevice) lost(reason wgpu.DeviceLostReason, message string) {
	if reason == wgpu.DeviceLostReasonDestroyed {
		return
	}
	d.report(d.label, ErrorTypeDeviceLost, reason.String()+": "+message)
}

func (d *wgpuDevice) CreateShaderModule(label, source string) (ShaderModule, error) {
	m, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: source,
		},
	})
	if err != nil {
		return nil, err
	}
	return &wgpuShaderModule{module: m}, nil
}

func (d *wgpuDevice) CreateRenderPipeline(descriptor *RenderPipelineDescriptor) (RenderPipeline, error) {
	vs, ok := descriptor.VertexModule.(*wgpuShaderModule)
	if !ok {
		return nil, errors.New("vertex module was not created by this backend")
	}
	fs, ok := descriptor.FragmentModule.(*wgpuShaderModule)
	if !ok {
		return nil, errors.New("fragment module was not created by this backend")
	}

	layout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            descriptor.Label + " Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{},
	})
	if err != nil {
		return nil, err
	}
	defer layout.Release()

	created, err := d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  descriptor.Label,
		Layout: layout,
		Vertex: wgpu.VertexState{
			Module:     vs.module,
			EntryPoint: descriptor.VertexEntryPoint,
			Buffers:    descriptor.Buffers,
		},
		Fragment: &wgpu.FragmentState{
			Module:     fs.module,
			EntryPoint: descriptor.FragmentEntryPoint,
			Targets:    descriptor.Targets,
		},
		Primitive:   descriptor.Primitive,
		Multisample: descriptor.Multisample,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuRenderPipeline{pipeline: created}, nil
}

func (d *wgpuDevice) CreateBuffer(label string, size uint64, usage wgpu.BufferUsage) (Buffer, error) {
	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuBuffer{buffer: buf, size: size}, nil
}

func (d *wgpuDevice) CreateCommandEncoder(label string) (CommandEncoder, error) {
	encoder, err := d.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{
		Label: label,
	})
	if err != nil {
		return nil, err
	}
	return &wgpuCommandEncoder{encoder: encoder, device: d}, nil
}

func (d *wgpuDevice) Release() {
	d.device.Release()
}

func (q *wgpuQueue) Submit(commands ...CommandBuffer) {
	buffers := make([]*wgpu.CommandBuffer, 0, len(commands))
	for _, c := range commands {
		if cb, ok := c.(*wgpuCommandBuffer); ok {
			buffers = append(buffers, cb.buffer)
		}
	}
	q.queue.Submit(buffers...)
}

func (q *wgpuQueue) WriteBuffer(buffer Buffer, offset uint64, data []byte) error {
	buf, ok := buffer.(*wgpuBuffer)
	if !ok {
		return errors.New("buffer was not created by this backend")
	}
	if len(data)%4 != 0 || offset%4 != 0 {
		return errors.Newf("buffer write of %d bytes at offset %d is not 4-byte aligned", len(data), offset)
	}
	if offset+uint64(len(data)) > buf.size {
		return errors.Newf("buffer write of %d bytes at offset %d exceeds size %d", len(data), offset, buf.size)
	}
	if err := q.queue.WriteBuffer(buf.buffer, offset, data); err != nil {
		return errors.Wrapf(err, "write %d bytes at offset %d", len(data), offset)
	}
	return nil
}

// OnSubmittedWorkDone registers the callback and polls the device without blocking so completed
// work is reported on a later frame.
func (q *wgpuQueue) OnSubmittedWorkDone(callback func(status WorkDoneStatus)) {
	q.queue.OnSubmittedWorkDone(func(status wgpu.QueueWorkDoneStatus) {
		switch status {
		case wgpu.QueueWorkDoneStatusSuccess:
			callback(WorkDoneStatusSuccess)
		case wgpu.QueueWorkDoneStatusError:
			callback(WorkDoneStatusError)
		default:
			callback(WorkDoneStatusUnknown)
		}
	})
	q.device.Poll(false, nil)
}

func (q *wgpuQueue) Release() {
	q.queue.Release()
}

func (s *wgpuSurface) PreferredFormat(adapter Adapter) wgpu.TextureFormat {
	a, ok := adapter.(*wgpuAdapter)
	if !ok {
		return wgpu.TextureFormatUndefined
	}
	capabilities := s.surface.GetCapabilities(a.adapter)
	if len(capabilities.Formats) == 0 {
		return wgpu.TextureFormatUndefined
	}
	return capabilities.Formats[0]
}

func (s *wgpuSurface) Configure(adapter Adapter, device Device, descriptor SwapChainDescriptor) error {
	a, ok := adapter.(*wgpuAdapter)
	if !ok {
		return errors.New("adapter was not created by this backend")
	}
	d, ok := device.(*wgpuDevice)
	if !ok {
		return errors.New("device was not created by this backend")
	}
	if descriptor.PresentMode != PresentModeFifo {
		return errors.Wrapf(ErrUnsupportedPresentMode, "%s", descriptor.PresentMode)
	}

	capabilities := s.surface.GetCapabilities(a.adapter)
	alphaMode := wgpu.CompositeAlphaModeAuto
	if len(capabilities.AlphaModes) > 0 {
		alphaMode = capabilities.AlphaModes[0]
	}

	s.surface.Configure(a.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       descriptor.Usage,
		Format:      descriptor.Format,
		Width:       descriptor.Width,
		Height:      descriptor.Height,
		PresentMode: wgpu.PresentModeFifo,
		AlphaMode:   alphaMode,
	})
	return nil
}

func (s *wgpuSurface) AcquireTextureView() (TextureView, error) {
	if s.texture != nil {
		return nil, errors.New("previous surface texture not yet presented")
	}
	texture, err := s.surface.GetCurrentTexture()
	if err != nil {
		return nil, err
	}
	view, err := texture.CreateView(nil)
	if err != nil {
		texture.Release()
		return nil, err
	}
	s.texture = texture
	return &wgpuTextureView{view: view}, nil
}

func (s *wgpuSurface) Present() {
	if s.texture == nil {
		return
	}
	s.surface.Present()
	s.texture.Release()
	s.texture = nil
}

func (s *wgpuSurface) DiscardTexture() {
	if s.texture == nil {
		return
	}
	s.texture.Release()
	s.texture = nil
}

func (s *wgpuSurface) Release() {
	s.DiscardTexture()
	s.surface.Release()
}

func (m *wgpuShaderModule) Release()   { m.module.Release() }
func (p *wgpuRenderPipeline) Release() { p.pipeline.Release() }
func (v *wgpuTextureView) Release()    { v.view.Release() }
func (c *wgpuCommandBuffer) Release()  { c.buffer.Release() }

func (b *wgpuBuffer) Size() uint64 { return b.size }
func (b *wgpuBuffer) Destroy()     { b.buffer.Destroy() }
func (b *wgpuBuffer) Release()     { b.buffer.Release() }

func (e *wgpuCommandEncoder) BeginRenderPass(descriptor *RenderPassDescriptor) RenderPassEncoder {
	var view *wgpu.TextureView
	if v, ok := descriptor.ColorAttachment.View.(*wgpuTextureView); ok {
		view = v.view
	}
	pass := e.encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: descriptor.Label,
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:       view,
			LoadOp:     descriptor.ColorAttachment.LoadOp,
			StoreOp:    descriptor.ColorAttachment.StoreOp,
			ClearValue: descriptor.ColorAttachment.ClearValue,
		}},
	})
	return &wgpuRenderPassEncoder{pass: pass, device: e.device, label: descriptor.Label}
}

func (e *wgpuCommandEncoder) Finish(label string) (CommandBuffer, error) {
	buf, err := e.encoder.Finish(&wgpu.CommandBufferDescriptor{Label: label})
	if err != nil {
		return nil, err
	}
	return &wgpuCommandBuffer{buffer: buf}, nil
}

func (e *wgpuCommandEncoder) Release() {
	e.encoder.Release()
}

// The pass methods cannot fail synchronously; out-of-range bindings, use after End and the
// validation error End returns are reported through the device's uncaptured-error callback.

func (p *wgpuRenderPassEncoder) usable(op string) bool {
	if p.ended {
		p.device.report(p.label, ErrorTypeValidation, op+" after End")
		return false
	}
	return true
}

func (p *wgpuRenderPassEncoder) SetPipeline(rp RenderPipeline) {
	if !p.usable("SetPipeline") {
		return
	}
	if pl, ok := rp.(*wgpuRenderPipeline); ok {
		p.pass.SetPipeline(pl.pipeline)
	}
}

func (p *wgpuRenderPassEncoder) SetVertexBuffer(slot uint32, buffer Buffer, offset, size uint64) {
	if !p.usable("SetVertexBuffer") {
		return
	}
	buf, ok := buffer.(*wgpuBuffer)
	if !ok {
		return
	}
	if offset+size > buf.size {
		p.device.report(p.label, ErrorTypeValidation, errors.Newf("vertex range [%d,%d) exceeds buffer size %d", offset, offset+size, buf.size).Error())
		return
	}
	p.pass.SetVertexBuffer(slot, buf.buffer, offset, size)
}

func (p *wgpuRenderPassEncoder) SetIndexBuffer(buffer Buffer, format wgpu.IndexFormat, offset, size uint64) {
	if !p.usable("SetIndexBuffer") {
		return
	}
	buf, ok := buffer.(*wgpuBuffer)
	if !ok {
		return
	}
	if offset+size > buf.size {
		p.device.report(p.label, ErrorTypeValidation, errors.Newf("index range [%d,%d) exceeds buffer size %d", offset, offset+size, buf.size).Error())
		return
	}
	p.pass.SetIndexBuffer(buf.buffer, format, offset, size)
}

func (p *wgpuRenderPassEncoder) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if !p.usable("Draw") {
		return
	}
	p.pass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

func (p *wgpuRenderPassEncoder) DrawIndexed(indexCount, instanceCount, firstIndex uint32, baseVertex int32, firstInstance uint32) {
	if !p.usable("DrawIndexed") {
		return
	}
	p.pass.DrawIndexed(indexCount, instanceCount, firstIndex, baseVertex, firstInstance)
}

func (p *wgpuRenderPassEncoder) End() {
	if !p.usable("End") {
		return
	}
	p.ended = true
	p.device.reportError(p.label, p.pass.End())
}

func (p *wgpuRenderPassEncoder) Release() {
	p.pass.Release()
}
