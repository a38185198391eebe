package renderer_test

import (
	"context"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer"
	"github.com/Carmen-Shannon/oxy-learn/engine/renderer/renderertest"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestAdapter(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(b *renderertest.Backend)
		wantErr error
	}{
		{name: "success", setup: func(b *renderertest.Backend) {}},
		{name: "async callback", setup: func(b *renderertest.Backend) { b.AsyncCallbacks = true }},
		{name: "rejected", setup: func(b *renderertest.Backend) { b.AdapterStatus = renderer.RequestStatusUnavailable }, wantErr: renderer.ErrAdapterUnavailable},
		{name: "backend error", setup: func(b *renderertest.Backend) { b.AdapterStatus = renderer.RequestStatusError }, wantErr: renderer.ErrAdapterUnavailable},
		{name: "success without adapter", setup: func(b *renderertest.Backend) { b.NilAdapter = true }, wantErr: renderer.ErrAdapterUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := renderertest.NewBackend()
			tt.setup(fake)
			instance, err := fake.CreateInstance()
			require.NoError(t, err)

			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			adapter, err := renderer.RequestAdapter(ctx, instance, renderer.AdapterOptions{ForceFallbackAdapter: true})
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				assert.Nil(t, adapter)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, adapter)
			assert.Contains(t, fake.Calls(), "RequestAdapter fallback=true surface=false")
		})
	}
}

func TestRequestAdapterIssuesOneRequest(t *testing.T) {
	fake := renderertest.NewBackend()
	instance, err := fake.CreateInstance()
	require.NoError(t, err)

	_, err = renderer.RequestAdapter(context.Background(), instance, renderer.AdapterOptions{})
	require.NoError(t, err)

	count := 0
	for _, c := range fake.Calls() {
		if len(c) >= len("RequestAdapter") && c[:len("RequestAdapter")] == "RequestAdapter" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestRequestAdapterTimeout(t *testing.T) {
	fake := renderertest.NewBackend()
	fake.HangAdapter = true
	instance, err := fake.CreateInstance()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = renderer.RequestAdapter(ctx, instance, renderer.AdapterOptions{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, renderer.ErrRequestTimeout))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLateResultsAreReleased(t *testing.T) {
	fake := renderertest.NewBackend()
	instance, err := fake.CreateInstance()
	require.NoError(t, err)
	adapter, err := renderer.RequestAdapter(context.Background(), instance, renderer.AdapterOptions{})
	require.NoError(t, err)

	fake.LateResults = make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = renderer.RequestAdapter(ctx, instance, renderer.AdapterOptions{})
	require.True(t, errors.Is(err, renderer.ErrRequestTimeout))
	_, err = renderer.RequestDevice(ctx, adapter, renderer.DeviceDescriptor{Label: "Default device"})
	require.True(t, errors.Is(err, renderer.ErrRequestTimeout))
	assert.Zero(t, fake.Released(renderertest.KindAdapter))
	assert.Zero(t, fake.Released(renderertest.KindDevice))

	close(fake.LateResults)
	assert.Eventually(t, func() bool {
		return fake.Released(renderertest.KindAdapter) == 1 && fake.Released(renderertest.KindDevice) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRequestDeviceWithinLimits(t *testing.T) {
	fake := renderertest.NewBackend()
	h := negotiate(t, fake)

	required := renderer.RequiredLimits(h.adapter.Limits(), renderer.Limits{MaxVertexAttributes: 2, MaxBufferSize: 1024})
	device, err := renderer.RequestDevice(context.Background(), h.adapter, renderer.DeviceDescriptor{
		Label:             "Default device",
		DefaultQueueLabel: "Default queue",
		RequiredLimits:    required,
	})
	require.NoError(t, err)
	require.NotNil(t, device)
	assert.NotNil(t, device.Queue())
	assert.Equal(t, required, fake.LastDevice().Descriptor.RequiredLimits)
}

func TestRequestDeviceRejectsExceededLimits(t *testing.T) {
	fake := renderertest.NewBackend()
	h := negotiate(t, fake)
	supported := h.adapter.Limits()
	before := len(fake.Calls())

	tests := []struct {
		name   string
		limits renderer.Limits
		field  string
	}{
		{name: "vertex attributes", limits: renderer.Limits{MaxVertexAttributes: supported.MaxVertexAttributes + 1}, field: "max_vertex_attributes"},
		{name: "buffer size", limits: renderer.Limits{MaxBufferSize: supported.MaxBufferSize + 1}, field: "max_buffer_size"},
		{name: "inter-stage", limits: renderer.Limits{MaxInterStageShaderComponents: supported.MaxInterStageShaderComponents + 4}, field: "max_inter_stage_shader_components"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := renderer.RequestDevice(context.Background(), h.adapter, renderer.DeviceDescriptor{
				Label:          "Default device",
				RequiredLimits: renderer.RequiredLimits(supported, tt.limits),
			})
			require.Error(t, err)
			assert.True(t, errors.Is(err, renderer.ErrLimitsExceeded))
			assert.Contains(t, err.Error(), tt.field)
		})
	}
	// the limit check fails before the backend is asked
	assert.Len(t, fake.Calls(), before)
}

func TestRequestDeviceFailure(t *testing.T) {
	fake := renderertest.NewBackend()
	h := negotiate(t, fake)
	fake.DeviceStatus = renderer.RequestStatusError

	_, err := renderer.RequestDevice(context.Background(), h.adapter, renderer.DeviceDescriptor{
		Label:          "Default device",
		RequiredLimits: renderer.RequiredLimits(h.adapter.Limits()),
	})
	assert.True(t, errors.Is(err, renderer.ErrDeviceUnavailable))
}

func TestInstallErrorSinkForwardsToSink(t *testing.T) {
	fake := renderertest.NewBackend()
	h := negotiate(t, fake)
	sink := renderer.NewNotificationSink(quietLogger(), 1)

	renderer.InstallErrorSink(h.device, sink)
	fake.LastDevice().EmitError("Vertex Buffer", renderer.ErrorTypeValidation, "bad range")
	fake.LastDevice().EmitError("Default device", renderer.ErrorTypeOutOfMemory, "oom")

	sink.Flush()
	assert.Equal(t, uint64(2), sink.Stats().UncapturedErrors)
}
