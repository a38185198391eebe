package renderer

import (
	"sync"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type reported struct {
	label     string
	errorType ErrorType
	message   string
}

func recordingDevice() (*wgpuDevice, *[]reported) {
	var got []reported
	d := &wgpuDevice{mu: &sync.Mutex{}, label: "Default device"}
	d.SetUncapturedErrorCallback(func(label string, errorType ErrorType, message string) {
		got = append(got, reported{label, errorType, message})
	})
	return d, &got
}

func TestCreateWGPUInstanceRecoversPanic(t *testing.T) {
	instance, err := createWGPUInstance(func() *wgpu.Instance {
		panic("Failed to acquire Instance")
	})
	assert.Nil(t, instance)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInstanceUnavailable))
	assert.Contains(t, err.Error(), "Failed to acquire Instance")
}

func TestCreateWGPUInstanceNil(t *testing.T) {
	instance, err := createWGPUInstance(func() *wgpu.Instance { return nil })
	assert.Nil(t, instance)
	assert.True(t, errors.Is(err, ErrInstanceUnavailable))
}

func TestDeviceLostIsReported(t *testing.T) {
	d, got := recordingDevice()

	d.lost(wgpu.DeviceLostReasonUnknown, "gpu reset")
	require.Len(t, *got, 1)
	assert.Equal(t, reported{"Default device", ErrorTypeDeviceLost, "unknown: gpu reset"}, (*got)[0])

	// losing the device because we released it is not an error
	d.lost(wgpu.DeviceLostReasonDestroyed, "device destroyed")
	assert.Len(t, *got, 1)
}

func TestReportErrorForwardsReturnedErrors(t *testing.T) {
	d, got := recordingDevice()

	d.reportError("Render pass encoder", nil)
	assert.Empty(t, *got)

	d.reportError("Render pass encoder", errors.New("vertex buffer slot 0 not set"))
	require.Len(t, *got, 1)
	assert.Equal(t, ErrorTypeValidation, (*got)[0].errorType)
	assert.Equal(t, "Render pass encoder", (*got)[0].label)
	assert.Equal(t, "vertex buffer slot 0 not set", (*got)[0].message)
}

func TestErrorTypeDeviceLostString(t *testing.T) {
	assert.Equal(t, "device-lost", ErrorTypeDeviceLost.String())
}
