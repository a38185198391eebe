package renderer

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
)

// await issues one asynchronous request and waits for its single result or for ctx to end.
// The callback handed to issue may fire inside issue or later from any goroutine; results
// after the first are dropped. A result that arrives after ctx ended is handed to abandon
// so the caller can release what it would otherwise leak.
func await[T any](ctx context.Context, issue func(func(T)), abandon func(T)) (T, error) {
	ch := make(chan T, 1)
	var (
		mu       sync.Mutex
		resolved bool
		gaveUp   bool
	)
	issue(func(r T) {
		mu.Lock()
		if resolved {
			mu.Unlock()
			return
		}
		resolved = true
		late := gaveUp
		mu.Unlock()
		if late {
			abandon(r)
			return
		}
		ch <- r
	})

	select {
	case r := <-ch:
		return r, nil
	default:
	}
	select {
	case r := <-ch:
		return r, nil
	case <-ctx.Done():
		mu.Lock()
		gaveUp = true
		raced := resolved
		mu.Unlock()
		if raced {
			// the result landed together with the deadline and is already on its way to ch
			abandon(<-ch)
		}
		var zero T
		return zero, errors.Mark(errors.Wrap(ctx.Err(), "awaiting backend callback"), ErrRequestTimeout)
	}
}

// RequestAdapter requests one adapter compatible with the options and waits for the backend to resolve it.
// A success status that carries no adapter is reported as a failure.
//
// Parameters:
//   - ctx: bounds how long to wait for the backend callback
//   - instance: the backend instance
//   - options: the adapter request options
//
// Returns:
//   - Adapter: the resolved adapter, never nil when error is nil
//   - error: ErrAdapterUnavailable or ErrRequestTimeout
func RequestAdapter(ctx context.Context, instance Instance, options AdapterOptions) (Adapter, error) {
	res, err := await(ctx, func(cb func(AdapterResult)) {
		instance.RequestAdapter(options, cb)
	}, func(late AdapterResult) {
		if late.Adapter != nil {
			late.Adapter.Release()
		}
	})
	if err != nil {
		return nil, errors.Wrap(err, "request adapter")
	}
	if res.Status != RequestStatusSuccess || res.Adapter == nil {
		return nil, errors.Wrapf(ErrAdapterUnavailable, "status %s: %s", res.Status, res.Message)
	}
	return res.Adapter, nil
}

// RequestDevice validates the descriptor's limits against the adapter, then requests one device and
// waits for the backend to resolve it.
//
// Parameters:
//   - ctx: bounds how long to wait for the backend callback
//   - adapter: the adapter to request the device from
//   - descriptor: the device descriptor including the required limits contract
//
// Returns:
//   - Device: the resolved device, never nil when error is nil
//   - error: ErrLimitsExceeded, ErrDeviceUnavailable or ErrRequestTimeout
func RequestDevice(ctx context.Context, adapter Adapter, descriptor DeviceDescriptor) (Device, error) {
	if err := descriptor.RequiredLimits.Check(adapter.Limits()); err != nil {
		return nil, errors.Wrapf(err, "request device %q", descriptor.Label)
	}
	res, err := await(ctx, func(cb func(DeviceResult)) {
		adapter.RequestDevice(descriptor, cb)
	}, func(late DeviceResult) {
		if late.Device != nil {
			late.Device.Release()
		}
	})
	if err != nil {
		return nil, errors.Wrapf(err, "request device %q", descriptor.Label)
	}
	if res.Status != RequestStatusSuccess || res.Device == nil {
		return nil, errors.Wrapf(ErrDeviceUnavailable, "device %q status %s: %s", descriptor.Label, res.Status, res.Message)
	}
	return res.Device, nil
}

// InstallErrorSink attaches the single uncaptured-error callback of a device. Errors are forwarded
// to the sink's worker pool; the callback never blocks the caller and recovers from any panic.
//
// Parameters:
//   - device: the device to attach the callback to
//   - sink: the notification sink the errors are reported to
func InstallErrorSink(device Device, sink *NotificationSink) {
	device.SetUncapturedErrorCallback(func(label string, errorType ErrorType, message string) {
		defer func() {
			if r := recover(); r != nil {
				sink.logger.Error("uncaptured error callback panicked", "panic", fmt.Sprint(r))
			}
		}()
		sink.UncapturedError(label, errorType, message)
	})
}
