package renderer

import "github.com/cockroachdb/errors"

var (
	// ErrInstanceUnavailable is returned when the backend instance cannot be created.
	ErrInstanceUnavailable = errors.New("graphics instance unavailable")

	// ErrAdapterUnavailable is returned when no compatible adapter could be obtained.
	ErrAdapterUnavailable = errors.New("no compatible adapter")

	// ErrDeviceUnavailable is returned when the adapter refused the device request.
	ErrDeviceUnavailable = errors.New("device request failed")

	// ErrLimitsExceeded is returned when required limits do not fit the adapter's supported limits.
	ErrLimitsExceeded = errors.New("required limits exceed supported limits")

	// ErrRequestTimeout is returned when an adapter or device request does not resolve in time.
	ErrRequestTimeout = errors.New("request did not resolve")

	// ErrViewUnavailable is returned when the swap chain cannot produce a presentable view.
	ErrViewUnavailable = errors.New("cannot acquire next swap chain texture")

	// ErrFrameInProgress is returned when a view is acquired while another one is still held,
	// or presented when none is held.
	ErrFrameInProgress = errors.New("swap chain frame state violation")

	// ErrStrideMismatch is returned when vertex data is not a whole number of vertices.
	ErrStrideMismatch = errors.New("vertex data does not match layout stride")

	// ErrUnsupportedPresentMode is returned for any present mode other than FIFO.
	ErrUnsupportedPresentMode = errors.New("unsupported present mode")

	// ErrNotInitialized is returned when a frame is rendered before a pipeline is registered.
	ErrNotInitialized = errors.New("render context not initialized")
)
