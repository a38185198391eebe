package renderer_test

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-learn/engine/renderer"
	"github.com/stretchr/testify/assert"
)

func TestNotificationSink(t *testing.T) {
	sink := renderer.NewNotificationSink(quietLogger(), 4)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sink.WorkDone(renderer.WorkDoneStatusSuccess)
		}()
	}
	wg.Wait()
	sink.WorkDone(renderer.WorkDoneStatusError)
	sink.WorkDone(renderer.WorkDoneStatusUnknown)
	sink.UncapturedError("Default device", renderer.ErrorTypeInternal, "lost")
	sink.Flush()

	assert.Equal(t, renderer.NotificationStats{
		WorkDone:         10,
		WorkDoneFailures: 2,
		UncapturedErrors: 1,
	}, sink.Stats())
}

func TestNotificationSinkDefaults(t *testing.T) {
	sink := renderer.NewNotificationSink(nil, 0)
	sink.WorkDone(renderer.WorkDoneStatusSuccess)
	sink.Flush()
	assert.Equal(t, uint64(1), sink.Stats().WorkDone)
}

func TestStatusStrings(t *testing.T) {
	assert.Equal(t, "success", renderer.RequestStatusSuccess.String())
	assert.Equal(t, "unavailable", renderer.RequestStatusUnavailable.String())
	assert.Equal(t, "validation", renderer.ErrorTypeValidation.String())
	assert.Equal(t, "out-of-memory", renderer.ErrorTypeOutOfMemory.String())
	assert.Equal(t, "error", renderer.WorkDoneStatusError.String())
	assert.Equal(t, "fifo", renderer.PresentModeFifo.String())
	assert.Equal(t, "pass-open", renderer.FramePassOpen.String())
}

func TestNotificationSinkClose(t *testing.T) {
	sink := renderer.NewNotificationSink(quietLogger(), 2)
	sink.WorkDone(renderer.WorkDoneStatusSuccess)
	sink.UncapturedError("Default device", renderer.ErrorTypeValidation, "bad draw")

	sink.Close()
	// everything submitted before Close was handled
	assert.Equal(t, uint64(1), sink.Stats().WorkDone)
	assert.Equal(t, uint64(1), sink.Stats().UncapturedErrors)

	sink.WorkDone(renderer.WorkDoneStatusSuccess)
	sink.Close()
	sink.Flush()
	assert.Equal(t, renderer.NotificationStats{
		WorkDone:         1,
		UncapturedErrors: 1,
		Dropped:          1,
	}, sink.Stats())
}
