package messaging

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhub/daily-quiz-hub/internal/domain/shared"
	"github.com/quizhub/daily-quiz-hub/pkg/logger"
)

func newSyncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode: false,
		Logger:    logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError}),
	})
}

func TestEventBus_DeliversToTypedSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var received []shared.Event
	err := bus.Subscribe(shared.EventCompletionRecorded, func(e shared.Event) error {
		received = append(received, e)
		return nil
	})
	require.NoError(t, err)

	event := shared.NewCompletionRecordedEvent("p-1", "2026-02-10", 10, 10, 1)
	require.NoError(t, bus.Publish(event))
	require.NoError(t, bus.Publish(shared.NewStreakResetEvent("p-1", "2026-02-10", 0)))

	require.Len(t, received, 1)
	assert.Equal(t, shared.EventCompletionRecorded, received[0].EventType())
	assert.Equal(t, "p-1", received[0].AggregateID())
}

func TestEventBus_SubscribeAllSeesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCompletionRecordedEvent("p-1", "2026-02-10", 10, 10, 1)))
	require.NoError(t, bus.Publish(shared.NewStreakExtendedEvent("p-1", "2026-02-10", 2)))

	assert.Equal(t, 2, count)
}

func TestEventBus_HandlerErrorDoesNotStopDelivery(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	delivered := false
	require.NoError(t, bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error {
		return errors.New("boom")
	}))
	require.NoError(t, bus.Subscribe(shared.EventCompletionRecorded, func(shared.Event) error {
		delivered = true
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewCompletionRecordedEvent("p-1", "2026-02-10", 10, 10, 1)))
	assert.True(t, delivered)
}

func TestEventBus_AsyncDrainsOnClose(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{
		AsyncMode:      true,
		WorkerPoolSize: 2,
		Logger:         logger.New(logger.Options{Output: io.Discard, Level: logger.LevelError}),
	})

	done := make(chan struct{}, 10)
	require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
		done <- struct{}{}
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewStreakExtendedEvent("p-1", "2026-02-10", i+1)))
	}

	for i := 0; i < 10; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("handler %d never ran", i)
		}
	}

	// Close waits for in-flight handlers and returns cleanly.
	require.NoError(t, bus.Close())
}

func TestEventBus_ClosedBusRejectsPublish(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewStreakResetEvent("p-1", "2026-02-10", 0))
	assert.ErrorIs(t, err, ErrEventBusClosed)
}
