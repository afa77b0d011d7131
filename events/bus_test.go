package events

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestBusDeliversToNamedAndWildcardListeners(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var mu sync.Mutex
	var got []string
	record := func(tag string) Listener {
		return func(_ context.Context, e Event) error {
			mu.Lock()
			defer mu.Unlock()
			got = append(got, tag+":"+e.Name())
			return nil
		}
	}

	bus.Subscribe(NamePhaseCompleted, record("phase"))
	bus.Subscribe(NameProblemReported, record("problem"))
	bus.Subscribe(Wildcard, record("all"))

	bus.Publish(context.Background(), PhaseCompleted{OrderRef: OrderRef{OrderID: 1}})
	bus.Publish(context.Background(), MaterialArrived{OrderRef: OrderRef{OrderID: 1}})
	bus.Wait()

	sort.Strings(got)
	assert.Equal(t, []string{
		"all:material_arrived",
		"all:phase_completed",
		"phase:phase_completed",
	}, got)
}

func TestBusLogsListenerErrors(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	bus := NewBus(zap.New(core))

	bus.Subscribe(NameProblemResolved, func(context.Context, Event) error {
		return errors.New("socket gone")
	})

	bus.Publish(context.Background(), ProblemResolved{ProblemID: 3})
	bus.Wait()

	entries := logs.FilterMessage("Event listener failed").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "problem_resolved", entries[0].ContextMap()["event"])
	}
}

func TestListenerContextHasDeadline(t *testing.T) {
	bus := NewBus(zap.NewNop())
	done := make(chan bool, 1)
	bus.Subscribe(NameSubframePrepared, func(ctx context.Context, _ Event) error {
		_, ok := ctx.Deadline()
		done <- ok
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, SubframePrepared{})
	cancel()
	bus.Wait()

	assert.True(t, <-done, "listener should run with its own timeout")
}

func TestRecorder(t *testing.T) {
	var rec Recorder
	rec.Publish(context.Background(), ProblemReported{})
	rec.Publish(context.Background(), ProblemResolved{})

	assert.Equal(t, []string{NameProblemReported, NameProblemResolved}, rec.Names())
	assert.Len(t, rec.Events(), 2)

	rec.Reset()
	assert.Empty(t, rec.Names())
}

func TestNewEnvelope(t *testing.T) {
	env := NewEnvelope(SubframeDelivered{OrderRef: OrderRef{OrderID: 9, ConfirmationNumber: "C-9"}})
	assert.Equal(t, NameSubframeDelivered, env.Type)
	assert.NotEmpty(t, env.ID)
	assert.False(t, env.Timestamp.IsZero())
}
