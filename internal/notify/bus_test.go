package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBusPublish(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var a, b int
	bus.Subscribe(func() { a++ })
	bus.Subscribe(func() { b++ })

	bus.Publish()
	bus.Publish()

	assert.Equal(t, 2, a)
	assert.Equal(t, 2, b)
}

func TestBusUnsubscribe(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var calls int
	unsubscribe := bus.Subscribe(func() { calls++ })

	bus.Publish()
	unsubscribe()
	bus.Publish()
	unsubscribe() // second detach is a no-op

	assert.Equal(t, 1, calls)
}

func TestBusPanickingSubscriberDoesNotStopOthers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var survived int
	bus.Subscribe(func() { panic("boom") })
	bus.Subscribe(func() { survived++ })
	bus.Subscribe(func() { survived++ })

	assert.NotPanics(t, bus.Publish)
	assert.Equal(t, 2, survived)
}
