package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cityworks/incident-service/pkg/workflow"
)

func TestDispatcherDeliversToSubscribers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var got []Event
	d.Subscribe(EventIncidentCreated, func(ctx context.Context, event Event) error {
		got = append(got, event)
		return nil
	})
	d.Subscribe(EventIncidentCreated, func(ctx context.Context, event Event) error {
		got = append(got, event)
		return nil
	})

	err := d.Publish(context.Background(), Event{
		ID:         "evt-1",
		Type:       EventIncidentCreated,
		IncidentID: "inc-1",
		Actor:      Actor{UserID: "user-1", Role: workflow.RoleCitizen},
	})
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "inc-1", got[0].IncidentID)
}

func TestDispatcherIgnoresOtherEventTypes(t *testing.T) {
	d := NewInMemoryDispatcher()

	called := false
	d.Subscribe(EventIncidentAssigned, func(ctx context.Context, event Event) error {
		called = true
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIncidentStatusChanged})
	assert.NoError(t, err)
	assert.False(t, called)
}

func TestDispatcherHandlerErrorDoesNotStopDelivery(t *testing.T) {
	d := NewInMemoryDispatcher()

	var order []string
	d.Subscribe(EventIncidentCommentAdded, func(ctx context.Context, event Event) error {
		order = append(order, "first")
		return errors.New("boom")
	})
	d.Subscribe(EventIncidentCommentAdded, func(ctx context.Context, event Event) error {
		order = append(order, "second")
		return nil
	})

	err := d.Publish(context.Background(), Event{Type: EventIncidentCommentAdded})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, order)
}
