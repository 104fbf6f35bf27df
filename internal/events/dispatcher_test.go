package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	var seen []string
	boom := errors.New("boom")

	d.Subscribe(EventAccessDenied, func(_ context.Context, e Event) error {
		seen = append(seen, "first:"+e.ID)
		return boom
	})
	d.Subscribe(EventAccessDenied, func(_ context.Context, e Event) error {
		seen = append(seen, "second:"+e.ID)
		return nil
	})
	d.Subscribe(EventAdminApproved, func(context.Context, Event) error {
		t.Fatal("unrelated handler called")
		return nil
	})

	err := d.Publish(context.Background(), Event{ID: "e1", Type: EventAccessDenied})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"first:e1", "second:e1"}, seen)
}

func TestPublishWithoutListeners(t *testing.T) {
	d := NewInMemoryDispatcher()
	assert.NoError(t, d.Publish(context.Background(), Event{Type: EventRoleChanged}))
}
