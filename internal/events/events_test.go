package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"edefter/internal/events"
	"edefter/internal/events/eventstest"
)

func TestMultiFansOutInOrder(t *testing.T) {
	var order []string
	first := events.ObserverFunc(func(e events.Event) { order = append(order, "first:"+string(e.Type)) })
	rec := &eventstest.Recorder{}

	events.Multi{first, nil, rec}.Notify(events.Event{Type: events.EmailSent, TaxNo: "1234567890"})
	events.Multi{first, rec}.Notify(events.Event{Type: events.Error})

	assert.Equal(t, []string{"first:email-sent", "first:error"}, order)
	assert.Equal(t, 1, rec.Count(events.EmailSent))
	assert.Equal(t, 1, rec.Count(events.Error))
	assert.Equal(t, "1234567890", rec.Events()[0].TaxNo)
}

func TestDiscardAcceptsEvents(t *testing.T) {
	assert.NotPanics(t, func() { events.Discard.Notify(events.Event{Type: events.Error}) })
}
