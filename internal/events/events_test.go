package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	ev, err := New(TypeSlotReserved, SlotOutcome{BookingID: "b-1"})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, TypeSlotReserved, ev.EventType)
	assert.False(t, ev.OccurredAt.IsZero())

	payload, err := Decode[SlotOutcome](ev)
	require.NoError(t, err)
	assert.Equal(t, "b-1", payload.BookingID)
}

func TestNew_UniqueEventIDs(t *testing.T) {
	first, err := New(TypeSlotExpired, SlotOutcome{BookingID: "b-1"})
	require.NoError(t, err)
	second, err := New(TypeSlotExpired, SlotOutcome{BookingID: "b-1"})
	require.NoError(t, err)

	assert.NotEqual(t, first.EventID, second.EventID)
}

func TestParse(t *testing.T) {
	ev, err := New(TypeBookingRequested, BookingRequested{
		BookingID:     "b-1",
		UserEmail:     "user@example.com",
		HandymanEmail: "pro@example.com",
		DesiredStart:  "2025-01-01T10:00:00Z",
		DesiredEnd:    "2025-01-01T11:00:00Z",
	})
	require.NoError(t, err)
	body, err := json.Marshal(ev)
	require.NoError(t, err)

	parsed, err := Parse(body)
	require.NoError(t, err)
	assert.Equal(t, ev.EventID, parsed.EventID)
	assert.Equal(t, TypeBookingRequested, parsed.EventType)

	payload, err := Decode[BookingRequested](parsed)
	require.NoError(t, err)
	assert.Equal(t, "pro@example.com", payload.HandymanEmail)
}

func TestParse_PoisonBodies(t *testing.T) {
	testCases := []struct {
		name string
		body []byte
	}{
		{name: "not json", body: []byte("not json at all")},
		{name: "empty object", body: []byte(`{}`)},
		{name: "missing event_type", body: []byte(`{"event_id":"e-1"}`)},
		{name: "missing event_id", body: []byte(`{"event_type":"slot.reserved"}`)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.body)
			assert.Error(t, err)
		})
	}
}

func TestDecode_MalformedData(t *testing.T) {
	ev := Envelope{
		EventID:   "e-1",
		EventType: TypeSlotReserved,
		Data:      json.RawMessage(`"a string, not an object"`),
	}
	_, err := Decode[SlotOutcome](ev)
	assert.Error(t, err)
}
