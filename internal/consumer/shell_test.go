package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Domenick1991/handybook/internal/events"
)

type MockMarkers struct {
	mock.Mock
}

func (m *MockMarkers) MarkProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func envelopeBody(t *testing.T, eventType string, payload interface{}) []byte {
	t.Helper()
	ev, err := events.New(eventType, payload)
	require.NoError(t, err)
	body, err := json.Marshal(ev)
	require.NoError(t, err)
	return body
}

func TestShell_DispatchesByEventType(t *testing.T) {
	markers := &MockMarkers{}
	handled := 0
	shell := NewShell(markers, zap.NewNop()).
		On(events.TypeSlotReserved, func(ctx context.Context, ev events.Envelope) error {
			handled++
			return nil
		})

	ctx := context.Background()
	markers.On("MarkProcessed", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()

	err := shell.Handle(ctx, envelopeBody(t, events.TypeSlotReserved, events.SlotOutcome{BookingID: "b-1"}))

	assert.NoError(t, err)
	assert.Equal(t, 1, handled)
	markers.AssertExpectations(t)
}

func TestShell_PoisonMessageDroppedWithoutMarker(t *testing.T) {
	markers := &MockMarkers{}
	shell := NewShell(markers, zap.NewNop()).
		On(events.TypeSlotReserved, func(ctx context.Context, ev events.Envelope) error {
			t.Fatal("handler must not run for poison messages")
			return nil
		})

	for _, body := range [][]byte{
		[]byte("not json"),
		[]byte(`{}`),
		[]byte(`{"event_type":"slot.reserved"}`),
	} {
		err := shell.Handle(context.Background(), body)
		assert.NoError(t, err, "poison messages are acked, never requeued")
	}
	markers.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestShell_DuplicateEventSkipped(t *testing.T) {
	markers := &MockMarkers{}
	handled := 0
	shell := NewShell(markers, zap.NewNop()).
		On(events.TypeSlotReserved, func(ctx context.Context, ev events.Envelope) error {
			handled++
			return nil
		})

	ctx := context.Background()
	body := envelopeBody(t, events.TypeSlotReserved, events.SlotOutcome{BookingID: "b-1"})

	markers.On("MarkProcessed", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()
	markers.On("MarkProcessed", ctx, mock.AnythingOfType("string")).Return(false, nil).Once()

	require.NoError(t, shell.Handle(ctx, body))
	require.NoError(t, shell.Handle(ctx, body))

	assert.Equal(t, 1, handled, "redelivery must not re-run the handler")
}

func TestShell_UnregisteredTypeIgnored(t *testing.T) {
	markers := &MockMarkers{}
	shell := NewShell(markers, zap.NewNop())

	err := shell.Handle(context.Background(), envelopeBody(t, "payment.settled", events.SlotOutcome{BookingID: "b-1"}))

	assert.NoError(t, err)
	// No marker burned for events this consumer does not handle.
	markers.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything)
}

func TestShell_MarkerStoreError(t *testing.T) {
	markers := &MockMarkers{}
	shell := NewShell(markers, zap.NewNop()).
		On(events.TypeSlotReserved, func(ctx context.Context, ev events.Envelope) error { return nil })

	ctx := context.Background()
	markers.On("MarkProcessed", ctx, mock.AnythingOfType("string")).Return(false, errors.New("redis unreachable")).Once()

	err := shell.Handle(ctx, envelopeBody(t, events.TypeSlotReserved, events.SlotOutcome{BookingID: "b-1"}))

	assert.Error(t, err)
}

func TestShell_HandlerErrorPropagates(t *testing.T) {
	markers := &MockMarkers{}
	shell := NewShell(markers, zap.NewNop()).
		On(events.TypeSlotReserved, func(ctx context.Context, ev events.Envelope) error {
			return errors.New("db unreachable")
		})

	ctx := context.Background()
	markers.On("MarkProcessed", ctx, mock.AnythingOfType("string")).Return(true, nil).Once()

	err := shell.Handle(ctx, envelopeBody(t, events.TypeSlotReserved, events.SlotOutcome{BookingID: "b-1"}))

	assert.Error(t, err)
}
