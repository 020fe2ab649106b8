package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTime(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return parsed
}

func iv(t *testing.T, start, end string) Interval {
	t.Helper()
	return NewInterval(mustTime(t, start), mustTime(t, end))
}

func TestInterval_Overlaps(t *testing.T) {
	testCases := []struct {
		name string
		a    Interval
		b    Interval
		want bool
	}{
		{
			name: "partial overlap",
			a:    iv(t, "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z"),
			b:    iv(t, "2025-01-01T11:00:00Z", "2025-01-01T13:00:00Z"),
			want: true,
		},
		{
			name: "contained",
			a:    iv(t, "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z"),
			b:    iv(t, "2025-01-01T10:30:00Z", "2025-01-01T11:00:00Z"),
			want: true,
		},
		{
			name: "touching endpoints do not overlap",
			a:    iv(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			b:    iv(t, "2025-01-01T11:00:00Z", "2025-01-01T12:00:00Z"),
			want: false,
		},
		{
			name: "disjoint",
			a:    iv(t, "2025-01-01T10:00:00Z", "2025-01-01T11:00:00Z"),
			b:    iv(t, "2025-01-01T13:00:00Z", "2025-01-01T14:00:00Z"),
			want: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a), "overlap must be symmetric")
		})
	}
}

func TestInterval_Overlaps_Self(t *testing.T) {
	a := iv(t, "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z")
	assert.True(t, a.Overlaps(a))
}

func TestInterval_Subtract(t *testing.T) {
	free := iv(t, "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z")

	t.Run("middle window splits into two remainders", func(t *testing.T) {
		rest := free.Subtract(iv(t, "2025-01-01T10:30:00Z", "2025-01-01T11:00:00Z"))
		require.Len(t, rest, 2)
		assert.Equal(t, iv(t, "2025-01-01T10:00:00Z", "2025-01-01T10:30:00Z"), rest[0])
		assert.Equal(t, iv(t, "2025-01-01T11:00:00Z", "2025-01-01T12:00:00Z"), rest[1])
	})

	t.Run("leading window leaves tail", func(t *testing.T) {
		rest := free.Subtract(iv(t, "2025-01-01T09:00:00Z", "2025-01-01T11:00:00Z"))
		require.Len(t, rest, 1)
		assert.Equal(t, iv(t, "2025-01-01T11:00:00Z", "2025-01-01T12:00:00Z"), rest[0])
	})

	t.Run("covering window consumes everything", func(t *testing.T) {
		rest := free.Subtract(iv(t, "2025-01-01T09:00:00Z", "2025-01-01T13:00:00Z"))
		assert.Empty(t, rest)
	})

	t.Run("disjoint window keeps interval", func(t *testing.T) {
		rest := free.Subtract(iv(t, "2025-01-01T13:00:00Z", "2025-01-01T14:00:00Z"))
		require.Len(t, rest, 1)
		assert.Equal(t, free, rest[0])
	})
}

func TestParseSlot(t *testing.T) {
	original := iv(t, "2025-01-01T10:00:00Z", "2025-01-01T12:00:00Z")

	parsed, err := ParseSlot(EncodeSlot(original))
	assert.NoError(t, err)
	assert.True(t, parsed.Start.Equal(original.Start))
	assert.True(t, parsed.End.Equal(original.End))

	for _, raw := range []string{"", "garbage", "2025-01-01T10:00:00Z", "not-a-time|2025-01-01T12:00:00Z", "2025-01-01T10:00:00Z|not-a-time"} {
		_, err := ParseSlot(raw)
		assert.Error(t, err, "raw=%q", raw)
	}
}

func TestTransitionSources(t *testing.T) {
	assert.Equal(t, []BookingStatus{BookingStatusPending}, TransitionSources(BookingStatusReserved))
	assert.Equal(t, []BookingStatus{BookingStatusReserved}, TransitionSources(BookingStatusConfirmed))
	assert.Equal(t, []BookingStatus{BookingStatusPending, BookingStatusReserved}, TransitionSources(BookingStatusFailed))
	assert.Equal(t, []BookingStatus{BookingStatusPending, BookingStatusReserved}, TransitionSources(BookingStatusExpired))
	assert.Nil(t, TransitionSources(BookingStatusPending))
}

func TestBookingStatus_IsTerminal(t *testing.T) {
	assert.False(t, BookingStatusPending.IsTerminal())
	assert.False(t, BookingStatusReserved.IsTerminal())
	assert.True(t, BookingStatusConfirmed.IsTerminal())
	assert.True(t, BookingStatusFailed.IsTerminal())
	assert.True(t, BookingStatusExpired.IsTerminal())
}
