package booking_test

import (
	"math"
	"strings"
	"testing"

	"cursedticket/booking"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateQuantity(t *testing.T) {
	for _, q := range []float64{0, -1, -10, 0.5, 2.5, 10.01, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := booking.ValidateQuantity(q)
		assert.ErrorIs(t, err, booking.ErrInvalidQuantity, "quantity %v", q)
	}

	for q, want := range map[float64]int{1: 1, 3: 3, 10: 10, 11: 10, 250: 10, 1e12: 10} {
		got, err := booking.ValidateQuantity(q)
		require.NoError(t, err)
		assert.Equal(t, want, got, "quantity %v", q)
	}
}

func TestNormalizeSeats(t *testing.T) {
	assert.Equal(t,
		[]string{"A1", "B2", "C3"},
		booking.NormalizeSeats([]string{" a1", "B2", "", "A1", "c3 ", "  "}),
	)
	assert.Empty(t, booking.NormalizeSeats([]string{"", " "}))
}

func TestValidateSeats(t *testing.T) {
	got, err := booking.ValidateSeats([]string{"a1", " A1", "b12"})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1", "B12"}, got)

	_, err = booking.ValidateSeats(nil)
	assert.ErrorIs(t, err, booking.ErrInvalidQuantity)

	ten := []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7", "A8", "A9", "A10"}
	_, err = booking.ValidateSeats(ten)
	assert.NoError(t, err)

	_, err = booking.ValidateSeats(append(ten, "A11"))
	assert.ErrorIs(t, err, booking.ErrInvalidSeats)

	_, err = booking.ValidateSeats([]string{strings.Repeat("A", booking.MaxSeatLabelLength) + "1"})
	assert.ErrorIs(t, err, booking.ErrInvalidSeats)
	assert.Equal(t, "invalid_seats", booking.Kind(err))
}

func TestAvailableSeats(t *testing.T) {
	requested := []string{"A1", "A2", "A4", "A5"}
	booked := []string{"A1", "A2", "A3"}

	assert.Equal(t, []string{"A4", "A5"}, booking.AvailableSeats(requested, booked))
	assert.Empty(t, booking.AvailableSeats([]string{"A1"}, booked))
	assert.Equal(t, requested, booking.AvailableSeats(requested, nil))
}
