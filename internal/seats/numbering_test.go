package seats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSeatNumbers(t *testing.T) {
	tests := []struct {
		name        string
		capacity    int
		seatsPerRow int
		first       []string
		last        string
	}{
		{name: "flat numbering", capacity: 18, seatsPerRow: 0, first: []string{"S1", "S2", "S3"}, last: "S18"},
		{name: "rows of four", capacity: 10, seatsPerRow: 4, first: []string{"A1", "A2", "A3", "A4", "B1"}, last: "C2"},
		{name: "past Z", capacity: 60, seatsPerRow: 2, first: []string{"A1", "A2"}, last: "AD2"},
		{name: "single seat", capacity: 1, seatsPerRow: 4, first: []string{"A1"}, last: "A1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			numbers, err := GenerateSeatNumbers(tt.capacity, tt.seatsPerRow)
			require.NoError(t, err)
			require.Len(t, numbers, tt.capacity)
			assert.Equal(t, tt.first, numbers[:len(tt.first)])
			assert.Equal(t, tt.last, numbers[len(numbers)-1])

			seen := make(map[string]bool, len(numbers))
			for _, n := range numbers {
				assert.False(t, seen[n], "duplicate seat number %s", n)
				seen[n] = true
			}
		})
	}
}

func TestGenerateSeatNumbers_Deterministic(t *testing.T) {
	a, err := GenerateSeatNumbers(45, 4)
	require.NoError(t, err)
	b, err := GenerateSeatNumbers(45, 4)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateSeatNumbers_InvalidCapacity(t *testing.T) {
	_, err := GenerateSeatNumbers(0, 4)
	assert.Error(t, err)
}

func TestRowLabel(t *testing.T) {
	assert.Equal(t, "A", rowLabel(0))
	assert.Equal(t, "Z", rowLabel(25))
	assert.Equal(t, "AA", rowLabel(26))
	assert.Equal(t, "AZ", rowLabel(51))
	assert.Equal(t, "BA", rowLabel(52))
}

func TestBuildTripSeats(t *testing.T) {
	seats, err := BuildTripSeats(7, 3, 0)
	require.NoError(t, err)
	require.Len(t, seats, 3)
	for i, s := range seats {
		assert.Equal(t, uint(7), s.TripID)
		assert.Equal(t, i+1, s.Position)
		assert.Equal(t, StatusAvailable, s.Status)
		assert.Nil(t, s.ReservedAt)
		assert.Nil(t, s.BookingID)
	}
}
