package seats

import (
	"fmt"
	"strconv"
)

// GenerateSeatNumbers returns exactly capacity unique seat labels. With no row
// width the labels are S1..Sn; otherwise each row gets a spreadsheet-style
// letter (A..Z, AA, AB, ...) followed by the position in the row.
func GenerateSeatNumbers(capacity, seatsPerRow int) ([]string, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}

	numbers := make([]string, 0, capacity)
	if seatsPerRow <= 0 {
		for i := 1; i <= capacity; i++ {
			numbers = append(numbers, "S"+strconv.Itoa(i))
		}
		return numbers, nil
	}

	for i := 0; i < capacity; i++ {
		row := i / seatsPerRow
		col := i%seatsPerRow + 1
		numbers = append(numbers, rowLabel(row)+strconv.Itoa(col))
	}
	return numbers, nil
}

// rowLabel converts a zero-based row index to A, B, ..., Z, AA, AB, ...
func rowLabel(row int) string {
	label := ""
	for n := row + 1; n > 0; n = (n - 1) / 26 {
		label = string(rune('A'+(n-1)%26)) + label
	}
	return label
}

// BuildTripSeats expands generated labels into AVAILABLE seat rows.
func BuildTripSeats(tripID uint, capacity, seatsPerRow int) ([]Seat, error) {
	numbers, err := GenerateSeatNumbers(capacity, seatsPerRow)
	if err != nil {
		return nil, err
	}

	out := make([]Seat, 0, len(numbers))
	for i, number := range numbers {
		out = append(out, Seat{
			TripID:     tripID,
			SeatNumber: number,
			Position:   i + 1,
			Status:     StatusAvailable,
		})
	}
	return out, nil
}
