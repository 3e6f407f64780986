package bookings

import (
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidMobile(t *testing.T) {
	tests := map[string]bool{
		"+2348012345678":     true,
		"08012345678":        true,
		"0801 234 5678":      true,
		"0801-234-5678":      true,
		"123456":             false,
		"+23480123456789012": false,
		"0801234abcd":        false,
		"":                   false,
	}
	for input, want := range tests {
		assert.Equal(t, want, ValidMobile(input), input)
	}
}

func TestRegisterValidators(t *testing.T) {
	require.NoError(t, RegisterValidators())

	req := CreateBookingRequest{
		TripID:        1,
		SeatIDs:       []uint{1, 2},
		PassengerName: "Ada Obi",
		Email:         "ada@example.com",
		Mobile:        "+2348012345678",
	}
	assert.NoError(t, binding.Validator.ValidateStruct(req))

	req.Mobile = "call me"
	assert.Error(t, binding.Validator.ValidateStruct(req))

	req.Mobile = "+2348012345678"
	req.SeatIDs = []uint{1, 1}
	assert.Error(t, binding.Validator.ValidateStruct(req))
}
