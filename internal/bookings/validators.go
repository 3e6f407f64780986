package bookings

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var mobilePattern = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// ValidMobile accepts an optional leading + and 7 to 15 digits. Spaces and
// dashes are ignored.
func ValidMobile(raw string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(raw))
	return mobilePattern.MatchString(cleaned)
}

func validateMobile(fl validator.FieldLevel) bool {
	return ValidMobile(fl.Field().String())
}

// RegisterValidators installs the booking binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected validator engine %T", binding.Validator.Engine())
	}
	return v.RegisterValidation("mobile", validateMobile)
}
