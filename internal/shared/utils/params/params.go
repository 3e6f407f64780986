package params

import (
	"fmt"
	"strconv"

	"busline/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

// UintParam parses a positive numeric path parameter.
func UintParam(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", apperrors.ErrValidation, name)
	}
	return uint(id), nil
}
