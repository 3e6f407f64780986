package response

import (
	"busline/internal/shared/apperrors"

	"github.com/gin-gonic/gin"
)

func RespondJSON(c *gin.Context, status string, code int, message string, data interface{}, errors interface{}) {
	c.JSON(code, StandardApiResponse{
		Status:     status,
		StatusCode: code,
		Message:    message,
		Data:       data,
		Errors:     errors,
	})
}

// RespondError maps err onto its taxonomy status code. Internal failures keep
// their detail out of the response body.
func RespondError(c *gin.Context, message string, err error) {
	code := apperrors.HTTPStatus(err)
	kind := apperrors.Kind(err)

	detail := map[string]string{"kind": kind}
	if kind != "Internal" {
		detail["detail"] = err.Error()
	}
	_ = c.Error(err)
	RespondJSON(c, "error", code, message, nil, detail)
}
