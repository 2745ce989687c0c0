package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noorhaan-almohammed/task-manager-api/internal/services"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
)

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	c.AbortWithStatusJSON(err.Code, gin.H{"error": err.Message})
}

// abortValidation renders a field-level rejection as a 422 with a
// per-field errors map.
func abortValidation(c *gin.Context, vErr *services.ValidationError) {
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
		"message": vErr.Message,
		"errors": gin.H{
			vErr.Field: []string{vErr.Message},
		},
	})
}

// abortIfValidation aborts with a 422 envelope when err wraps a
// ValidationError and reports whether it did.
func abortIfValidation(c *gin.Context, err error) bool {
	var vErr *services.ValidationError
	if errors.As(err, &vErr) {
		abortValidation(c, vErr)
		return true
	}
	return false
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}
