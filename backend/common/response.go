package common

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the error object the Franz/Ferdi desktop client matches on.
// Unlike a conventional API envelope, successful payloads on this wire are
// bare shapes, so only errors get a common structure.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Status  int    `json:"status"`
}

// FieldError carries one violated constraint for validation responses.
type FieldError struct {
	Field      string `json:"field"`
	Message    string `json:"message"`
	Validation string `json:"validation"`
}

func RespError(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, ErrorBody{
		Message: message,
		Status:  statusCode,
	})
}

func RespErrorCode(c *gin.Context, statusCode int, message string, code string) {
	c.JSON(statusCode, ErrorBody{
		Message: message,
		Code:    code,
		Status:  statusCode,
	})
}

func RespValidationErrors(c *gin.Context, fieldErrors []FieldError) {
	c.JSON(http.StatusBadRequest, fieldErrors)
}

// RespText answers the human-facing flows (account import, recipe creation)
// that render plain prose instead of JSON.
func RespText(c *gin.Context, statusCode int, text string) {
	c.String(statusCode, text)
}
