package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// APIResponse is the envelope of every successful reply.
type APIResponse[T any] struct {
	Success   bool      `json:"success"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Token     string    `json:"token,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ErrorResponse is the envelope of every failed reply.
type ErrorResponse struct {
	Success        bool      `json:"success"`
	Status         int       `json:"status"`
	Message        string    `json:"message"`
	AdditionalInfo any       `json:"additionalInfo,omitempty"`
	RequestID      string    `json:"request_id,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

func Success[T any](ctx *gin.Context, status int, data T, message string) {
	SuccessWithToken(ctx, status, data, message, "")
}

// SuccessWithToken also carries an access token in the envelope.
func SuccessWithToken[T any](ctx *gin.Context, status int, data T, message, token string) {
	if status == 0 {
		status = http.StatusOK
	}
	ctx.JSON(status, APIResponse[T]{
		Success:   true,
		Status:    status,
		Message:   message,
		Data:      data,
		Token:     token,
		RequestID: ctx.GetString("request_id"),
		Timestamp: time.Now().UTC(),
	})
}

func Error(ctx *gin.Context, status int, message string, info any) {
	ctx.JSON(status, errorBody(ctx, status, message, info))
}

// Abort writes the error envelope and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string, info any) {
	ctx.AbortWithStatusJSON(status, errorBody(ctx, status, message, info))
}

func errorBody(ctx *gin.Context, status int, message string, info any) ErrorResponse {
	if status == 0 {
		status = http.StatusBadRequest
	}
	return ErrorResponse{
		Success:        false,
		Status:         status,
		Message:        message,
		AdditionalInfo: info,
		RequestID:      ctx.GetString("request_id"),
		Timestamp:      time.Now().UTC(),
	}
}
