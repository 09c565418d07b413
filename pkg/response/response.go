// Package response renders the JSON envelopes every endpoint answers with.
package response

import (
	"errors"
	"net/http"
	"time"

	"rwa-signing-gateway/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey is the gin context key the request-id middleware stores under.
const RequestIDKey = "request_id"

type SuccessResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data"`
	RequestID string      `json:"requestId"`
	Timestamp string      `json:"timestamp"`
}

// ErrorResponse is the failure envelope shared by the signing RPC and the admin API.
type ErrorResponse struct {
	Success    bool   `json:"success"`
	Error      string `json:"error"`
	ErrorCode  string `json:"errorCode"`
	AuditLogID string `json:"auditLogId,omitempty"`
	RequestID  string `json:"requestId"`
	Timestamp  string `json:"timestamp"`
}

func OK(c *gin.Context, data interface{}) {
	success(c, http.StatusOK, data)
}

func Created(c *gin.Context, data interface{}) {
	success(c, http.StatusCreated, data)
}

func Error(c *gin.Context, err error) {
	ErrorWithAudit(c, err, "")
}

// ErrorWithAudit is Error plus the id of the audit entry written for the attempt.
func ErrorWithAudit(c *gin.Context, err error, auditLogID string) {
	status, body := Failure(err)
	body.AuditLogID = auditLogID
	body.RequestID = requestID(c)
	body.Timestamp = now()
	c.JSON(status, body)
}

// Failure maps err to a status and envelope. Anything that is not an AppError
// becomes a 500 whose message does not leak err.
func Failure(err error) (int, ErrorResponse) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus, ErrorResponse{Error: appErr.Message, ErrorCode: appErr.Code}
	}
	return http.StatusInternalServerError, ErrorResponse{Error: "Internal server error", ErrorCode: apperror.CodeInternalError}
}

func success(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse{Success: true, Data: data, RequestID: requestID(c), Timestamp: now()})
}

func now() string { return time.Now().UTC().Format(time.RFC3339) }

func requestID(c *gin.Context) string {
	if s := c.GetString(RequestIDKey); s != "" {
		return s
	}
	return uuid.NewString()
}
