package dto

import (
	"net/http"

	"github.com/freelance/backend/internal/domain/shared"
)

// Error codes carried in ErrorInfo.Code. Domain codes pass through unchanged.
const (
	ErrCodeNotFound         = shared.CodeNotFound
	ErrCodeInvalidArgument  = shared.CodeInvalidArgument
	ErrCodeInvalidState     = shared.CodeInvalidState
	ErrCodeConflict         = shared.CodeConflict
	ErrCodeUnauthorized     = shared.CodeUnauthorized
	ErrCodeForbidden        = shared.CodeForbidden
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeDuplicateRequest = "DUPLICATE_REQUEST"
	ErrCodeRequestTooLarge  = "REQUEST_TOO_LARGE"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked     = "TOKEN_REVOKED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

var errorCodeHTTPStatus = map[string]int{
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeInvalidArgument:  http.StatusBadRequest,
	ErrCodeInvalidState:     http.StatusUnprocessableEntity,
	ErrCodeConflict:         http.StatusConflict,
	ErrCodeUnauthorized:     http.StatusUnauthorized,
	ErrCodeForbidden:        http.StatusForbidden,
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeRateLimited:      http.StatusTooManyRequests,
	ErrCodeDuplicateRequest: http.StatusConflict,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,
	ErrCodeTokenExpired:     http.StatusUnauthorized,
	ErrCodeTokenRevoked:     http.StatusUnauthorized,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// HTTPStatus returns the status of an error code, 500 for unknown codes
func HTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
