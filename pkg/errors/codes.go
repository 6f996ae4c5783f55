package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeUnauthorized       ErrorCode = "COMMON_003"
	ErrCodeForbidden          ErrorCode = "COMMON_004"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_007"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeExternalService    ErrorCode = "COMMON_014"
	ErrCodeMessageQueue       ErrorCode = "COMMON_015"
	ErrCodeStorage            ErrorCode = "COMMON_016"
	ErrCodeNotImplemented     ErrorCode = "COMMON_017"
)

// Aliases
const (
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
)

// Matrix pipeline error codes
const (
	ErrCodeMatrixBuildFailed    ErrorCode = "MTX_001"
	ErrCodeInvalidJitterAmount  ErrorCode = "MTX_002"
	ErrCodeInvalidCoordinate    ErrorCode = "MTX_003"
	ErrCodeInvalidAxisRange     ErrorCode = "MTX_004"
	ErrCodeInvalidTickStep      ErrorCode = "MTX_005"
	ErrCodeMalformedResponseMap ErrorCode = "MTX_006"
)

// Stakeholder group / selection error codes
const (
	ErrCodeGroupNotFound    ErrorCode = "GRP_001"
	ErrCodeSessionIDInvalid ErrorCode = "GRP_002"
	ErrCodeSelectionCorrupt ErrorCode = "GRP_003"
	ErrCodeNoPendingChanges ErrorCode = "GRP_004"
)

// Dashboard error codes
const (
	ErrCodeDashboardNotFound ErrorCode = "DSH_001"
	ErrCodeDashboardInvalid  ErrorCode = "DSH_002"
	ErrCodeYearInvalid       ErrorCode = "DSH_003"
)

// Export error codes
const (
	ErrCodeExportFailed     ErrorCode = "EXP_001"
	ErrCodeExportInProgress ErrorCode = "EXP_002"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeExternalService:    http.StatusBadGateway,
	ErrCodeMessageQueue:       http.StatusInternalServerError,
	ErrCodeStorage:            http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeMatrixBuildFailed:    http.StatusInternalServerError,
	ErrCodeInvalidJitterAmount:  http.StatusBadRequest,
	ErrCodeInvalidCoordinate:    http.StatusUnprocessableEntity,
	ErrCodeInvalidAxisRange:     http.StatusBadRequest,
	ErrCodeInvalidTickStep:      http.StatusBadRequest,
	ErrCodeMalformedResponseMap: http.StatusBadRequest,

	ErrCodeGroupNotFound:    http.StatusNotFound,
	ErrCodeSessionIDInvalid: http.StatusBadRequest,
	ErrCodeSelectionCorrupt: http.StatusInternalServerError,
	ErrCodeNoPendingChanges: http.StatusConflict,

	ErrCodeDashboardNotFound: http.StatusNotFound,
	ErrCodeDashboardInvalid:  http.StatusBadRequest,
	ErrCodeYearInvalid:       http.StatusBadRequest,

	ErrCodeExportFailed:     http.StatusInternalServerError,
	ErrCodeExportInProgress: http.StatusConflict,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeUnauthorized:       "unauthorized",
	ErrCodeForbidden:          "forbidden",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeExternalService:    "external service error",
	ErrCodeMessageQueue:       "message queue error",
	ErrCodeStorage:            "object storage error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeMatrixBuildFailed:    "failed to build materiality matrix",
	ErrCodeInvalidJitterAmount:  "invalid jitter amount",
	ErrCodeInvalidCoordinate:    "non-numeric plot coordinate",
	ErrCodeInvalidAxisRange:     "malformed axis range",
	ErrCodeInvalidTickStep:      "invalid tick step",
	ErrCodeMalformedResponseMap: "malformed question response map",

	ErrCodeGroupNotFound:    "stakeholder group not found",
	ErrCodeSessionIDInvalid: "invalid session id",
	ErrCodeSelectionCorrupt: "stored selection state is corrupt",
	ErrCodeNoPendingChanges: "no pending visibility changes",

	ErrCodeDashboardNotFound: "dashboard not found",
	ErrCodeDashboardInvalid:  "invalid dashboard payload",
	ErrCodeYearInvalid:       "invalid reporting year",

	ErrCodeExportFailed:     "snapshot export failed",
	ErrCodeExportInProgress: "snapshot export already in progress",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 1 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
