package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: COMMON, PAT (pattern language) and
// ENV (stored environments).
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
	ErrCodeFeatureDisabled    ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
	ErrCodeMessageQueue       ErrorCode = "COMMON_017"
)

// Short aliases used at call sites.
const (
	CodeOK             = ErrorCode("OK")
	CodeUnknown        = ErrorCode("UNKNOWN")
	CodeInternal       = ErrCodeInternal
	CodeInvalidParam   = ErrCodeBadRequest
	CodeNotFound       = ErrCodeNotFound
	CodeConflict       = ErrCodeConflict
	CodeNotImplemented = ErrCodeNotImplemented
	CodeDatabaseError  = ErrCodeDatabaseError
	CodeCacheError     = ErrCodeCacheError
)

// Pattern Error Codes
const (
	ErrCodePatternParseFailed       ErrorCode = "PAT_001"
	ErrCodePatternEmpty             ErrorCode = "PAT_002"
	ErrCodePatternDecoratorInvalid  ErrorCode = "PAT_003"
	ErrCodePatternLabelConflict     ErrorCode = "PAT_004"
	ErrCodePatternComponentNotFound ErrorCode = "PAT_005"
	ErrCodePatternDescriptorInvalid ErrorCode = "PAT_006"
	ErrCodePatternMalformedOutput   ErrorCode = "PAT_007"
	ErrCodePatternOracleUnavailable ErrorCode = "PAT_008"
)

// Environment Error Codes
const (
	ErrCodeEnvironmentNotFound        ErrorCode = "ENV_001"
	ErrCodeEnvironmentVersionConflict ErrorCode = "ENV_002"
	ErrCodeEnvironmentLocked          ErrorCode = "ENV_003"
	ErrCodeMutationRejected           ErrorCode = "ENV_004"
	ErrCodeRevisionNotFound           ErrorCode = "ENV_005"
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
	ErrCodeFeatureDisabled:    http.StatusForbidden,
	ErrCodeNotImplemented:     http.StatusNotImplemented,
	ErrCodeMessageQueue:       http.StatusInternalServerError,

	ErrCodePatternParseFailed:       http.StatusBadRequest,
	ErrCodePatternEmpty:             http.StatusBadRequest,
	ErrCodePatternDecoratorInvalid:  http.StatusBadRequest,
	ErrCodePatternLabelConflict:     http.StatusConflict,
	ErrCodePatternComponentNotFound: http.StatusNotFound,
	ErrCodePatternDescriptorInvalid: http.StatusBadRequest,
	ErrCodePatternMalformedOutput:   http.StatusInternalServerError,
	ErrCodePatternOracleUnavailable: http.StatusBadGateway,

	ErrCodeEnvironmentNotFound:        http.StatusNotFound,
	ErrCodeEnvironmentVersionConflict: http.StatusConflict,
	ErrCodeEnvironmentLocked:          http.StatusConflict,
	ErrCodeMutationRejected:           http.StatusUnprocessableEntity,
	ErrCodeRevisionNotFound:           http.StatusNotFound,
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
	ErrCodeFeatureDisabled:    "feature disabled",
	ErrCodeNotImplemented:     "not implemented",
	ErrCodeMessageQueue:       "message queue error",

	ErrCodePatternParseFailed:       "failed to parse pattern",
	ErrCodePatternEmpty:             "pattern is empty",
	ErrCodePatternDecoratorInvalid:  "invalid decorator",
	ErrCodePatternLabelConflict:     "positional label already in use",
	ErrCodePatternComponentNotFound: "pattern component not found",
	ErrCodePatternDescriptorInvalid: "invalid descriptor",
	ErrCodePatternMalformedOutput:   "serialized pattern is not well formed",
	ErrCodePatternOracleUnavailable: "pattern oracle unavailable",

	ErrCodeEnvironmentNotFound:        "environment not found",
	ErrCodeEnvironmentVersionConflict: "environment was modified concurrently",
	ErrCodeEnvironmentLocked:          "environment is locked by another writer",
	ErrCodeMutationRejected:           "mutation rejected",
	ErrCodeRevisionNotFound:           "environment revision not found",
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
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}

//Personal.AI order the ending
