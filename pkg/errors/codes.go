package errors

import "net/http"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeMessageQueueError  ErrorCode = "COMMON_013"
	ErrCodeNotImplemented     ErrorCode = "COMMON_014"
)

// Record / Diff Module Error Codes
const (
	ErrCodeRecordInvalid        ErrorCode = "REC_001"
	ErrCodeRecordPathUnresolved ErrorCode = "REC_002"
	ErrCodeRecordTypeMismatch   ErrorCode = "REC_003"
	ErrCodeRecordDecodeFailed   ErrorCode = "REC_004"
	ErrCodeRecordDepthExceeded  ErrorCode = "REC_005"
)

// Document Module Error Codes
const (
	ErrCodeDocUnsupportedFormat ErrorCode = "DOC_001"
	ErrCodeDocParseFailed       ErrorCode = "DOC_002"
	ErrCodeDocEmptyContent      ErrorCode = "DOC_003"
	ErrCodeDocFieldUnmapped     ErrorCode = "DOC_004"
)

// Learning Module Error Codes
const (
	ErrCodeLearningEventInvalid       ErrorCode = "LRN_001"
	ErrCodeLearningIllegalTransition  ErrorCode = "LRN_002"
	ErrCodeLearningHistoryUnavailable ErrorCode = "LRN_003"
	ErrCodeLearningHistoryTooShort    ErrorCode = "LRN_004"
)

// Profile Module Error Codes
const (
	ErrCodeProfileNotFound       ErrorCode = "PRF_001"
	ErrCodeProfileVersionInvalid ErrorCode = "PRF_002"
	ErrCodeProfileLockTimeout    ErrorCode = "PRF_003"
	ErrCodeProfileStoreCorrupted ErrorCode = "PRF_004"
	ErrCodeProfileSaveFailed     ErrorCode = "PRF_005"
)

// Short aliases used across the codebase.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.  The HTTP layer
// consults this table when translating an AppError into a response; codes
// absent from the table map to 500.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessageQueueError:  http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeRecordInvalid:        http.StatusUnprocessableEntity,
	ErrCodeRecordPathUnresolved: http.StatusUnprocessableEntity,
	ErrCodeRecordTypeMismatch:   http.StatusUnprocessableEntity,
	ErrCodeRecordDecodeFailed:   http.StatusBadRequest,
	ErrCodeRecordDepthExceeded:  http.StatusUnprocessableEntity,

	ErrCodeDocUnsupportedFormat: http.StatusUnsupportedMediaType,
	ErrCodeDocParseFailed:       http.StatusBadRequest,
	ErrCodeDocEmptyContent:      http.StatusBadRequest,
	ErrCodeDocFieldUnmapped:     http.StatusUnprocessableEntity,

	ErrCodeLearningEventInvalid:       http.StatusUnprocessableEntity,
	ErrCodeLearningIllegalTransition:  http.StatusConflict,
	ErrCodeLearningHistoryUnavailable: http.StatusInternalServerError,
	ErrCodeLearningHistoryTooShort:    http.StatusUnprocessableEntity,

	ErrCodeProfileNotFound:       http.StatusNotFound,
	ErrCodeProfileVersionInvalid: http.StatusBadRequest,
	ErrCodeProfileLockTimeout:    http.StatusConflict,
	ErrCodeProfileStoreCorrupted: http.StatusInternalServerError,
	ErrCodeProfileSaveFailed:     http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code for c, defaulting to 500 for
// unmapped codes.
func (c ErrorCode) HTTPStatus() int {
	if s, ok := ErrorCodeHTTPStatus[c]; ok {
		return s
	}
	return http.StatusInternalServerError
}
