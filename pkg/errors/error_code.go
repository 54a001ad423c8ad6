package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown      ErrorCode = 1
	ErrCodeOutputFailed ErrorCode = 2

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidFill          ErrorCode = 102
	ErrCodeInvalidTradeLeg      ErrorCode = 103
	ErrCodeMissingParameter     ErrorCode = 104
	ErrCodeInvalidVersion       ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound     ErrorCode = 200
	ErrCodeQueryFailed      ErrorCode = 201
	ErrCodePositionNotFound ErrorCode = 202

	// Accounting errors (300-399)
	ErrCodeFillOutOfOrder         ErrorCode = 300
	ErrCodeAmbiguousDirection     ErrorCode = 301
	ErrCodeInvalidProportion      ErrorCode = 302
	ErrCodeReconciliationMismatch ErrorCode = 303

	// Feed errors (400-499)
	ErrCodeFeedFetchFailed ErrorCode = 400
	ErrCodeFeedParseFailed ErrorCode = 401
	ErrCodeInvalidProvider ErrorCode = 402

	// Store errors (500-599)
	ErrCodeStoreInitFailed   ErrorCode = 500
	ErrCodeStoreWriteFailed  ErrorCode = 501
	ErrCodeStoreReadFailed   ErrorCode = 502
	ErrCodeStoreExportFailed ErrorCode = 503
	ErrCodeVersionMismatch   ErrorCode = 504
)
