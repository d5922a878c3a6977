package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Pipeline errors
const (
	// ErrCodeGraphIntegrity indicates a structural problem with the graph
	// (dangling references, cycles, duplicate points).
	ErrCodeGraphIntegrity ErrorCode = "GRAPH_INTEGRITY"
	// ErrCodeNodeConfig indicates a node is misconfigured.
	ErrCodeNodeConfig ErrorCode = "NODE_CONFIG"
	// ErrCodeNodeRuntime indicates a node failed while performing real work.
	ErrCodeNodeRuntime ErrorCode = "NODE_RUNTIME"
	// ErrCodeTypeMismatch indicates incoming asset types do not fit the node.
	ErrCodeTypeMismatch ErrorCode = "TYPE_MISMATCH"
	// ErrCodeNotConfigured indicates a script-backed node has no script selected.
	ErrCodeNotConfigured ErrorCode = "NOT_CONFIGURED"
	// ErrCodeAborted indicates a perform request stopped before completing.
	ErrCodeAborted ErrorCode = "ABORTED"
)

// Resource errors
const (
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeAlreadyExists indicates the resource already exists.
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	// ErrCodeConflict indicates a conflict with the current state of the resource.
	ErrCodeConflict ErrorCode = "CONFLICT"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	// ErrCodePersistence indicates the graph or loader files could not be read or written.
	ErrCodePersistence ErrorCode = "PERSISTENCE"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout:     true,
	ErrCodePersistence: true,
	ErrCodeNodeRuntime: true,
	ErrCodeInternal:    false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
// Node runtime failures are retryable, node configuration failures are not.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
