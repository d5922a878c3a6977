package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// NodeError is raised by a node operation. It always identifies the node it
// came from; the controller fills NodeName and Phase when the operation left
// them empty.
type NodeError struct {
	NodeID   string    `json:"node_id"`
	NodeName string    `json:"node_name,omitempty"`
	Phase    string    `json:"phase,omitempty"`
	Code     ErrorCode `json:"code"`
	Message  string    `json:"message"`
	Cause    error     `json:"-"`
}

// Error returns "<node name>: <message>", mirroring how the pipeline reports
// failures to users.
func (e *NodeError) Error() string {
	name := e.NodeName
	if name == "" {
		name = e.NodeID
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", name, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", name, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *NodeError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *NodeError) WithCause(cause error) *NodeError {
	e.Cause = cause
	return e
}

// AppError converts the node error for the API surface.
func (e *NodeError) AppError() *AppError {
	status := http.StatusUnprocessableEntity
	if e.Code == ErrCodeNodeRuntime {
		status = http.StatusInternalServerError
	}
	return New(e.Code, e.Error(), status).WithDetails(map[string]any{
		"node_id":   e.NodeID,
		"node_name": e.NodeName,
		"phase":     e.Phase,
	})
}

func newNodeError(code ErrorCode, nodeID, format string, args ...any) *NodeError {
	return &NodeError{NodeID: nodeID, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NodeConfig creates a NodeError for a misconfigured node.
func NodeConfig(nodeID, format string, args ...any) *NodeError {
	return newNodeError(ErrCodeNodeConfig, nodeID, format, args...)
}

// NodeRuntime creates a NodeError for a node that failed during real work.
func NodeRuntime(nodeID, format string, args ...any) *NodeError {
	return newNodeError(ErrCodeNodeRuntime, nodeID, format, args...)
}

// TypeMismatch creates a NodeError for incompatible incoming asset types.
func TypeMismatch(nodeID, format string, args ...any) *NodeError {
	return newNodeError(ErrCodeTypeMismatch, nodeID, format, args...)
}

// NotConfigured creates a NodeError for a script-backed node without a script.
func NotConfigured(nodeID, what string) *NodeError {
	return newNodeError(ErrCodeNotConfigured, nodeID, "%s is not configured", what)
}

// AsNodeError returns the NodeError wrapped in err, if any.
func AsNodeError(err error) (*NodeError, bool) {
	var nodeErr *NodeError
	if stderrors.As(err, &nodeErr) {
		return nodeErr, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code, either as an AppError or
// as a NodeError.
func IsCode(err error, code ErrorCode) bool {
	if nodeErr, ok := AsNodeError(err); ok {
		return nodeErr.Code == code
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
