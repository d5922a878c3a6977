package util

import "github.com/google/uuid"

// NewID returns a fresh random identifier for nodes, points and connections.
func NewID() string {
	return uuid.NewString()
}
