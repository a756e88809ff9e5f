package mint

import "github.com/google/uuid"

// newRequestID generates a request id for callers that did not supply one.
func newRequestID() string {
	return uuid.NewString()
}
