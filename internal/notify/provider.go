// Package notify delivers rendered message batches to remote endpoints.
package notify

import (
	"context"
	"fmt"

	"github.com/darshan-rambhia/poolwatch/internal/model"
)

// Provider sends a message batch through a specific channel. Send makes a
// single attempt; retrying is the Deliverer's job.
type Provider interface {
	Name() string
	Send(ctx context.Context, batch model.Batch) error
}

// StatusError is returned when an endpoint answers with a status code other
// than the one it signals success with.
type StatusError struct {
	Provider string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Provider, e.Code)
}
