package port

import (
	"context"

	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/domain/event"
)

// Notifier shows a synchronous warning to the user
type Notifier interface {
	Warn(ctx context.Context, message string)
	// ClearFileInput empties the receipt input of the form
	ClearFileInput(ctx context.Context)
}

// Navigator moves the user to another view
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// ErrorReporter receives remote failures with the original error
type ErrorReporter interface {
	Report(ctx context.Context, err error)
}

// SessionProvider gives read-only access to the current employee
type SessionProvider interface {
	CurrentUser(ctx context.Context) (*entity.User, error)
}

// EventPublisher is told about submission milestones. Publishing never fails the caller.
type EventPublisher interface {
	Publish(ctx context.Context, evt *event.Event)
}
