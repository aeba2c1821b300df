package port

import (
	"context"

	"payops/internal/domain"
)

// Notifier delivers operator notifications. Delivery is best effort; callers log and move on.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
