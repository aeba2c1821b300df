package port

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionStore keeps short-lived wizard state between requests.
// Values are JSON encoded; Load returns domain.ErrSessionNotFound for missing or expired keys.
type SessionStore interface {
	Save(ctx context.Context, kind string, id uuid.UUID, value any, ttl time.Duration) error
	Load(ctx context.Context, kind string, id uuid.UUID, dst any) error
	Delete(ctx context.Context, kind string, id uuid.UUID) error
}
