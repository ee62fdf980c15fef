package providers

import (
	"context"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
)

// TokenProvider obtains the ephemeral credential a TPA API requires. A nil
// token with a nil error means the endpoint answered but issued no credential;
// the calling adapter must skip its entire run with a warning rather than
// retry or crash the orchestrator.
type TokenProvider interface {
	Obtain(ctx context.Context) (*entities.AccessToken, error)
}
