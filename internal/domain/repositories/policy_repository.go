package repositories

import (
	"context"
	"time"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
)

// PolicyRepository defines read access to policy_master plus the single bulk
// mutation the sync core performs.
type PolicyRepository interface {
	// ListActiveByTPA returns active policies routed to the given TPA.
	ListActiveByTPA(ctx context.Context, tpaID int) ([]*entities.Policy, error)

	// ListExpired returns policies still flagged active whose end date has
	// passed as of the given instant.
	ListExpired(ctx context.Context, asOf time.Time) ([]*entities.Policy, error)

	// DeactivateExpired bulk-clears is_active on expired policies and returns
	// the number of rows touched. Must run before any adapter.
	DeactivateExpired(ctx context.Context, asOf time.Time) (int64, error)
}
