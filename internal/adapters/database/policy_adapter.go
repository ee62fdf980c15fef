package database

import (
	"context"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/clients/postgres"
	apperrors "github.com/zoomconnect/tpa-hospital-sync/pkg/errors"
)

const policyTable = "policy_master"

// PolicyAdapter implements PolicyRepository over policy_master
type PolicyAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewPolicyAdapter creates a new policy adapter
func NewPolicyAdapter(client *postgres.Client) repositories.PolicyRepository {
	return &PolicyAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// ListActiveByTPA returns active policies routed to the given TPA
func (a *PolicyAdapter) ListActiveByTPA(ctx context.Context, tpaID int) ([]*entities.Policy, error) {
	query, args, err := a.db.Select(
		"id", "policy_number", "tpa_id", "ins_id", "is_active", "policy_end_date",
	).From(policyTable).
		Where(goqu.Ex{"tpa_id": tpaID, "is_active": true}).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build policy query", err)
	}

	return a.scanPolicies(ctx, query, args)
}

// ListExpired returns active policies whose end date has passed
func (a *PolicyAdapter) ListExpired(ctx context.Context, asOf time.Time) ([]*entities.Policy, error) {
	query, args, err := a.db.Select(
		"id", "policy_number", "tpa_id", "ins_id", "is_active", "policy_end_date",
	).From(policyTable).
		Where(goqu.Ex{"is_active": true}).
		Where(goqu.I("policy_end_date").Lt(asOf)).
		Order(goqu.I("id").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build expired-policy query", err)
	}

	return a.scanPolicies(ctx, query, args)
}

// DeactivateExpired bulk-clears is_active on expired policies
func (a *PolicyAdapter) DeactivateExpired(ctx context.Context, asOf time.Time) (int64, error) {
	query, args, err := a.db.Update(policyTable).
		Set(goqu.Record{"is_active": false}).
		Where(goqu.Ex{"is_active": true}).
		Where(goqu.I("policy_end_date").Lt(asOf)).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build deactivation query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to deactivate expired policies", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}

	return rowsAffected, nil
}

func (a *PolicyAdapter) scanPolicies(ctx context.Context, query string, args []interface{}) ([]*entities.Policy, error) {
	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list policies", err)
	}
	defer rows.Close()

	var policies []*entities.Policy
	for rows.Next() {
		policy := &entities.Policy{}
		err := rows.Scan(
			&policy.ID,
			&policy.PolicyNumber,
			&policy.TPAID,
			&policy.InsurerID,
			&policy.IsActive,
			&policy.PolicyEndDate,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan policy", err)
		}
		policies = append(policies, policy)
	}

	return policies, rows.Err()
}
