package tpa

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

var safewayFields = []fieldMap{
	{"HOSPITAL_ID", "hospital_id"},
	{"HOSPITAL_NAME", "hospital_name"},
	{"ADDRESS_1", "address1"},
	{"ADDRESS_2", "address2"},
	{"CITY", "city"},
	{"STATE", "state"},
	{"PINCODE", "pincode"},
	{"TELEPHONE", "phone"},
	{"ROHINI_ID", "rohini_id"},
}

// safewayInsurerName maps internal insurer ids to the literal insurer name
// strings the Safeway API matches on.
func safewayInsurerName(insurerID int) (string, bool) {
	switch insurerID {
	case 1:
		return "NATIONAL INSURANCE CO. LTD.", true
	case 2:
		return "UNITED INDIA INSURANCE CO. LTD.", true
	case 3:
		return "THE ORIENTAL INSURANCE CO. LTD.", true
	case 4:
		return "THE NEW INDIA ASSURANCE CO. LTD.", true
	default:
		return "", false
	}
}

// SafewayAdapter fetches the Safeway directory per policy with a static auth
// header. Responses carry the same guard prefix as EWA's gateway.
type SafewayAdapter struct {
	cfg       config.SafewayConfig
	gw        *gateway.Gateway
	policies  repositories.PolicyRepository
	snapshots repositories.HospitalSnapshotRepository
	sink      audit.Sink
}

// NewSafewayAdapter creates the Safeway adapter
func NewSafewayAdapter(
	cfg config.SafewayConfig,
	gw *gateway.Gateway,
	policies repositories.PolicyRepository,
	snapshots repositories.HospitalSnapshotRepository,
	sink audit.Sink,
) *SafewayAdapter {
	return &SafewayAdapter{cfg: cfg, gw: gw, policies: policies, snapshots: snapshots, sink: sink}
}

func (a *SafewayAdapter) Name() string    { return "safeway" }
func (a *SafewayAdapter) Company() string { return "safeway" }

// Run fetches hospitals for every active Safeway policy and replaces the
// snapshot table.
func (a *SafewayAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	policies, err := a.policies.ListActiveByTPA(ctx, TPAIDSafeway)
	if err != nil {
		return result, err
	}

	rows := []entities.HospitalRow{}

	for _, policy := range policies {
		insurerName, ok := safewayInsurerName(policy.InsurerID)
		if !ok {
			logger.Warn().
				Str("tpa", a.Name()).
				Str("policy", policy.PolicyNumber).
				Int("ins_id", policy.InsurerID).
				Msg("no insurer mapping, skipping policy")
			result.Skipped++
			continue
		}

		payload, err := json.Marshal(map[string]string{
			"policyNo":    policy.PolicyNumber,
			"insurerName": insurerName,
		})
		if err != nil {
			return result, err
		}

		body, err := a.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			URL:    a.cfg.HospitalURL,
			Headers: map[string]string{
				"Content-Type": "application/json",
				"AuthKey":      a.cfg.AuthKey,
			},
			Body: payload,
		})
		a.sink.Record(a.Company(), "policy "+policy.PolicyNumber, string(payload), body)
		if err != nil {
			logger.Warn().Err(err).Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("hospital fetch failed")
			result.Skipped++
			continue
		}

		parsed, err := DecodeObject(body)
		if err != nil {
			logger.Warn().Err(err).Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("unparseable response")
			result.Skipped++
			continue
		}

		list, ok := asArray(parsed["HospitalList1"])
		if !ok {
			logger.Warn().Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("response missing HospitalList1")
			result.Skipped++
			continue
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			row := mapRow(obj, safewayFields)
			row["policy_id"] = policy.ID
			rows = append(rows, row)
		}
	}

	if err := a.snapshots.Replace(ctx, safewayTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
