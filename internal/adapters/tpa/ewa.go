package tpa

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

var ewaFields = []fieldMap{
	{"hospitalId", "hospital_id"},
	{"hospitalName", "hospital_name"},
	{"address1", "address1"},
	{"address2", "address2"},
	{"cityName", "city"},
	{"stateName", "state"},
	{"pinCode", "pincode"},
	{"mobileNo", "phone"},
	{"rohiniId", "rohini_id"},
}

// ewaInsurerCode maps internal insurer ids to the code strings the EWA API
// expects. The mapping is fixed; an unmapped insurer skips that policy with
// a warning, never an error.
func ewaInsurerCode(insurerID int) (string, bool) {
	switch insurerID {
	case 1:
		return "NIA", true
	case 2:
		return "UIIC", true
	case 3:
		return "OICL", true
	case 4:
		return "NICL", true
	default:
		return "", false
	}
}

// EWAAdapter fetches the EWA directory per policy with a bearer token from
// the login endpoint. EWA's gateway prefixes responses with an anti-hijack
// guard sequence that must be stripped before decoding.
type EWAAdapter struct {
	cfg       config.EWAConfig
	gw        *gateway.Gateway
	policies  repositories.PolicyRepository
	snapshots repositories.HospitalSnapshotRepository
	tokens    providers.TokenProvider
	sink      audit.Sink
}

// NewEWAAdapter creates the EWA adapter
func NewEWAAdapter(
	cfg config.EWAConfig,
	gw *gateway.Gateway,
	policies repositories.PolicyRepository,
	snapshots repositories.HospitalSnapshotRepository,
	tokens providers.TokenProvider,
	sink audit.Sink,
) *EWAAdapter {
	return &EWAAdapter{cfg: cfg, gw: gw, policies: policies, snapshots: snapshots, tokens: tokens, sink: sink}
}

func (a *EWAAdapter) Name() string    { return "ewa" }
func (a *EWAAdapter) Company() string { return "ewa" }

// Run fetches hospitals for every active EWA policy and replaces the
// snapshot table. A missing login token skips the whole run.
func (a *EWAAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	token, err := a.tokens.Obtain(ctx)
	if err != nil || token == nil {
		logger.Warn().Err(err).Str("tpa", a.Name()).Msg("EWA token not generated, skipping run")
		return result, nil
	}

	policies, err := a.policies.ListActiveByTPA(ctx, TPAIDEWA)
	if err != nil {
		return result, err
	}

	rows := []entities.HospitalRow{}

	for _, policy := range policies {
		insurerCode, ok := ewaInsurerCode(policy.InsurerID)
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
			"policyNumber": policy.PolicyNumber,
			"insurerCode":  insurerCode,
		})
		if err != nil {
			return result, err
		}

		body, err := a.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			URL:    a.cfg.HospitalURL,
			Headers: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Bearer " + token.Value,
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

		list, ok := asArray(parsed["body"])
		if !ok {
			// Distinguish an absent body key from a present-but-null one;
			// both skip the policy.
			msg := "response missing body list"
			if _, present := parsed["body"]; present {
				msg = "body present but not a list"
			}
			logger.Warn().Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg(msg)
			result.Skipped++
			continue
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			row := mapRow(obj, ewaFields)
			row["policy_id"] = policy.ID
			rows = append(rows, row)
		}
	}

	if err := a.snapshots.Replace(ctx, ewaTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
