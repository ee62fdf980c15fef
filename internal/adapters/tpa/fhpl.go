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

var fhplFields = []fieldMap{
	{"HospitalID", "hospital_id"},
	{"HospitalName", "hospital_name"},
	{"Address", "address"},
	{"City", "city"},
	{"State", "state"},
	{"PinCode", "pincode"},
	{"Phone", "phone"},
	{"Rohini_ID", "rohini_id"},
}

// FHPLAdapter fetches the FHPL directory per policy. Their token endpoint
// invalidates tokens aggressively, so a fresh bearer token is obtained inside
// the policy loop rather than once per run.
type FHPLAdapter struct {
	cfg       config.FHPLConfig
	gw        *gateway.Gateway
	policies  repositories.PolicyRepository
	snapshots repositories.HospitalSnapshotRepository
	tokens    providers.TokenProvider
	sink      audit.Sink
}

// NewFHPLAdapter creates the FHPL adapter
func NewFHPLAdapter(
	cfg config.FHPLConfig,
	gw *gateway.Gateway,
	policies repositories.PolicyRepository,
	snapshots repositories.HospitalSnapshotRepository,
	tokens providers.TokenProvider,
	sink audit.Sink,
) *FHPLAdapter {
	return &FHPLAdapter{cfg: cfg, gw: gw, policies: policies, snapshots: snapshots, tokens: tokens, sink: sink}
}

func (a *FHPLAdapter) Name() string    { return "fhpl" }
func (a *FHPLAdapter) Company() string { return "fhpl" }

// Run fetches hospitals for every active FHPL policy and replaces the
// snapshot table. A failed token fetch stops the run and leaves the
// previous snapshot in place.
func (a *FHPLAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	policies, err := a.policies.ListActiveByTPA(ctx, TPAIDFHPL)
	if err != nil {
		return result, err
	}

	rows := []entities.HospitalRow{}

	// A token failure aborts the run without replacing the snapshot, so
	// the previous directory survives a broken login endpoint.
	complete := true

	for _, policy := range policies {
		token, err := a.tokens.Obtain(ctx)
		if err != nil || token == nil {
			logger.Warn().Err(err).Str("tpa", a.Name()).Msg("FHPL token not generated, keeping previous snapshot")
			complete = false
			break
		}

		payload, err := json.Marshal(map[string]string{"policyNumber": policy.PolicyNumber})
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

		list, ok := asArray(parsed["Table1"])
		if !ok {
			logger.Warn().Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("response missing Table1")
			result.Skipped++
			continue
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			row := mapRow(obj, fhplFields)
			row["policy_id"] = policy.ID
			rows = append(rows, row)
		}
	}

	if !complete {
		return result, nil
	}

	if err := a.snapshots.Replace(ctx, fhplTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
