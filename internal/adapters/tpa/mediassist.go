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

var mediassistFields = []fieldMap{
	{"hospitalID", "hospital_id"},
	{"hospitalName", "hospital_name"},
	{"addressLine1", "address1"},
	{"addressLine2", "address2"},
	{"city", "city"},
	{"state", "state"},
	{"pincode", "pincode"},
	{"contactNumber", "phone"},
	{"rohinI_CODE", "rohini_code"},
	{"latitude", "latitude"},
	{"longitude", "longitude"},
	{"isActive", "is_active"},
}

// MediassistAdapter fetches the Mediassist provider directory per policy
// using a static authorization header. The response carries a two-stage
// success shape: an isSuccess flag, then the providerData list.
type MediassistAdapter struct {
	cfg       config.MediassistConfig
	gw        *gateway.Gateway
	policies  repositories.PolicyRepository
	snapshots repositories.HospitalSnapshotRepository
	sink      audit.Sink
}

// NewMediassistAdapter creates the Mediassist adapter
func NewMediassistAdapter(
	cfg config.MediassistConfig,
	gw *gateway.Gateway,
	policies repositories.PolicyRepository,
	snapshots repositories.HospitalSnapshotRepository,
	sink audit.Sink,
) *MediassistAdapter {
	return &MediassistAdapter{cfg: cfg, gw: gw, policies: policies, snapshots: snapshots, sink: sink}
}

func (a *MediassistAdapter) Name() string    { return "mediassist" }
func (a *MediassistAdapter) Company() string { return "mediassist" }

// Run fetches hospitals for every active Mediassist policy and replaces the
// snapshot table.
func (a *MediassistAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	policies, err := a.policies.ListActiveByTPA(ctx, TPAIDMediassist)
	if err != nil {
		return result, err
	}

	rows := []entities.HospitalRow{}

	for _, policy := range policies {
		payload, err := json.Marshal(map[string]string{"policyNumber": policy.PolicyNumber})
		if err != nil {
			return result, err
		}

		body, err := a.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			URL:    a.cfg.HospitalURL,
			Headers: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": a.cfg.AuthToken,
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

		if success, ok := parsed["isSuccess"].(bool); !ok || !success {
			logger.Warn().
				Str("tpa", a.Name()).
				Str("policy", policy.PolicyNumber).
				Str("message", stringValue(parsed["message"])).
				Msg("api reported failure")
			result.Skipped++
			continue
		}

		list, ok := asArray(parsed["providerData"])
		if !ok {
			logger.Warn().Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("response missing providerData list")
			result.Skipped++
			continue
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			row := mapRow(obj, mediassistFields)
			row["policy_id"] = policy.ID
			rows = append(rows, row)
		}
	}

	if err := a.snapshots.Replace(ctx, mediassistTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
