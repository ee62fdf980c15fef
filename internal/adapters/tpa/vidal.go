package tpa

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

var vidalFields = []fieldMap{
	{"HOSPITALID", "hospital_id"},
	{"HOSPITALNAME", "hospital_name"},
	{"ADDRESS1", "address1"},
	{"ADDRESS2", "address2"},
	{"CITYNAME", "city"},
	{"STATENAME", "state"},
	{"PINCODE", "pincode"},
	{"PHONENO", "phone"},
	{"EMAILID", "email"},
	{"ROHINIID", "rohini_id"},
	{"LATITUDE", "latitude"},
	{"LONGITUDE", "longitude"},
}

// VidalAdapter fetches the Vidal Health directory per policy with basic auth
// and a static API key header.
type VidalAdapter struct {
	cfg       config.VidalConfig
	gw        *gateway.Gateway
	policies  repositories.PolicyRepository
	snapshots repositories.HospitalSnapshotRepository
	sink      audit.Sink
}

// NewVidalAdapter creates the Vidal adapter
func NewVidalAdapter(
	cfg config.VidalConfig,
	gw *gateway.Gateway,
	policies repositories.PolicyRepository,
	snapshots repositories.HospitalSnapshotRepository,
	sink audit.Sink,
) *VidalAdapter {
	return &VidalAdapter{cfg: cfg, gw: gw, policies: policies, snapshots: snapshots, sink: sink}
}

func (a *VidalAdapter) Name() string    { return "vidal" }
func (a *VidalAdapter) Company() string { return "vidal" }

// Run fetches hospitals for every active Vidal policy and replaces the
// snapshot table.
func (a *VidalAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	policies, err := a.policies.ListActiveByTPA(ctx, TPAIDVidal)
	if err != nil {
		return result, err
	}

	basic := base64.StdEncoding.EncodeToString([]byte(a.cfg.Username + ":" + a.cfg.Password))
	rows := []entities.HospitalRow{}

	for _, policy := range policies {
		payload, err := json.Marshal(map[string]string{"POLICYNUMBER": policy.PolicyNumber})
		if err != nil {
			return result, err
		}

		body, err := a.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			URL:    a.cfg.HospitalURL,
			Headers: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": "Basic " + basic,
				"X-Api-Key":     a.cfg.APIKey,
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

		list, ok := asArray(parsed["Result"])
		if !ok {
			logger.Warn().Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("response missing Result list")
			result.Skipped++
			continue
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			row := mapRow(obj, vidalFields)
			row["policy_id"] = policy.ID
			rows = append(rows, row)
		}
	}

	if err := a.snapshots.Replace(ctx, vidalTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
