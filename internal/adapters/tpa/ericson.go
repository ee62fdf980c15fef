package tpa

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

var ericsonFields = []fieldMap{
	{"HospitalId", "hospital_id"},
	{"HospitalName", "hospital_name"},
	{"Address", "address"},
	{"City", "city"},
	{"State", "state"},
	{"PinCode", "pincode"},
	{"ContactNo", "phone"},
	{"Email", "email"},
	{"RohiniId", "rohini_id"},
}

// EricsonAdapter posts form-encoded requests to Ericson's legacy .asmx
// service. No credential is required.
type EricsonAdapter struct {
	cfg       config.EricsonConfig
	gw        *gateway.Gateway
	policies  repositories.PolicyRepository
	snapshots repositories.HospitalSnapshotRepository
	sink      audit.Sink
}

// NewEricsonAdapter creates the Ericson adapter
func NewEricsonAdapter(
	cfg config.EricsonConfig,
	gw *gateway.Gateway,
	policies repositories.PolicyRepository,
	snapshots repositories.HospitalSnapshotRepository,
	sink audit.Sink,
) *EricsonAdapter {
	return &EricsonAdapter{cfg: cfg, gw: gw, policies: policies, snapshots: snapshots, sink: sink}
}

func (a *EricsonAdapter) Name() string    { return "ericson" }
func (a *EricsonAdapter) Company() string { return "ericson" }

// Run fetches hospitals for every active Ericson policy and replaces the
// snapshot table.
func (a *EricsonAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	policies, err := a.policies.ListActiveByTPA(ctx, TPAIDEricson)
	if err != nil {
		return result, err
	}

	rows := []entities.HospitalRow{}

	for _, policy := range policies {
		form := url.Values{"policyNo": {policy.PolicyNumber}}.Encode()

		body, err := a.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			URL:    a.cfg.HospitalURL,
			Headers: map[string]string{
				"Content-Type": "application/x-www-form-urlencoded",
			},
			Body: []byte(form),
		})
		a.sink.Record(a.Company(), "policy "+policy.PolicyNumber, form, body)
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

		list, ok := asArray(parsed["data"])
		if !ok {
			logger.Warn().Str("tpa", a.Name()).Str("policy", policy.PolicyNumber).Msg("response missing data list")
			result.Skipped++
			continue
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			row := mapRow(obj, ericsonFields)
			row["policy_id"] = policy.ID
			rows = append(rows, row)
		}
	}

	if err := a.snapshots.Replace(ctx, ericsonTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
