package tpa

import (
	"context"
	"net/http"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

var iciciFields = []fieldMap{
	{"providerNo", "hospital_id"},
	{"providerName", "hospital_name"},
	{"address", "address"},
	{"cityname", "city"},
	{"statename", "state"},
	{"pincode", "pincode"},
	{"teleNo1", "phone"},
	{"rohiniId", "rohini_id"},
}

// ICICIAdapter fetches the whole ICICI Lombard network in one call. The
// OAuth token is obtained once for the run; there is no per-policy loop.
type ICICIAdapter struct {
	cfg       config.ICICIConfig
	gw        *gateway.Gateway
	snapshots repositories.HospitalSnapshotRepository
	tokens    providers.TokenProvider
	sink      audit.Sink
}

// NewICICIAdapter creates the ICICI adapter
func NewICICIAdapter(
	cfg config.ICICIConfig,
	gw *gateway.Gateway,
	snapshots repositories.HospitalSnapshotRepository,
	tokens providers.TokenProvider,
	sink audit.Sink,
) *ICICIAdapter {
	return &ICICIAdapter{cfg: cfg, gw: gw, snapshots: snapshots, tokens: tokens, sink: sink}
}

func (a *ICICIAdapter) Name() string    { return "icici" }
func (a *ICICIAdapter) Company() string { return "icici" }

// Run fetches the full network hospital list and replaces the snapshot
// table. A missing token skips the run without touching the table.
func (a *ICICIAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	token, err := a.tokens.Obtain(ctx)
	if err != nil || token == nil {
		logger.Warn().Err(err).Str("tpa", a.Name()).Msg("ICICI token not generated, skipping run")
		return result, nil
	}

	body, err := a.gw.Do(ctx, gateway.Request{
		Method: http.MethodGet,
		URL:    a.cfg.HospitalURL,
		Headers: map[string]string{
			// Token value already carries its type prefix ("Bearer ...").
			"Authorization": token.Value,
		},
	})
	a.sink.Record(a.Company(), "network_hospital", a.cfg.HospitalURL, body)
	if err != nil {
		logger.Warn().Err(err).Str("tpa", a.Name()).Msg("hospital fetch failed")
		result.Skipped++
		return result, nil
	}

	parsed, err := DecodeObject(body)
	if err != nil {
		logger.Warn().Err(err).Str("tpa", a.Name()).Msg("unparseable response")
		result.Skipped++
		return result, nil
	}

	list, ok := asArray(parsed["hospitalList"])
	if !ok {
		logger.Warn().Str("tpa", a.Name()).Msg("response missing hospitalList")
		result.Skipped++
		return result, nil
	}

	rows := make([]entities.HospitalRow, 0, len(list))
	for _, item := range list {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		rows = append(rows, mapRow(obj, iciciFields))
	}

	if err := a.snapshots.Replace(ctx, iciciTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
