package tpa

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/repositories"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/observability"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

var careFields = []fieldMap{
	{"hospitalCode", "hospital_id"},
	{"hospitalName", "hospital_name"},
	{"address1", "address1"},
	{"address2", "address2"},
	{"city", "city"},
	{"state", "state"},
	{"pinCode", "pincode"},
	{"phone1", "phone"},
	{"rohiniId", "rohini_id"},
	{"latitude", "latitude"},
	{"longitude", "longitude"},
}

// CareAdapter pages through the full Care network rather than iterating
// policies. The partner gateway expires its session+token pair quickly, so a
// fresh credential is obtained for every page. The loop stops on the first
// empty page; maxPages is a safety cap against an API that never empties.
type CareAdapter struct {
	cfg       config.CareConfig
	gw        *gateway.Gateway
	snapshots repositories.HospitalSnapshotRepository
	tokens    providers.TokenProvider
	sink      audit.Sink
	pageDelay time.Duration
	maxPages  int
}

// NewCareAdapter creates the Care adapter
func NewCareAdapter(
	cfg config.CareConfig,
	gw *gateway.Gateway,
	snapshots repositories.HospitalSnapshotRepository,
	tokens providers.TokenProvider,
	sink audit.Sink,
	pageDelay time.Duration,
	maxPages int,
) *CareAdapter {
	if maxPages <= 0 {
		maxPages = 500
	}
	return &CareAdapter{
		cfg:       cfg,
		gw:        gw,
		snapshots: snapshots,
		tokens:    tokens,
		sink:      sink,
		pageDelay: pageDelay,
		maxPages:  maxPages,
	}
}

func (a *CareAdapter) Name() string    { return "care" }
func (a *CareAdapter) Company() string { return "care" }

// Run pages through the Care network list and replaces the snapshot table.
func (a *CareAdapter) Run(ctx context.Context) (entities.RunResult, error) {
	logger := observability.LoggerFromContext(ctx)
	result := entities.RunResult{}

	rows := []entities.HospitalRow{}

	// The snapshot is only replaced when the loop reaches its documented
	// terminator (empty page) or the safety cap. A token or fetch failure
	// mid-run leaves the previous snapshot in place.
	complete := false

	for page := 1; page <= a.maxPages; page++ {
		token, err := a.tokens.Obtain(ctx)
		if err != nil || token == nil {
			logger.Warn().Err(err).Str("tpa", a.Name()).Int("page", page).Msg("Care token not generated, keeping previous snapshot")
			break
		}

		payload, err := json.Marshal(map[string]interface{}{
			"networkHospitalIO": map[string]interface{}{
				"pageNo":   page,
				"pageSize": a.cfg.PageSize,
			},
		})
		if err != nil {
			return result, err
		}

		body, err := a.gw.Do(ctx, gateway.Request{
			Method: http.MethodPost,
			URL:    a.cfg.HospitalURL,
			Headers: map[string]string{
				"Content-Type":  "application/json",
				"Authorization": token.Value,
				"X-Session-Id":  token.SessionID,
			},
			Body: payload,
		})
		a.sink.Record(a.Company(), "page "+strconv.Itoa(page), string(payload), body)
		if err != nil {
			logger.Warn().Err(err).Str("tpa", a.Name()).Int("page", page).Msg("page fetch failed, keeping previous snapshot")
			break
		}

		parsed, err := DecodeObject(body)
		if err != nil {
			logger.Warn().Err(err).Str("tpa", a.Name()).Int("page", page).Msg("unparseable page, keeping previous snapshot")
			break
		}

		data, ok := dig(parsed, "networkHospitalIO", "networkHospitalResponse", "data")
		if !ok {
			// An absent list is the terminator the partner API documents.
			complete = true
			break
		}
		list, ok := asArray(data)
		if !ok || len(list) == 0 {
			complete = true
			break
		}

		for _, item := range list {
			obj, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			rows = append(rows, mapRow(obj, careFields))
		}

		if page == a.maxPages {
			logger.Warn().Str("tpa", a.Name()).Int("max_pages", a.maxPages).Msg("page cap reached before empty page")
			complete = true
		}

		if a.pageDelay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(a.pageDelay):
			}
		}
	}

	if !complete {
		return result, nil
	}

	if err := a.snapshots.Replace(ctx, careTable, rows); err != nil {
		return result, err
	}
	result.Inserted = len(rows)
	return result, nil
}
