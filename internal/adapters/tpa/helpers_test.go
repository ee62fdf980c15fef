package tpa_test

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
)

func jsonDecode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// stubPolicies serves a fixed policy list.
type stubPolicies struct {
	policies []*entities.Policy
	err      error
}

func (s *stubPolicies) ListActiveByTPA(ctx context.Context, tpaID int) ([]*entities.Policy, error) {
	return s.policies, s.err
}

func (s *stubPolicies) ListExpired(ctx context.Context, asOf time.Time) ([]*entities.Policy, error) {
	return nil, s.err
}

func (s *stubPolicies) DeactivateExpired(ctx context.Context, asOf time.Time) (int64, error) {
	return 0, s.err
}

// memorySnapshots records the last Replace call.
type memorySnapshots struct {
	table string
	rows  []entities.HospitalRow
	calls int
	err   error
}

func (m *memorySnapshots) Replace(ctx context.Context, table string, rows []entities.HospitalRow) error {
	m.calls++
	m.table = table
	m.rows = rows
	return m.err
}

// staticTokens returns a fixed token (or nil) and counts calls.
type staticTokens struct {
	token *entities.AccessToken
	err   error
	calls int
}

func (s *staticTokens) Obtain(ctx context.Context) (*entities.AccessToken, error) {
	s.calls++
	return s.token, s.err
}
