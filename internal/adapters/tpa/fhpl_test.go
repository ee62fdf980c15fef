package tpa_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

// expiringTokens serves a fixed number of tokens, then nil.
type expiringTokens struct {
	remaining int
	calls     int
}

func (e *expiringTokens) Obtain(ctx context.Context) (*entities.AccessToken, error) {
	e.calls++
	if e.remaining <= 0 {
		return nil, nil
	}
	e.remaining--
	return &entities.AccessToken{Value: fmt.Sprintf("tok-%d", e.calls)}, nil
}

func TestFHPLAdapterRefetchesTokenPerPolicy(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"Table1":[{"HospitalID":"F1","HospitalName":"KIMS"}]}`)
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDFHPL},
		{ID: 2, PolicyNumber: "P2", TPAID: tpa.TPAIDFHPL},
	}}
	snapshots := &memorySnapshots{}
	tokens := &expiringTokens{remaining: 2}

	adapter := tpa.NewFHPLAdapter(
		config.FHPLConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		tokens,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	// One fresh token per policy.
	assert.Equal(t, 2, tokens.calls)
	assert.Equal(t, []string{"Bearer tok-1", "Bearer tok-2"}, authHeaders)
	assert.Equal(t, 2, result.Inserted)
}

func TestFHPLAdapterTokenFailureKeepsPreviousSnapshot(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"Table1":[{"HospitalID":"F1","HospitalName":"KIMS"}]}`)
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDFHPL},
		{ID: 2, PolicyNumber: "P2", TPAID: tpa.TPAIDFHPL},
		{ID: 3, PolicyNumber: "P3", TPAID: tpa.TPAIDFHPL},
	}}
	snapshots := &memorySnapshots{}
	tokens := &expiringTokens{remaining: 1}

	adapter := tpa.NewFHPLAdapter(
		config.FHPLConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		tokens,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	// The run stops at the first missing token; the partial rows are
	// discarded and the destination table is untouched.
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, snapshots.calls)
}

func TestFHPLAdapterMissingTokenMakesNoCalls(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDFHPL},
	}}
	snapshots := &memorySnapshots{}
	tokens := &expiringTokens{remaining: 0}

	adapter := tpa.NewFHPLAdapter(
		config.FHPLConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		tokens,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 0, snapshots.calls)
}
