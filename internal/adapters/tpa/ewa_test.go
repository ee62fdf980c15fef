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

func TestEWAAdapterSkipsUnmappedInsurer(t *testing.T) {
	var requests []map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, jsonDecode(r, &req))
		requests = append(requests, req)

		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		// Guard-prefixed response, as the EWA gateway sends.
		fmt.Fprint(w, `)]}',{"body":[{"hospitalId":"E1","hospitalName":"Max"}]}`)
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDEWA, InsurerID: 2},
		{ID: 2, PolicyNumber: "P2", TPAID: tpa.TPAIDEWA, InsurerID: 9}, // no mapping
	}}
	snapshots := &memorySnapshots{}
	tokens := &staticTokens{token: &entities.AccessToken{Value: "tok"}}

	adapter := tpa.NewEWAAdapter(
		config.EWAConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		tokens,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	// The unmapped insurer never reaches the wire.
	require.Len(t, requests, 1)
	assert.Equal(t, "P1", requests[0]["policyNumber"])
	assert.Equal(t, "UIIC", requests[0]["insurerCode"])

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, snapshots.rows, 1)
	assert.Equal(t, "Max", snapshots.rows[0]["hospital_name"])
	assert.Equal(t, int64(1), snapshots.rows[0]["policy_id"])
}

func TestEWAAdapterSkipsPolicyOnNullBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `)]}',{"body":null}`)
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDEWA, InsurerID: 1},
	}}
	snapshots := &memorySnapshots{}
	tokens := &staticTokens{token: &entities.AccessToken{Value: "tok"}}

	adapter := tpa.NewEWAAdapter(
		config.EWAConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		tokens,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	// A null body is skipped like a missing one, not treated as empty data.
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 1, snapshots.calls)
	assert.Empty(t, snapshots.rows)
}

func TestEWAAdapterSkipsRunWithoutToken(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDEWA, InsurerID: 1},
	}}
	snapshots := &memorySnapshots{}
	tokens := &staticTokens{token: nil}

	adapter := tpa.NewEWAAdapter(
		config.EWAConfig{HospitalURL: server.URL},
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
	// A skipped run leaves the previous snapshot untouched.
	assert.Equal(t, 0, snapshots.calls)
}
