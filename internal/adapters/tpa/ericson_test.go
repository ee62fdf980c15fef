package tpa_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

func TestEricsonAdapterPostsFormPerPolicy(t *testing.T) {
	var forms []url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		forms = append(forms, form)

		fmt.Fprint(w, `{"data":[{"HospitalId":"ER1","HospitalName":"Jupiter","City":"Thane","RohiniId":"R901"}]}`)
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 7, PolicyNumber: "P700", TPAID: tpa.TPAIDEricson},
		{ID: 8, PolicyNumber: "P800", TPAID: tpa.TPAIDEricson},
	}}
	snapshots := &memorySnapshots{}

	adapter := tpa.NewEricsonAdapter(
		config.EricsonConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, forms, 2)
	assert.Equal(t, "P700", forms[0].Get("policyNo"))
	assert.Equal(t, "P800", forms[1].Get("policyNo"))

	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Skipped)
	assert.Equal(t, "ericson_network_hospitals", snapshots.table)
	require.Len(t, snapshots.rows, 2)
	assert.Equal(t, "Jupiter", snapshots.rows[0]["hospital_name"])
	assert.Equal(t, "R901", snapshots.rows[0]["rohini_id"])
	assert.Equal(t, int64(7), snapshots.rows[0]["policy_id"])
	assert.Equal(t, int64(8), snapshots.rows[1]["policy_id"])
}

func TestEricsonAdapterSkipsPolicyOnMissingData(t *testing.T) {
	responses := map[string]string{
		"P1": `{"status":"no hospitals for policy"}`,
		"P2": `{"data":[{"HospitalId":"ER2","HospitalName":"Bethany"}]}`,
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		fmt.Fprint(w, responses[form.Get("policyNo")])
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDEricson},
		{ID: 2, PolicyNumber: "P2", TPAID: tpa.TPAIDEricson},
	}}
	snapshots := &memorySnapshots{}

	adapter := tpa.NewEricsonAdapter(
		config.EricsonConfig{HospitalURL: server.URL},
		gateway.New(),
		policies,
		snapshots,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, snapshots.rows, 1)
	assert.Equal(t, "Bethany", snapshots.rows[0]["hospital_name"])
}
