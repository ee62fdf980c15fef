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

func TestMediassistAdapterChecksSuccessFlag(t *testing.T) {
	responses := map[string]string{
		"P1": `{"isSuccess":true,"providerData":[{"hospitalId":"M1","hospitalName":"Manipal"}]}`,
		"P2": `{"isSuccess":false,"message":"policy not eligible"}`,
		"P3": `{"providerData":[{"hospitalId":"M9"}]}`, // missing flag counts as failure
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "static-token", r.Header.Get("Authorization"))

		var req map[string]string
		require.NoError(t, jsonDecode(r, &req))
		fmt.Fprint(w, responses[req["policyNumber"]])
	}))
	defer server.Close()

	policies := &stubPolicies{policies: []*entities.Policy{
		{ID: 1, PolicyNumber: "P1", TPAID: tpa.TPAIDMediassist},
		{ID: 2, PolicyNumber: "P2", TPAID: tpa.TPAIDMediassist},
		{ID: 3, PolicyNumber: "P3", TPAID: tpa.TPAIDMediassist},
	}}
	snapshots := &memorySnapshots{}

	adapter := tpa.NewMediassistAdapter(
		config.MediassistConfig{HospitalURL: server.URL, AuthToken: "static-token"},
		gateway.New(),
		policies,
		snapshots,
		audit.NopSink{},
	)

	result, err := adapter.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, snapshots.rows, 1)
	assert.Equal(t, "Manipal", snapshots.rows[0]["hospital_name"])
	assert.Equal(t, int64(1), snapshots.rows[0]["policy_id"])
}
