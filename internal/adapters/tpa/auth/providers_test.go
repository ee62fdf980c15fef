package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

func jsonDecode(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// recordingSink captures audit records for assertions.
type recordingSink struct {
	companies []string
	labels    []string
	requests  []string
	responses []string
}

func (s *recordingSink) Record(company, label, request, response string) {
	s.companies = append(s.companies, company)
	s.labels = append(s.labels, label)
	s.requests = append(s.requests, request)
	s.responses = append(s.responses, response)
}

func TestEWALoginProviderObtain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, jsonDecode(r, &req))
		assert.Equal(t, "ewa-user", req["username"])
		assert.Equal(t, "ewa-pass", req["password"])

		// EWA's login endpoint guards its response too.
		fmt.Fprint(w, `)]}',{"accessToken":"ewa-token"}`)
	}))
	defer server.Close()

	provider := NewEWALoginProvider(config.EWAConfig{
		LoginURL: server.URL,
		Username: "ewa-user",
		Password: "ewa-pass",
	}, gateway.New())

	token, err := provider.Obtain(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "ewa-token", token.Value)
}

func TestEWALoginProviderMissingTokenYieldsNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"message":"invalid credentials"}`)
	}))
	defer server.Close()

	provider := NewEWALoginProvider(config.EWAConfig{LoginURL: server.URL}, gateway.New())

	token, err := provider.Obtain(context.Background())
	require.NoError(t, err)
	assert.Nil(t, token)
}

func TestICICIOAuthProviderObtain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)

		assert.Equal(t, "password", form.Get("grant_type"))
		assert.Equal(t, "icici-user", form.Get("username"))
		assert.Equal(t, "client-1", form.Get("client_id"))
		assert.Equal(t, "esbnetworkhospitals", form.Get("scope"))

		fmt.Fprint(w, `{"token_type":"Bearer","access_token":"abc123"}`)
	}))
	defer server.Close()

	provider := NewICICIOAuthProvider(config.ICICIConfig{
		TokenURL: server.URL,
		Username: "icici-user",
		ClientID: "client-1",
		Scope:    "esbnetworkhospitals",
	}, gateway.New())

	token, err := provider.Obtain(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	// The usable credential carries its type prefix.
	assert.Equal(t, "Bearer abc123", token.Value)
}

func TestICICIOAuthProviderPartialGrantYieldsNil(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing access_token", `{"token_type":"Bearer"}`},
		{"missing token_type", `{"access_token":"abc123"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			provider := NewICICIOAuthProvider(config.ICICIConfig{TokenURL: server.URL}, gateway.New())

			token, err := provider.Obtain(context.Background())
			require.NoError(t, err)
			assert.Nil(t, token)
		})
	}
}

func TestFHPLLoginProviderAuditsEveryExchange(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":"invalid_grant"}`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	provider := NewFHPLLoginProvider(config.FHPLConfig{
		TokenURL: server.URL,
		Username: "fhpl-user",
		Password: "fhpl-pass",
	}, gateway.New(), sink)

	token, err := provider.Obtain(context.Background())
	require.NoError(t, err)
	assert.Nil(t, token)

	// The failed exchange is still recorded.
	require.Len(t, sink.labels, 1)
	assert.Equal(t, "fhpl", sink.companies[0])
	assert.Equal(t, "token", sink.labels[0])
	assert.Contains(t, sink.responses[0], "invalid_grant")
}

func TestFHPLLoginProviderObtain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(raw))
		require.NoError(t, err)
		assert.Equal(t, "password", form.Get("grant_type"))

		fmt.Fprint(w, `{"access_token":"fhpl-token"}`)
	}))
	defer server.Close()

	sink := &recordingSink{}
	provider := NewFHPLLoginProvider(config.FHPLConfig{TokenURL: server.URL}, gateway.New(), sink)

	token, err := provider.Obtain(context.Background())
	require.NoError(t, err)
	require.NotNil(t, token)
	assert.Equal(t, "fhpl-token", token.Value)
	assert.Len(t, sink.labels, 1)
}
