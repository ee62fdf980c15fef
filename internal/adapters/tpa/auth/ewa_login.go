// Package auth implements the per-TPA credential protocols. Each provider
// returns a nil token (with a nil error) when the endpoint answered but
// issued no credential; the calling adapter skips its whole run on nil.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

// EWALoginProvider obtains a bearer token by posting JSON credentials to the
// EWA login endpoint. The response may carry the same guard prefix as the
// hospital endpoints.
type EWALoginProvider struct {
	cfg config.EWAConfig
	gw  *gateway.Gateway
}

// NewEWALoginProvider creates the EWA token provider
func NewEWALoginProvider(cfg config.EWAConfig, gw *gateway.Gateway) providers.TokenProvider {
	return &EWALoginProvider{cfg: cfg, gw: gw}
}

// Obtain posts the login and extracts accessToken. Missing token yields nil.
func (p *EWALoginProvider) Obtain(ctx context.Context) (*entities.AccessToken, error) {
	payload, err := json.Marshal(map[string]string{
		"username": p.cfg.Username,
		"password": p.cfg.Password,
	})
	if err != nil {
		return nil, err
	}

	body, err := p.gw.Do(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     p.cfg.LoginURL,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payload,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := tpa.DecodeObject(body)
	if err != nil {
		return nil, err
	}

	token, ok := parsed["accessToken"].(string)
	if !ok || token == "" {
		return nil, nil
	}

	return &entities.AccessToken{Value: token}, nil
}
