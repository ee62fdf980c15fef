package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/audit"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

// FHPLLoginProvider obtains a bearer token from FHPL's form login endpoint.
// Every exchange is audit-logged regardless of outcome because FHPL support
// asks for the raw login trace when investigating sync gaps.
type FHPLLoginProvider struct {
	cfg  config.FHPLConfig
	gw   *gateway.Gateway
	sink audit.Sink
}

// NewFHPLLoginProvider creates the FHPL token provider
func NewFHPLLoginProvider(cfg config.FHPLConfig, gw *gateway.Gateway, sink audit.Sink) providers.TokenProvider {
	return &FHPLLoginProvider{cfg: cfg, gw: gw, sink: sink}
}

// Obtain posts the login form and extracts access_token. Missing token
// yields nil.
func (p *FHPLLoginProvider) Obtain(ctx context.Context) (*entities.AccessToken, error) {
	form := url.Values{
		"username":   {p.cfg.Username},
		"password":   {p.cfg.Password},
		"grant_type": {"password"},
	}

	body, err := p.gw.Do(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     p.cfg.TokenURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	})
	p.sink.Record("fhpl", "token", form.Encode(), body)
	if err != nil {
		return nil, err
	}

	parsed, err := tpa.DecodeObject(body)
	if err != nil {
		return nil, err
	}

	accessToken, ok := parsed["access_token"].(string)
	if !ok || accessToken == "" {
		return nil, nil
	}

	return &entities.AccessToken{Value: accessToken}, nil
}
