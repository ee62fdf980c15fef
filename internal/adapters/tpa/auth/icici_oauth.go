package auth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

// ICICIOAuthProvider obtains a bearer token through ICICI's password-grant
// form endpoint. The usable credential is "<token_type> <access_token>".
type ICICIOAuthProvider struct {
	cfg config.ICICIConfig
	gw  *gateway.Gateway
}

// NewICICIOAuthProvider creates the ICICI token provider
func NewICICIOAuthProvider(cfg config.ICICIConfig, gw *gateway.Gateway) providers.TokenProvider {
	return &ICICIOAuthProvider{cfg: cfg, gw: gw}
}

// Obtain posts the grant and concatenates token_type with access_token.
// Either field missing yields nil.
func (p *ICICIOAuthProvider) Obtain(ctx context.Context) (*entities.AccessToken, error) {
	form := url.Values{
		"username":      {p.cfg.Username},
		"password":      {p.cfg.Password},
		"client_id":     {p.cfg.ClientID},
		"client_secret": {p.cfg.ClientSecret},
		"scope":         {p.cfg.Scope},
		"grant_type":    {"password"},
	}

	body, err := p.gw.Do(ctx, gateway.Request{
		Method:  http.MethodPost,
		URL:     p.cfg.TokenURL,
		Headers: map[string]string{"Content-Type": "application/x-www-form-urlencoded"},
		Body:    []byte(form.Encode()),
	})
	if err != nil {
		return nil, err
	}

	parsed, err := tpa.DecodeObject(body)
	if err != nil {
		return nil, err
	}

	tokenType, _ := parsed["token_type"].(string)
	accessToken, _ := parsed["access_token"].(string)
	if tokenType == "" || accessToken == "" {
		return nil, nil
	}

	return &entities.AccessToken{Value: tokenType + " " + accessToken}, nil
}
