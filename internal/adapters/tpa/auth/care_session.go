package auth

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/zoomconnect/tpa-hospital-sync/internal/adapters/tpa"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/entities"
	"github.com/zoomconnect/tpa-hospital-sync/internal/domain/providers"
	"github.com/zoomconnect/tpa-hospital-sync/internal/infrastructure/gateway"
	"github.com/zoomconnect/tpa-hospital-sync/pkg/config"
)

// CareSessionProvider obtains a session+token pair from Care's signed
// partner endpoint. The credential sent onwards is the AES-256-CBC
// encryption of "<tokenKey>|<tokenValue>" under a fixed key and IV, base64
// encoded. Both key and IV come from partner onboarding material.
type CareSessionProvider struct {
	cfg config.CareConfig
	gw  *gateway.Gateway
	now func() time.Time
}

// NewCareSessionProvider creates the Care token provider
func NewCareSessionProvider(cfg config.CareConfig, gw *gateway.Gateway) providers.TokenProvider {
	return &CareSessionProvider{cfg: cfg, gw: gw, now: time.Now}
}

// Obtain performs the signed partner call and returns the encrypted token
// plus session id. Any non-success status yields nil.
func (p *CareSessionProvider) Obtain(ctx context.Context) (*entities.AccessToken, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"tokenRequest": map[string]string{
			"partnerId":   p.cfg.PartnerID,
			"securityKey": p.cfg.SecurityKey,
		},
	})
	if err != nil {
		return nil, err
	}

	body, err := p.gw.Do(ctx, gateway.Request{
		Method: http.MethodPost,
		URL:    p.cfg.TokenURL,
		Headers: map[string]string{
			"Content-Type": "application/json",
			"X-Signature":  p.cfg.Signature,
			"X-Timestamp":  strconv.FormatInt(p.now().Unix(), 10),
		},
		Body: payload,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := tpa.DecodeObject(body)
	if err != nil {
		return nil, err
	}

	responseData, ok := parsed["responseData"].(map[string]interface{})
	if !ok {
		return nil, nil
	}
	status, _ := responseData["status"].(string)
	message, _ := responseData["message"].(string)
	if status != "1" || message != "Success" {
		return nil, nil
	}

	tokenKey, _ := responseData["tokenKey"].(string)
	tokenValue, _ := responseData["tokenValue"].(string)
	sessionID, _ := responseData["sessionId"].(string)
	if tokenKey == "" || tokenValue == "" {
		return nil, nil
	}

	encrypted, err := encryptAES256CBC([]byte(p.cfg.EncryptionKey), []byte(p.cfg.EncryptionIV), tokenKey+"|"+tokenValue)
	if err != nil {
		return nil, err
	}

	return &entities.AccessToken{Value: encrypted, SessionID: sessionID}, nil
}

// encryptAES256CBC encrypts the plaintext with AES-256-CBC and PKCS#7
// padding, returning the base64 ciphertext.
func encryptAES256CBC(key, iv []byte, plaintext string) (string, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("invalid encryption key: %w", err)
	}
	if len(iv) != aes.BlockSize {
		return "", fmt.Errorf("invalid iv length %d", len(iv))
	}

	padding := aes.BlockSize - len(plaintext)%aes.BlockSize
	padded := make([]byte, len(plaintext)+padding)
	copy(padded, plaintext)
	for i := len(plaintext); i < len(padded); i++ {
		padded[i] = byte(padding)
	}

	ciphertext := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, padded)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}
