package warehouse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"perchstats/api/config"
)

// Read-only warehouse access is all the gateway ever needs.
const warehouseScope = "https://www.googleapis.com/auth/bigquery.readonly"

const jwtBearerGrant = "urn:ietf:params:oauth:grant-type:jwt-bearer"

// BearerToken is a freshly minted warehouse access token. Short-lived,
// scoped to one request, never logged.
type BearerToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// CredentialService exchanges a signed service-account assertion for a
// bearer token. Tokens are minted per call and never cached.
type CredentialService struct {
	client *http.Client
	now    func() time.Time
}

func NewCredentialService() *CredentialService {
	return &CredentialService{
		client: &http.Client{Timeout: 10 * time.Second},
		now:    time.Now,
	}
}

// MintAccessToken builds an RS256-signed JWT assertion for the service
// account and trades it for an access token at the credential's token URI.
func (s *CredentialService) MintAccessToken(ctx context.Context, cred config.ServiceAccountCredential) (*BearerToken, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(cred.PrivateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account private key: %w", err)
	}

	issuedAt := s.now()
	claims := jwt.MapClaims{
		"iss":   cred.ClientEmail,
		"scope": warehouseScope,
		"aud":   cred.TokenURI,
		"iat":   issuedAt.Unix(),
		"exp":   issuedAt.Add(1 * time.Hour).Unix(),
	}

	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign assertion: %w", err)
	}

	form := url.Values{
		"grant_type": {jwtBearerGrant},
		"assertion":  {assertion},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cred.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AuthError{Status: resp.StatusCode, Body: string(body)}
	}

	var token BearerToken
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, &AuthError{Status: resp.StatusCode, Body: "token response missing access_token"}
	}

	return &token, nil
}
