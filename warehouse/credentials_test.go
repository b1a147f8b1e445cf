package warehouse

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perchstats/api/config"
)

func testCredential(t *testing.T, tokenURI string) config.ServiceAccountCredential {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)

	return config.ServiceAccountCredential{
		ClientEmail:   "gateway@test-project.iam.gserviceaccount.com",
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}),
		TokenURI:      tokenURI,
		ProjectID:     "test-project",
	}
}

func TestMintAccessToken(t *testing.T) {
	var gotGrantType, gotAssertion string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		gotGrantType = r.PostFormValue("grant_type")
		gotAssertion = r.PostFormValue("assertion")
		json.NewEncoder(w).Encode(map[string]any{"access_token": "ya29.test", "expires_in": 3600})
	}))
	defer ts.Close()

	cred := testCredential(t, ts.URL)
	token, err := NewCredentialService().MintAccessToken(context.Background(), cred)
	require.NoError(t, err)

	assert.Equal(t, "ya29.test", token.AccessToken)
	assert.Equal(t, int64(3600), token.ExpiresIn)
	assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", gotGrantType)

	segments := strings.Split(gotAssertion, ".")
	require.Len(t, segments, 3, "assertion must be a compact JWT")

	headerJSON, err := base64.RawURLEncoding.DecodeString(segments[0])
	require.NoError(t, err)
	var header map[string]string
	require.NoError(t, json.Unmarshal(headerJSON, &header))
	assert.Equal(t, "RS256", header["alg"])
	assert.Equal(t, "JWT", header["typ"])

	payloadJSON, err := base64.RawURLEncoding.DecodeString(segments[1])
	require.NoError(t, err)
	var payload struct {
		Iss   string `json:"iss"`
		Scope string `json:"scope"`
		Aud   string `json:"aud"`
		Iat   int64  `json:"iat"`
		Exp   int64  `json:"exp"`
	}
	require.NoError(t, json.Unmarshal(payloadJSON, &payload))
	assert.Equal(t, cred.ClientEmail, payload.Iss)
	assert.Equal(t, warehouseScope, payload.Scope)
	assert.Equal(t, cred.TokenURI, payload.Aud)
	assert.Equal(t, int64(3600), payload.Exp-payload.Iat)
}

func TestMintAccessTokenNonSuccess(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer ts.Close()

	_, err := NewCredentialService().MintAccessToken(context.Background(), testCredential(t, ts.URL))

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadRequest, authErr.Status)
	assert.Contains(t, authErr.Body, "invalid_grant")
}

func TestMintAccessTokenBadKey(t *testing.T) {
	cred := config.ServiceAccountCredential{
		ClientEmail:   "gateway@test-project.iam.gserviceaccount.com",
		PrivateKeyPEM: []byte("not a key"),
		TokenURI:      "http://127.0.0.1:0",
	}
	_, err := NewCredentialService().MintAccessToken(context.Background(), cred)
	assert.Error(t, err)
}
