package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/linkhive/linkhive/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testIssuer   = "https://login.example.com/test-tenant/v2.0"
	testAudience = "test-client-id"
	testKid      = "test-key-1"
)

type jwksFixture struct {
	key     *rsa.PrivateKey
	server  *httptest.Server
	fetches atomic.Int64
}

func newJWKSFixture(t *testing.T) *jwksFixture {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	f := &jwksFixture{key: key}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.fetches.Add(1)
		json.NewEncoder(w).Encode(map[string]any{
			"keys": []map[string]string{{
				"kid": testKid,
				"kty": "RSA",
				"use": "sig",
				"n":   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
				"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
			}},
		})
	}))
	t.Cleanup(f.server.Close)

	return f
}

func (f *jwksFixture) sign(t *testing.T, claims jwt.MapClaims, kid string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	signed, err := token.SignedString(f.key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"iss":   testIssuer,
		"aud":   testAudience,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
		"oid":   "user-object-id",
		"tid":   "tenant-id",
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	}
}

func TestVerify_MapsClaimsToIdentity(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	identity, err := verifier.Verify(context.Background(), fixture.sign(t, validClaims(), testKid))
	require.NoError(t, err)

	assert.Equal(t, "user-object-id", identity.Subject)
	assert.Equal(t, "tenant-id", identity.Tenant)
	assert.Equal(t, "Ada Lovelace", identity.DisplayName)
	assert.Equal(t, "ada@example.com", identity.Email)
}

func TestVerify_SubjectFallsBackToSub(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	claims := validClaims()
	delete(claims, "oid")
	claims["sub"] = "subject-claim"

	identity, err := verifier.Verify(context.Background(), fixture.sign(t, claims, testKid))
	require.NoError(t, err)
	assert.Equal(t, "subject-claim", identity.Subject)
}

func TestVerify_Expired(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	claims := validClaims()
	claims["exp"] = time.Now().Add(-time.Hour).Unix()

	_, err := verifier.Verify(context.Background(), fixture.sign(t, claims, testKid))
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestVerify_WrongAudience(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	claims := validClaims()
	claims["aud"] = "some-other-client"

	_, err := verifier.Verify(context.Background(), fixture.sign(t, claims, testKid))
	assert.ErrorIs(t, err, auth.ErrWrongAudience)
}

func TestVerify_Malformed(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	for _, raw := range []string{"garbage", "", "a.b.c"} {
		_, err := verifier.Verify(context.Background(), raw)
		assert.ErrorIs(t, err, auth.ErrMalformedToken, "token %q", raw)
	}
}

func TestVerify_MissingTenantClaim(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	claims := validClaims()
	delete(claims, "tid")

	_, err := verifier.Verify(context.Background(), fixture.sign(t, claims, testKid))
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
}

func TestVerify_UnknownKid(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	_, err := verifier.Verify(context.Background(), fixture.sign(t, validClaims(), "rotated-away"))
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
}

func TestVerify_CachesJWKS(t *testing.T) {
	fixture := newJWKSFixture(t)
	verifier := auth.NewVerifier(testIssuer, testAudience, fixture.server.URL)

	for i := 0; i < 5; i++ {
		_, err := verifier.Verify(context.Background(), fixture.sign(t, validClaims(), testKid))
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), fixture.fetches.Load())
}
