package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/linkhive/linkhive/internal"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Verification failures collapse to these generic categories; token
// internals are never surfaced to callers.
var ErrTokenExpired = errors.New("token has expired")
var ErrWrongAudience = errors.New("token is not intended for this application")
var ErrMalformedToken = errors.New("authentication failed")

const jwksCacheTTL = time.Hour

type idClaims struct {
	jwt.RegisteredClaims
	ObjectID    string `json:"oid"`
	TenantID    string `json:"tid"`
	DisplayName string `json:"name"`
	Email       string `json:"email"`
}

// Verifier validates bearer ID tokens issued by an external identity
// provider. Signing keys come from the provider's JWKS endpoint and are
// cached in-process; the cache refreshes on expiry or on an unknown kid.
type Verifier struct {
	issuer   string
	audience string
	jwksURL  string
	client   *http.Client

	mu        sync.RWMutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
}

func NewVerifier(issuer, audience, jwksURL string) *Verifier {
	return &Verifier{
		issuer:   issuer,
		audience: audience,
		jwksURL:  jwksURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify validates the raw token and maps its claims to an Identity.
// The oid claim is the subject (sub as fallback), tid the tenant.
func (v *Verifier) Verify(ctx context.Context, rawToken string) (internal.Identity, error) {
	claims := &idClaims{}
	token, err := jwt.ParseWithClaims(rawToken, claims, v.keyFunc(ctx),
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithAudience(v.audience),
	)
	if err != nil {
		log.Debug().Err(err).Msg("token validation failed")
		return internal.Identity{}, categorize(err)
	}
	if !token.Valid {
		return internal.Identity{}, ErrMalformedToken
	}

	subject := claims.ObjectID
	if subject == "" {
		subject = claims.Subject
	}
	if subject == "" || claims.TenantID == "" {
		return internal.Identity{}, ErrMalformedToken
	}

	log.Debug().Str("subject", subject).Str("tenant", claims.TenantID).Msg("token validation successful")

	return internal.Identity{
		Subject:     subject,
		Tenant:      claims.TenantID,
		DisplayName: claims.DisplayName,
		Email:       claims.Email,
	}, nil
}

func (v *Verifier) keyFunc(ctx context.Context) jwt.Keyfunc {
	return func(token *jwt.Token) (any, error) {
		kid, _ := token.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token header missing kid")
		}
		return v.signingKey(ctx, kid)
	}
}

func (v *Verifier) signingKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	v.mu.RLock()
	key, ok := v.keys[kid]
	fresh := time.Since(v.fetchedAt) < jwksCacheTTL
	v.mu.RUnlock()

	if ok && fresh {
		return key, nil
	}

	if err := v.refreshKeys(ctx); err != nil {
		return nil, err
	}

	v.mu.RLock()
	defer v.mu.RUnlock()
	key, ok = v.keys[kid]
	if !ok {
		return nil, fmt.Errorf("no signing key found for kid %s", kid)
	}
	return key, nil
}

func (v *Verifier) refreshKeys(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.jwksURL, nil)
	if err != nil {
		return err
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch JWKS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("JWKS endpoint returned status %d", resp.StatusCode)
	}

	var doc struct {
		Keys []struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			Use string `json:"use"`
			N   string `json:"n"`
			E   string `json:"e"`
		} `json:"keys"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return fmt.Errorf("failed to decode JWKS: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey, len(doc.Keys))
	for _, k := range doc.Keys {
		if k.Kty != "RSA" || k.Kid == "" {
			continue
		}
		pub, err := jwkToPublicKey(k.N, k.E)
		if err != nil {
			log.Warn().Err(err).Str("kid", k.Kid).Msg("skipping unparseable JWKS key")
			continue
		}
		keys[k.Kid] = pub
	}
	if len(keys) == 0 {
		return errors.New("JWKS response contained no usable keys")
	}

	v.mu.Lock()
	v.keys = keys
	v.fetchedAt = time.Now()
	v.mu.Unlock()

	log.Debug().Int("count", len(keys)).Msg("refreshed JWKS signing keys")
	return nil
}

func jwkToPublicKey(n, e string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(n, "="))
	if err != nil {
		return nil, fmt.Errorf("bad modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(e, "="))
	if err != nil {
		return nil, fmt.Errorf("bad exponent: %w", err)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(new(big.Int).SetBytes(eBytes).Int64()),
	}, nil
}

func categorize(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return ErrWrongAudience
	default:
		return ErrMalformedToken
	}
}
