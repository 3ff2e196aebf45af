package oauth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"authgate/internal/domain"
)

const ProviderGoogle = "google"

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

type googleClaims struct {
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	jwt.RegisteredClaims
}

// GoogleVerifier valida id tokens de Google firmados con RS256 contra su JWKS.
type GoogleVerifier struct {
	clientID string
	keyFunc  jwt.Keyfunc
	now      func() time.Time
}

func NewGoogleVerifier(clientID string, keyFunc jwt.Keyfunc) *GoogleVerifier {
	return &GoogleVerifier{
		clientID: clientID,
		keyFunc:  keyFunc,
		now:      time.Now,
	}
}

// NewGoogleKeyfunc descarga el JWKS de Google y lo refresca en background.
func NewGoogleKeyfunc(jwksURL string, onRefreshError func(error)) (*keyfunc.JWKS, error) {
	return keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshErrorHandler: onRefreshError,
		RefreshInterval:     time.Hour,
		RefreshRateLimit:    5 * time.Minute,
		RefreshTimeout:      10 * time.Second,
		RefreshUnknownKID:   true,
	})
}

func (v *GoogleVerifier) Provider() string {
	return ProviderGoogle
}

func (v *GoogleVerifier) Verify(_ context.Context, cred Credential) (domain.IdentityAssertion, error) {
	idToken := strings.TrimSpace(cred.Token)
	if idToken == "" {
		return domain.IdentityAssertion{}, ErrCredentialMissing
	}
	if v.keyFunc == nil || v.clientID == "" {
		return domain.IdentityAssertion{}, fmt.Errorf("google verifier not configured")
	}

	var claims googleClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithAudience(v.clientID),
		jwt.WithTimeFunc(v.now),
	)
	if _, err := parser.ParseWithClaims(idToken, &claims, v.keyFunc); err != nil {
		if errors.Is(err, jwt.ErrTokenInvalidAudience) {
			return domain.IdentityAssertion{}, ErrAudienceMismatch
		}
		return domain.IdentityAssertion{}, fmt.Errorf("google id token: %w", err)
	}
	// Google usa dos valores de iss; WithIssuer solo acepta uno.
	if !containsString(googleIssuers, claims.Issuer) {
		return domain.IdentityAssertion{}, ErrIssuerMismatch
	}

	return domain.IdentityAssertion{
		Provider: ProviderGoogle,
		Subject:  claims.Subject,
		Email:    claims.Email,
		Name:     claims.Name,
		Verified: claims.EmailVerified,
	}, nil
}

func containsString(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
