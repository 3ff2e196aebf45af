package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Purpose acota un token a un único flujo; cada propósito firma con su propio secreto.
type Purpose string

const (
	PurposeActivation Purpose = "activation"
	PurposeSession    Purpose = "session"
	PurposeReset      Purpose = "reset"
)

var (
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenExpired = errors.New("token expired")
)

// TokenClaims es el payload firmado. Activation lleva el registro pendiente completo;
// session y reset solo llevan AccountID.
type TokenClaims struct {
	Purpose   Purpose `json:"typ"`
	AccountID string  `json:"uid,omitempty"`
	Name      string  `json:"name,omitempty"`
	Email     string  `json:"email,omitempty"`
	Password  string  `json:"password,omitempty"`
	jwt.RegisteredClaims
}

// TokenService emite y valida tokens JWT por propósito. Cada token lleva un jti propio,
// así dos emisiones en el mismo segundo nunca coinciden. No guarda estado entre llamadas.
type TokenService struct {
	secrets map[Purpose][]byte
	issuer  string
	now     func() time.Time
}

func NewTokenService(activationSecret, sessionSecret, resetSecret string) *TokenService {
	return &TokenService{
		secrets: map[Purpose][]byte{
			PurposeActivation: []byte(activationSecret),
			PurposeSession:    []byte(sessionSecret),
			PurposeReset:      []byte(resetSecret),
		},
		issuer: "authgate",
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock reemplaza el reloj; se usa en tests de expiración.
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *TokenService) Issue(purpose Purpose, claims TokenClaims, ttl time.Duration) (string, error) {
	secret := s.secrets[purpose]
	if len(secret) == 0 {
		return "", ErrTokenInvalid
	}
	if ttl <= 0 {
		return "", fmt.Errorf("issue %s token: ttl must be positive", purpose)
	}

	now := s.now()
	claims.Purpose = purpose
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   subjectFor(claims),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Verify valida firma, expiración y propósito. Devuelve ErrTokenExpired o ErrTokenInvalid.
func (s *TokenService) Verify(purpose Purpose, tokenString string) (TokenClaims, error) {
	secret := s.secrets[purpose]
	if len(secret) == 0 {
		return TokenClaims{}, ErrTokenInvalid
	}
	if strings.TrimSpace(tokenString) == "" {
		return TokenClaims{}, ErrTokenInvalid
	}

	var claims TokenClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrTokenExpired
		}
		return TokenClaims{}, ErrTokenInvalid
	}
	if claims.Purpose != purpose {
		return TokenClaims{}, ErrTokenInvalid
	}
	if claims.Subject != subjectFor(claims) {
		return TokenClaims{}, ErrTokenInvalid
	}
	return claims, nil
}

func subjectFor(claims TokenClaims) string {
	if claims.AccountID != "" {
		return claims.AccountID
	}
	return claims.Email
}

// tokenFailureReason distingue la causa interna para telemetría sin exponerla al cliente.
func tokenFailureReason(err error) string {
	if errors.Is(err, ErrTokenExpired) {
		return "expired"
	}
	return "invalid"
}
