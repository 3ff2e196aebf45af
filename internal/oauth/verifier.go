// Package oauth verifica credenciales de proveedores externos y las reduce a una
// domain.IdentityAssertion. Cada verificador recibe su configuración explícita
// (client id, app secret) al construirse.
package oauth

import (
	"context"
	"errors"

	"authgate/internal/domain"
)

var (
	ErrCredentialMissing = errors.New("credential missing")
	ErrAudienceMismatch  = errors.New("audience mismatch")
	ErrIssuerMismatch    = errors.New("issuer mismatch")
	ErrSubjectMismatch   = errors.New("subject mismatch")
	ErrProviderResponse  = errors.New("unexpected provider response")
)

// Credential es lo que manda el cliente: un id token (Google) o un access token
// más el user id (Facebook).
type Credential struct {
	Token  string
	UserID string
}

// Verifier valida una credencial contra su proveedor.
type Verifier interface {
	Provider() string
	Verify(ctx context.Context, cred Credential) (domain.IdentityAssertion, error)
}
