package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/hkdf"
)

const (
	minPasswordLength = 6
	// bcrypt ignora lo que pase de 72 bytes.
	maxPasswordLength = 72
)

var passwordRules = []validation.Rule{
	validation.Required,
	validation.Length(minPasswordLength, maxPasswordLength),
}

func hashPassword(password string) (string, error) {
	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashBytes), nil
}

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// checkPassword compara en tiempo similar exista o no hash, para no revelar si la cuenta existe.
func checkPassword(hash, password string) bool {
	if hash == "" {
		dummyHashOnce.Do(func() {
			dummyHash, _ = bcrypt.GenerateFromPassword([]byte("authgate-dummy-password"), bcrypt.DefaultCost)
		})
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// syntheticPassword deriva una credencial determinística para cuentas federadas.
// El cliente nunca la conoce, así que no sirve para login por contraseña.
func syntheticPassword(secret []byte, email string) (string, error) {
	if len(secret) == 0 {
		return "", fmt.Errorf("federated secret not configured")
	}
	reader := hkdf.New(sha256.New, secret, nil, []byte("authgate:federated:"+email))
	out := make([]byte, 32)
	if _, err := io.ReadFull(reader, out); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(out), nil
}

// NormalizeEmail es la única regla de comparación de emails: trim y minúsculas.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
