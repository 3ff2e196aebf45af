package oauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGraph struct {
	appID     string
	userID    string
	isValid   bool
	email     string
	lastAppAT string
}

func (g *fakeGraph) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/debug_token":
			g.lastAppAT = r.URL.Query().Get("access_token")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data": map[string]any{
					"app_id":   g.appID,
					"user_id":  g.userID,
					"is_valid": g.isValid,
				},
			})
		case "/" + g.userID:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":    g.userID,
				"name":  "Ann",
				"email": g.email,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newFacebookFixture(t *testing.T, g *fakeGraph) *FacebookVerifier {
	t.Helper()
	server := httptest.NewServer(g.handler())
	t.Cleanup(server.Close)
	return NewFacebookVerifier(server.URL, "app-1", "app-secret", server.Client())
}

func TestFacebookVerifier_ValidToken(t *testing.T) {
	g := &fakeGraph{appID: "app-1", userID: "fb-1", isValid: true, email: "ann@example.com"}
	verifier := newFacebookFixture(t, g)

	assertion, err := verifier.Verify(context.Background(), Credential{Token: "user-token", UserID: "fb-1"})
	require.NoError(t, err)

	assert.Equal(t, ProviderFacebook, assertion.Provider)
	assert.Equal(t, "fb-1", assertion.Subject)
	assert.Equal(t, "ann@example.com", assertion.Email)
	assert.True(t, assertion.Verified)
	assert.Equal(t, "app-1|app-secret", g.lastAppAT)
}

func TestFacebookVerifier_OtherAppToken(t *testing.T) {
	g := &fakeGraph{appID: "other-app", userID: "fb-1", isValid: true, email: "ann@example.com"}
	verifier := newFacebookFixture(t, g)

	_, err := verifier.Verify(context.Background(), Credential{Token: "user-token", UserID: "fb-1"})
	assert.ErrorIs(t, err, ErrAudienceMismatch)
}

func TestFacebookVerifier_UserMismatch(t *testing.T) {
	g := &fakeGraph{appID: "app-1", userID: "fb-2", isValid: true, email: "ann@example.com"}
	verifier := newFacebookFixture(t, g)

	_, err := verifier.Verify(context.Background(), Credential{Token: "user-token", UserID: "fb-1"})
	assert.ErrorIs(t, err, ErrSubjectMismatch)
}

func TestFacebookVerifier_NoEmailIsUnverified(t *testing.T) {
	g := &fakeGraph{appID: "app-1", userID: "fb-1", isValid: true}
	verifier := newFacebookFixture(t, g)

	assertion, err := verifier.Verify(context.Background(), Credential{Token: "user-token", UserID: "fb-1"})
	require.NoError(t, err)
	assert.False(t, assertion.Verified)
}

func TestFacebookVerifier_ProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)
	verifier := NewFacebookVerifier(server.URL, "app-1", "app-secret", server.Client())

	_, err := verifier.Verify(context.Background(), Credential{Token: "user-token", UserID: "fb-1"})
	assert.ErrorIs(t, err, ErrProviderResponse)
}

func TestFacebookVerifier_MissingCredential(t *testing.T) {
	verifier := NewFacebookVerifier("", "app-1", "app-secret", nil)

	_, err := verifier.Verify(context.Background(), Credential{Token: "user-token"})
	assert.ErrorIs(t, err, ErrCredentialMissing)
}
