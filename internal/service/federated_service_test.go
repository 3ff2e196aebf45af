package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"authgate/internal/domain"
	"authgate/internal/oauth"
	"authgate/internal/repository"
)

type fakeVerifier struct {
	provider  string
	assertion domain.IdentityAssertion
	err       error
	calls     int
}

func (f *fakeVerifier) Provider() string { return f.provider }

func (f *fakeVerifier) Verify(_ context.Context, _ oauth.Credential) (domain.IdentityAssertion, error) {
	f.calls++
	if f.err != nil {
		return domain.IdentityAssertion{}, f.err
	}
	return f.assertion, nil
}

// racingRepo inserta una cuenta ganadora justo antes del Create, simulando otro primer login concurrente.
type racingRepo struct {
	*repository.MemoryAccountRepository
	winner domain.Account
}

func (r *racingRepo) Create(ctx context.Context, account domain.Account) error {
	if err := r.MemoryAccountRepository.Create(ctx, r.winner); err != nil {
		return err
	}
	return r.MemoryAccountRepository.Create(ctx, account)
}

func newFederatedFixture(repo repository.AccountRepository, verifiers ...oauth.Verifier) (*FederatedService, *TokenService) {
	tokens := newTestTokens()
	sessions := NewSessionService(testLogger(), repo, tokens, time.Hour)
	return NewFederatedService(testLogger(), repo, sessions, "federated-secret", verifiers...), tokens
}

func TestFederated_CreatesAccountOnFirstLogin(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	google := &fakeVerifier{provider: oauth.ProviderGoogle, assertion: domain.IdentityAssertion{
		Provider: oauth.ProviderGoogle, Subject: "g-1", Email: "Cara@X.io", Name: "Cara", Verified: true,
	}}
	svc, tokens := newFederatedFixture(repo, google)
	ctx := context.Background()

	session, err := svc.SignInWithAssertion(ctx, "google", oauth.Credential{Token: "id-token"})
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if session.Account.Email != "cara@x.io" || session.Account.Name != "Cara" || session.Account.Role != domain.RoleUser {
		t.Fatalf("unexpected account: %+v", session.Account)
	}
	claims, err := tokens.Verify(PurposeSession, session.Token)
	if err != nil || claims.AccountID != session.Account.ID {
		t.Fatalf("expected session for new account, claims=%+v err=%v", claims, err)
	}

	stored, err := repo.GetByEmail(ctx, "cara@x.io")
	if err != nil {
		t.Fatalf("expected stored account: %v", err)
	}
	if stored.PasswordHash == "" {
		t.Fatalf("federated accounts carry a non-empty credential hash")
	}

	again, err := svc.SignInWithAssertion(ctx, "google", oauth.Credential{Token: "id-token"})
	if err != nil {
		t.Fatalf("second sign in failed: %v", err)
	}
	if again.Account.ID != session.Account.ID {
		t.Fatalf("expected same account on repeat login")
	}
}

func TestFederated_UsesExistingAccount(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	existing := seedAccount(t, repo, "acc-1", "Ann", "ann@x.io", "secret1", domain.RoleAdmin)
	facebook := &fakeVerifier{provider: oauth.ProviderFacebook, assertion: domain.IdentityAssertion{
		Provider: oauth.ProviderFacebook, Subject: "fb-1", Email: "ann@x.io", Name: "Ann FB", Verified: true,
	}}
	svc, _ := newFederatedFixture(repo, facebook)

	session, err := svc.SignInWithAssertion(context.Background(), "facebook", oauth.Credential{Token: "t", UserID: "fb-1"})
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if session.Account.ID != existing.ID || session.Account.Name != "Ann" || session.Account.Role != domain.RoleAdmin {
		t.Fatalf("expected existing account untouched, got %+v", session.Account)
	}
}

func TestFederated_UnverifiedNeverCreates(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	google := &fakeVerifier{provider: oauth.ProviderGoogle, assertion: domain.IdentityAssertion{
		Provider: oauth.ProviderGoogle, Subject: "g-1", Email: "eve@x.io", Verified: false,
	}}
	svc, _ := newFederatedFixture(repo, google)

	_, err := svc.SignInWithAssertion(context.Background(), "google", oauth.Credential{Token: "id-token"})
	if !errors.Is(err, ErrUnverifiedAssertion) {
		t.Fatalf("expected ErrUnverifiedAssertion, got %v", err)
	}
	if _, err := repo.GetByEmail(context.Background(), "eve@x.io"); !errors.Is(err, repository.ErrAccountNotFound) {
		t.Fatalf("unverified assertion must not create accounts")
	}
}

func TestFederated_VerifierFailureAndUnknownProvider(t *testing.T) {
	repo := repository.NewMemoryAccountRepository()
	google := &fakeVerifier{provider: oauth.ProviderGoogle, err: oauth.ErrAudienceMismatch}
	svc, _ := newFederatedFixture(repo, google)
	ctx := context.Background()

	_, err := svc.SignInWithAssertion(ctx, "google", oauth.Credential{Token: "id-token"})
	if !errors.Is(err, ErrAssertionVerification) {
		t.Fatalf("expected ErrAssertionVerification, got %v", err)
	}

	_, err = svc.SignInWithAssertion(ctx, "github", oauth.Credential{Token: "x"})
	if !errors.Is(err, ErrProviderNotSupported) {
		t.Fatalf("expected ErrProviderNotSupported, got %v", err)
	}
	if google.calls != 1 {
		t.Fatalf("expected verifier called once, got %d", google.calls)
	}
}

func TestFederated_DuplicateRaceReturnsWinner(t *testing.T) {
	winner := domain.Account{ID: "winner", Name: "Cara", Email: "cara@x.io", PasswordHash: "x", Role: domain.RoleUser}
	repo := &racingRepo{MemoryAccountRepository: repository.NewMemoryAccountRepository(), winner: winner}
	google := &fakeVerifier{provider: oauth.ProviderGoogle, assertion: domain.IdentityAssertion{
		Provider: oauth.ProviderGoogle, Subject: "g-1", Email: "cara@x.io", Name: "Cara", Verified: true,
	}}
	svc, _ := newFederatedFixture(repo, google)

	session, err := svc.SignInWithAssertion(context.Background(), "google", oauth.Credential{Token: "id-token"})
	if err != nil {
		t.Fatalf("sign in failed: %v", err)
	}
	if session.Account.ID != "winner" {
		t.Fatalf("expected winner account, got %s", session.Account.ID)
	}
}

func TestSyntheticPassword_Deterministic(t *testing.T) {
	a, err := syntheticPassword([]byte("s"), "cara@x.io")
	if err != nil {
		t.Fatalf("derive failed: %v", err)
	}
	b, _ := syntheticPassword([]byte("s"), "cara@x.io")
	c, _ := syntheticPassword([]byte("s"), "dan@x.io")
	if a != b || a == c {
		t.Fatalf("expected deterministic per-email derivation")
	}
	if _, err := syntheticPassword(nil, "cara@x.io"); err == nil {
		t.Fatalf("expected error without secret")
	}
}
