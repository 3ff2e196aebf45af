package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"authgate/internal/repository"
	"authgate/internal/service"
)

func TestRequireSignin_AllowsValidSessionToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService("a", "s", "r")
	guard := service.NewGuard(zap.NewNop(), tokens, repository.NewMemoryAccountRepository(), nil, time.Minute)
	token, err := tokens.Issue(service.PurposeSession, service.TokenClaims{AccountID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	r := gin.New()
	r.GET("/protected", RequireSignin(guard), func(c *gin.Context) {
		id, ok := GetAccountID(c)
		if !ok || id != "u1" {
			c.Status(http.StatusUnauthorized)
			return
		}
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireSignin_RejectsMissingAndWrongPurpose(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenService("a", "s", "r")
	guard := service.NewGuard(zap.NewNop(), tokens, repository.NewMemoryAccountRepository(), nil, time.Minute)
	reset, err := tokens.Issue(service.PurposeReset, service.TokenClaims{AccountID: "u1"}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	r := gin.New()
	r.GET("/protected", RequireSignin(guard), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, header := range []string{"", "Token abc", "Bearer " + reset} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for %q, got %d", header, rec.Code)
		}
	}
}

func TestRequireRole_WithoutSignin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	guard := service.NewGuard(zap.NewNop(), service.NewTokenService("a", "s", "r"), repository.NewMemoryAccountRepository(), nil, time.Minute)

	r := gin.New()
	r.GET("/admin", RequireRole(guard, "admin"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
