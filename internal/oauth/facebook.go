package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"authgate/internal/domain"
)

const ProviderFacebook = "facebook"

// FacebookVerifier valida access tokens de Facebook con la Graph API.
// debug_token comprueba que el token fue emitido para nuestra app (audiencia).
type FacebookVerifier struct {
	graphURL  string
	appID     string
	appSecret string
	client    *http.Client
}

func NewFacebookVerifier(graphURL, appID, appSecret string, client *http.Client) *FacebookVerifier {
	if graphURL == "" {
		graphURL = "https://graph.facebook.com/v19.0"
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &FacebookVerifier{
		graphURL:  strings.TrimRight(graphURL, "/"),
		appID:     appID,
		appSecret: appSecret,
		client:    client,
	}
}

type debugTokenResponse struct {
	Data struct {
		AppID   string `json:"app_id"`
		UserID  string `json:"user_id"`
		IsValid bool   `json:"is_valid"`
	} `json:"data"`
}

type facebookProfile struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (v *FacebookVerifier) Provider() string {
	return ProviderFacebook
}

func (v *FacebookVerifier) Verify(ctx context.Context, cred Credential) (domain.IdentityAssertion, error) {
	accessToken := strings.TrimSpace(cred.Token)
	userID := strings.TrimSpace(cred.UserID)
	if accessToken == "" || userID == "" {
		return domain.IdentityAssertion{}, ErrCredentialMissing
	}
	if v.appID == "" || v.appSecret == "" {
		return domain.IdentityAssertion{}, fmt.Errorf("facebook verifier not configured")
	}

	var debug debugTokenResponse
	err := v.getJSON(ctx, "/debug_token", url.Values{
		"input_token":  {accessToken},
		"access_token": {v.appID + "|" + v.appSecret},
	}, &debug)
	if err != nil {
		return domain.IdentityAssertion{}, fmt.Errorf("facebook debug_token: %w", err)
	}
	if !debug.Data.IsValid || debug.Data.AppID != v.appID {
		return domain.IdentityAssertion{}, ErrAudienceMismatch
	}
	if debug.Data.UserID != userID {
		return domain.IdentityAssertion{}, ErrSubjectMismatch
	}

	var profile facebookProfile
	err = v.getJSON(ctx, "/"+url.PathEscape(userID), url.Values{
		"fields":       {"id,name,email"},
		"access_token": {accessToken},
	}, &profile)
	if err != nil {
		return domain.IdentityAssertion{}, fmt.Errorf("facebook profile: %w", err)
	}
	if profile.ID != userID {
		return domain.IdentityAssertion{}, ErrSubjectMismatch
	}

	// Facebook solo entrega email confirmado; sin email no hay identidad verificada.
	return domain.IdentityAssertion{
		Provider: ProviderFacebook,
		Subject:  profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
		Verified: profile.Email != "",
	}, nil
}

func (v *FacebookVerifier) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.graphURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := v.client.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrProviderResponse, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderResponse, err)
	}
	return nil
}
