package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/timeouts"
	"github.com/roomdesk/roomdesk/internal/services/auth/account"
	"github.com/roomdesk/roomdesk/internal/services/auth/storage"
)

var (
	// ErrUnknownProvider indicates a provider that is not configured.
	ErrUnknownProvider = errors.New("unknown provider")
	// ErrInvalidState indicates a missing, reused or expired state.
	ErrInvalidState = errors.New("invalid oauth state")
)

// Flow drives the authorization code + PKCE exchange with external providers.
type Flow struct {
	config     Config
	store      storage.ProviderStore
	clock      func() time.Time
	httpClient *http.Client
}

// NewFlow builds a provider flow over store.
func NewFlow(config Config, store storage.ProviderStore) *Flow {
	if config.StateTTL <= 0 {
		config.StateTTL = 10 * time.Minute
	}
	return &Flow{
		config:     config,
		store:      store,
		clock:      time.Now,
		httpClient: &http.Client{Timeout: timeouts.OutboundHTTP},
	}
}

// Providers returns the configured provider IDs and display names.
func (f *Flow) Providers() map[string]string {
	out := make(map[string]string, len(f.config.Providers))
	for id, provider := range f.config.Providers {
		out[id] = provider.Name
	}
	return out
}

// Start persists a new state and returns the provider authorization URL.
func (f *Flow) Start(ctx context.Context, providerID, redirectPath string) (string, error) {
	provider, ok := f.config.Providers[providerID]
	if !ok {
		return "", ErrUnknownProvider
	}

	codeVerifier, err := generateToken(48)
	if err != nil {
		return "", fmt.Errorf("generate code verifier: %w", err)
	}
	state, err := generateToken(16)
	if err != nil {
		return "", fmt.Errorf("generate state: %w", err)
	}
	if err := f.store.PutProviderState(ctx, storage.ProviderState{
		State:        state,
		Provider:     providerID,
		RedirectPath: SafeRedirectPath(redirectPath),
		CodeVerifier: codeVerifier,
		ExpiresAt:    f.clock().UTC().Add(f.config.StateTTL),
	}); err != nil {
		return "", fmt.Errorf("store provider state: %w", err)
	}

	query := url.Values{}
	query.Set("response_type", "code")
	query.Set("client_id", provider.ClientID)
	query.Set("redirect_uri", provider.RedirectURI)
	query.Set("scope", strings.Join(provider.Scopes, " "))
	query.Set("state", state)
	query.Set("code_challenge", ComputeS256Challenge(codeVerifier))
	query.Set("code_challenge_method", "S256")

	authURL, err := url.Parse(provider.AuthURL)
	if err != nil {
		return "", fmt.Errorf("invalid provider auth url: %w", err)
	}
	authURL.RawQuery = query.Encode()
	return authURL.String(), nil
}

// Complete consumes state, exchanges code and fetches the provider profile.
// It returns the profile and the redirect path captured at Start.
func (f *Flow) Complete(ctx context.Context, providerID, code, stateValue string) (account.ExternalProfile, string, error) {
	provider, ok := f.config.Providers[providerID]
	if !ok {
		return account.ExternalProfile{}, "", ErrUnknownProvider
	}
	if strings.TrimSpace(code) == "" || strings.TrimSpace(stateValue) == "" {
		return account.ExternalProfile{}, "", ErrInvalidState
	}

	state, err := f.store.TakeProviderState(ctx, stateValue)
	if errors.Is(err, storage.ErrNotFound) {
		return account.ExternalProfile{}, "", ErrInvalidState
	}
	if err != nil {
		return account.ExternalProfile{}, "", fmt.Errorf("load provider state: %w", err)
	}
	if state.Provider != providerID || !state.ExpiresAt.After(f.clock().UTC()) {
		return account.ExternalProfile{}, "", ErrInvalidState
	}

	accessToken, err := f.exchangeToken(ctx, provider, code, state.CodeVerifier)
	if err != nil {
		return account.ExternalProfile{}, "", fmt.Errorf("exchange provider token: %w", err)
	}
	profile, err := f.fetchProfile(ctx, provider, accessToken)
	if err != nil {
		return account.ExternalProfile{}, "", fmt.Errorf("fetch provider profile: %w", err)
	}
	return profile, state.RedirectPath, nil
}

// Cleanup removes expired states.
func (f *Flow) Cleanup(ctx context.Context) (int64, error) {
	return f.store.DeleteExpiredProviderStates(ctx, f.clock().UTC())
}

func (f *Flow) exchangeToken(ctx context.Context, provider ProviderConfig, code, codeVerifier string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", provider.RedirectURI)
	form.Set("client_id", provider.ClientID)
	form.Set("client_secret", provider.ClientSecret)
	form.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, provider.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := f.doJSON(req, &payload); err != nil {
		return "", err
	}
	if payload.AccessToken == "" {
		return "", errors.New("missing access token")
	}
	return payload.AccessToken, nil
}

func (f *Flow) fetchProfile(ctx context.Context, provider ProviderConfig, accessToken string) (account.ExternalProfile, error) {
	req, err := f.authorizedGet(ctx, provider.UserInfoURL, accessToken)
	if err != nil {
		return account.ExternalProfile{}, err
	}

	if provider.ID == "google" {
		var payload struct {
			Sub           string `json:"sub"`
			Name          string `json:"name"`
			Email         string `json:"email"`
			EmailVerified bool   `json:"email_verified"`
			Locale        string `json:"locale"`
		}
		if err := f.doJSON(req, &payload); err != nil {
			return account.ExternalProfile{}, err
		}
		return account.ExternalProfile{
			Provider:       provider.ID,
			ProviderUserID: payload.Sub,
			Email:          payload.Email,
			EmailVerified:  payload.EmailVerified,
			DisplayName:    payload.Name,
			Locale:         payload.Locale,
		}, nil
	}

	var payload struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
	}
	if err := f.doJSON(req, &payload); err != nil {
		return account.ExternalProfile{}, err
	}
	profile := account.ExternalProfile{
		Provider:       provider.ID,
		ProviderUserID: formatGitHubID(payload.ID),
		DisplayName:    firstNonEmpty(payload.Name, payload.Login),
	}
	if provider.EmailsURL == "" {
		return profile, nil
	}
	emailsReq, err := f.authorizedGet(ctx, provider.EmailsURL, accessToken)
	if err != nil {
		return account.ExternalProfile{}, err
	}
	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := f.doJSON(emailsReq, &emails); err != nil {
		return account.ExternalProfile{}, err
	}
	for _, email := range emails {
		if email.Primary && email.Verified {
			profile.Email = email.Email
			profile.EmailVerified = true
			break
		}
	}
	return profile, nil
}

func (f *Flow) authorizedGet(ctx context.Context, target, accessToken string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (f *Flow) doJSON(req *http.Request, target any) error {
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("provider request %s failed: status %d", req.URL.Path, resp.StatusCode)
	}
	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(target)
}

// SafeRedirectPath keeps only same-origin absolute paths.
func SafeRedirectPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, "\\") {
		return "/"
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.IsAbs() || parsed.Host != "" {
		return "/"
	}
	return raw
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func formatGitHubID(value int64) string {
	if value == 0 {
		return ""
	}
	return "github-" + strconv.FormatInt(value, 10)
}
