package oauth

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config describes the external sign-in configuration.
type Config struct {
	Providers map[string]ProviderConfig
	StateTTL  time.Duration
}

// ProviderConfig describes an external OAuth provider configuration.
type ProviderConfig struct {
	ID           string
	Name         string
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	// EmailsURL lists addresses when the profile omits a verified email.
	EmailsURL string
	Scopes    []string
}

// oauthEnv holds raw env values for provider configuration.
type oauthEnv struct {
	StateTTL           time.Duration `env:"ROOMDESK_OAUTH_STATE_TTL"            envDefault:"10m"`
	GoogleClientID     string        `env:"ROOMDESK_OAUTH_GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"ROOMDESK_OAUTH_GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURI  string        `env:"ROOMDESK_OAUTH_GOOGLE_REDIRECT_URI"`
	GoogleScopes       []string      `env:"ROOMDESK_OAUTH_GOOGLE_SCOPES"        envSeparator:","`
	GitHubClientID     string        `env:"ROOMDESK_OAUTH_GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `env:"ROOMDESK_OAUTH_GITHUB_CLIENT_SECRET"`
	GitHubRedirectURI  string        `env:"ROOMDESK_OAUTH_GITHUB_REDIRECT_URI"`
	GitHubScopes       []string      `env:"ROOMDESK_OAUTH_GITHUB_SCOPES"        envSeparator:","`
}

// LoadConfigFromEnv loads provider configuration. Redirect URIs default to
// the callback route under publicURL.
func LoadConfigFromEnv(publicURL string) (Config, error) {
	var raw oauthEnv
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse oauth env: %w", err)
	}
	if raw.StateTTL <= 0 {
		return Config{}, fmt.Errorf("ROOMDESK_OAUTH_STATE_TTL must be positive")
	}
	return Config{
		Providers: buildProviders(raw, strings.TrimRight(strings.TrimSpace(publicURL), "/")),
		StateTTL:  raw.StateTTL,
	}, nil
}

// trimCSV removes empty entries from a string slice.
func trimCSV(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

func callbackURI(explicit, publicURL, providerID string) string {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return explicit
	}
	if publicURL == "" {
		return ""
	}
	return publicURL + "/auth/providers/" + providerID + "/callback"
}

func buildProviders(raw oauthEnv, publicURL string) map[string]ProviderConfig {
	providers := make(map[string]ProviderConfig)
	if redirect := callbackURI(raw.GoogleRedirectURI, publicURL, "google"); raw.GoogleClientID != "" && raw.GoogleClientSecret != "" && redirect != "" {
		scopes := trimCSV(raw.GoogleScopes)
		if len(scopes) == 0 {
			scopes = []string{"openid", "email", "profile"}
		}
		providers["google"] = ProviderConfig{
			ID:           "google",
			Name:         "Google",
			ClientID:     raw.GoogleClientID,
			ClientSecret: raw.GoogleClientSecret,
			RedirectURI:  redirect,
			AuthURL:      "https://accounts.google.com/o/oauth2/v2/auth",
			TokenURL:     "https://oauth2.googleapis.com/token",
			UserInfoURL:  "https://openidconnect.googleapis.com/v1/userinfo",
			Scopes:       scopes,
		}
	}
	if redirect := callbackURI(raw.GitHubRedirectURI, publicURL, "github"); raw.GitHubClientID != "" && raw.GitHubClientSecret != "" && redirect != "" {
		scopes := trimCSV(raw.GitHubScopes)
		if len(scopes) == 0 {
			scopes = []string{"read:user", "user:email"}
		}
		providers["github"] = ProviderConfig{
			ID:           "github",
			Name:         "GitHub",
			ClientID:     raw.GitHubClientID,
			ClientSecret: raw.GitHubClientSecret,
			RedirectURI:  redirect,
			AuthURL:      "https://github.com/login/oauth/authorize",
			TokenURL:     "https://github.com/login/oauth/access_token",
			UserInfoURL:  "https://api.github.com/user",
			EmailsURL:    "https://api.github.com/user/emails",
			Scopes:       scopes,
		}
	}
	if len(providers) == 0 {
		return nil
	}
	return providers
}
