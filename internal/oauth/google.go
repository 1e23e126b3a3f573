package oauth

import "github.com/eternals-studio/portal/internal/config"

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func NewGoogle(pc config.ProviderConfig) *Provider {
	return &Provider{
		Name:             "google",
		AuthEndpoint:     googleAuthURL,
		TokenEndpoint:    googleTokenURL,
		UserInfoEndpoint: googleUserInfoURL,
		Scopes:           []string{"openid", "profile", "email"},
		ClientID:         pc.ClientID,
		ClientSecret:     pc.ClientSecret,
		RedirectURI:      pc.RedirectURI,
		extraAuthParams: map[string]string{
			"access_type": "offline",
			"prompt":      "select_account",
		},
		normalize: normalizeGoogle,
	}
}

func normalizeGoogle(raw map[string]any) Identity {
	return Identity{
		ProviderID:  str(raw, "id"),
		Email:       str(raw, "email"),
		DisplayName: str(raw, "name"),
		AvatarURL:   str(raw, "picture"),
	}
}
