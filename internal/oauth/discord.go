package oauth

import (
	"fmt"

	"github.com/eternals-studio/portal/internal/config"
)

const (
	discordAuthURL     = "https://discord.com/api/oauth2/authorize"
	discordTokenURL    = "https://discord.com/api/oauth2/token"
	discordUserInfoURL = "https://discord.com/api/users/@me"
)

// NewDiscord builds the Discord provider. The identify scope yields the
// numeric id and avatar hash, the email scope the verified address.
func NewDiscord(pc config.ProviderConfig) *Provider {
	return &Provider{
		Name:             "discord",
		AuthEndpoint:     discordAuthURL,
		TokenEndpoint:    discordTokenURL,
		UserInfoEndpoint: discordUserInfoURL,
		Scopes:           []string{"identify", "email"},
		ClientID:         pc.ClientID,
		ClientSecret:     pc.ClientSecret,
		RedirectURI:      pc.RedirectURI,
		normalize:        normalizeDiscord,
	}
}

func normalizeDiscord(raw map[string]any) Identity {
	id := Identity{
		ProviderID:  str(raw, "id"),
		Email:       str(raw, "email"),
		DisplayName: str(raw, "global_name"),
	}
	if id.DisplayName == "" {
		id.DisplayName = str(raw, "username")
	}
	if hash := str(raw, "avatar"); hash != "" && id.ProviderID != "" {
		id.AvatarURL = fmt.Sprintf("https://cdn.discordapp.com/avatars/%s/%s.png", id.ProviderID, hash)
	}
	return id
}
