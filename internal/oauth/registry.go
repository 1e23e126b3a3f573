package oauth

import (
	"sort"

	"github.com/eternals-studio/portal/internal/config"
)

// Registry holds the providers whose credentials are fully configured.
// A provider missing any of its three values is simply absent, so a
// deployment with only Discord keys exposes only Discord.
type Registry struct {
	providers map[string]*Provider
}

func NewRegistry(cfg *config.Config) *Registry {
	r := &Registry{providers: map[string]*Provider{}}
	if cfg.OAuth.Discord.Enabled() {
		r.providers["discord"] = NewDiscord(cfg.OAuth.Discord)
	}
	if cfg.OAuth.Google.Enabled() {
		r.providers["google"] = NewGoogle(cfg.OAuth.Google)
	}
	return r
}

// Register adds or replaces a provider under its name.
func (r *Registry) Register(p *Provider) {
	r.providers[p.Name] = p
}

func (r *Registry) Get(name string) (*Provider, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// Names lists enabled providers in stable order, for the discovery endpoint.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.providers))
	for name := range r.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
