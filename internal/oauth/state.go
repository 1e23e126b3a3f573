package oauth

import (
	"time"

	"github.com/eternals-studio/portal/internal/cache"
	"github.com/eternals-studio/portal/internal/security/token"
)

// StateStore issues and redeems the anti-forgery state values carried
// through the provider redirect. States are single use: Consume deletes on
// first sight, so a replayed callback fails even inside the TTL window.
type StateStore struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStateStore(c cache.Cache, ttl time.Duration) *StateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &StateStore{cache: c, ttl: ttl}
}

func (s *StateStore) key(provider, state string) string {
	return "oauth:state:" + provider + ":" + state
}

// Issue creates a fresh state bound to the provider it was issued for.
func (s *StateStore) Issue(provider string) (string, error) {
	state, err := token.GenerateOpaque(32)
	if err != nil {
		return "", err
	}
	s.cache.Set(s.key(provider, state), []byte{1}, s.ttl)
	return state, nil
}

// Consume reports whether the state was issued for this provider and is
// still live, and retires it either way.
func (s *StateStore) Consume(provider, state string) bool {
	if state == "" {
		return false
	}
	k := s.key(provider, state)
	_, ok := s.cache.Get(k)
	if ok {
		s.cache.Delete(k)
	}
	return ok
}
