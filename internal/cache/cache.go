// Package cache is a small TTL key-value seam with memory and redis backends.
// The OAuth flow uses it to persist issued state values between the
// login-initiate and callback steps.
package cache

import "time"

type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
