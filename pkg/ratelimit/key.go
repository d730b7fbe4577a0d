package ratelimit

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/briefly-bot/briefly/pkg/clientip"
)

// maxKeyLength caps rate limit keys to keep storage keys short in backends
// like Redis.
const maxKeyLength = 64

// KeyFunc extracts a unique identifier from an HTTP request for rate limiting.
type KeyFunc func(*http.Request) string

// PerIP keys rate limits by the client's real IP address, resolving proxy
// headers before falling back to RemoteAddr.
func PerIP(r *http.Request) string {
	return clientip.GetIP(r)
}

// Composite combines multiple key extraction functions into a single key.
// Keys longer than 64 chars are hashed to 32 hex chars with SHA256.
func Composite(keyFuncs ...KeyFunc) KeyFunc {
	return func(r *http.Request) string {
		parts := make([]string, 0, len(keyFuncs))
		for _, fn := range keyFuncs {
			if key := fn(r); key != "" {
				parts = append(parts, key)
			}
		}

		if len(parts) == 0 {
			return ""
		}

		if len(parts) == 1 && len(parts[0]) <= maxKeyLength {
			return parts[0]
		}

		combined := strings.Join(parts, ":")

		if len(combined) > maxKeyLength {
			hash := sha256.Sum256([]byte(combined))
			return hex.EncodeToString(hash[:16])
		}

		return combined
	}
}
