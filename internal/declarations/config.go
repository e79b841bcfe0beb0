// internal/declarations/config.go
package declarations

import "time"

// Config carries the per-service knobs for the declaration flow.
type Config struct {
	// ManifestName names the manifest used for declaration pages.
	ManifestName string
	// TTL bounds the cached declaration snapshot.
	TTL time.Duration
}

// DefaultConfig returns the standard declarations configuration.
func DefaultConfig() Config {
	return Config{
		ManifestName: "declaration",
		TTL:          5 * time.Minute,
	}
}
