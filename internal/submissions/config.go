// internal/submissions/config.go
package submissions

import "time"

// Config carries the per-service knobs for the submissions flow.
type Config struct {
	// EditManifest names the manifest used for editing draft services.
	EditManifest string
	// DocumentsBucket receives uploaded answer documents.
	DocumentsBucket string
	// URLExpiry bounds signed document URLs.
	URLExpiry time.Duration
	// FrameworkTTL bounds cached framework metadata.
	FrameworkTTL time.Duration
}

// DefaultConfig returns the standard submissions configuration.
func DefaultConfig() Config {
	return Config{
		EditManifest: "edit_submission",
		URLExpiry:    time.Hour,
		FrameworkTTL: 10 * time.Minute,
	}
}
