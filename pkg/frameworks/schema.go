// pkg/frameworks/schema.go
package frameworks

// Index is the published catalogue of framework content: which frameworks
// exist, which manifests and message bundles each one ships, and which lots
// it accepts. The registry's startup load is driven entirely by this file.
type Index struct {
	Version     string         `json:"version"`
	LastUpdated string         `json:"lastUpdated"`
	Frameworks  []FrameworkDef `json:"frameworks"`
}

// FrameworkDef describes one framework iteration's content surface.
type FrameworkDef struct {
	Slug      string        `json:"slug"`
	Name      string        `json:"name"`
	Status    string        `json:"status"`
	Lots      []string      `json:"lots"`
	Manifests []ManifestRef `json:"manifests"`
	Messages  []string      `json:"messages"`
}

// ManifestRef names one manifest file and the document type it applies to.
type ManifestRef struct {
	Name         string `json:"name"`
	DocumentType string `json:"documentType"`
}
