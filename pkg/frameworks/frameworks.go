// pkg/frameworks/frameworks.go
package frameworks

import (
	"encoding/json"
	"fmt"
	"os"
)

func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, err
	}
	return &idx, nil
}

// FrameworkBySlug returns the framework definition for a slug, if present.
func (i *Index) FrameworkBySlug(slug string) (*FrameworkDef, bool) {
	for n := range i.Frameworks {
		if i.Frameworks[n].Slug == slug {
			return &i.Frameworks[n], true
		}
	}
	return nil, false
}

// Validate checks the index for the defects that would otherwise only
// surface as confusing load failures: duplicate slugs, missing names,
// manifests without a document type.
func (i *Index) Validate() error {
	if len(i.Frameworks) == 0 {
		return fmt.Errorf("index contains no frameworks")
	}

	slugs := make(map[string]bool)
	for _, fw := range i.Frameworks {
		if fw.Slug == "" {
			return fmt.Errorf("framework missing required field: slug")
		}
		if slugs[fw.Slug] {
			return fmt.Errorf("duplicate framework slug: %s", fw.Slug)
		}
		slugs[fw.Slug] = true

		if fw.Name == "" {
			return fmt.Errorf("framework %s missing required field: name", fw.Slug)
		}
		if len(fw.Manifests) == 0 {
			return fmt.Errorf("framework %s declares no manifests", fw.Slug)
		}

		names := make(map[string]bool)
		for _, m := range fw.Manifests {
			if m.Name == "" {
				return fmt.Errorf("framework %s has a manifest without a name", fw.Slug)
			}
			if m.DocumentType == "" {
				return fmt.Errorf("framework %s manifest %s missing document type", fw.Slug, m.Name)
			}
			if names[m.Name] {
				return fmt.Errorf("framework %s has duplicate manifest name: %s", fw.Slug, m.Name)
			}
			names[m.Name] = true
		}
	}

	return nil
}
