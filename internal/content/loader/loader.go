// internal/content/loader/loader.go
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/logger"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/metrics"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/validation"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/content"
	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/pkg/frameworks"
)

// Registry is the manifest store: named, versioned content manifests and
// small message bundles, loaded once at startup and read-only afterwards.
// It is constructed in main and injected by reference; there is no
// package-level state. Re-loading a registered key is not supported — a
// process restart picks up new definitions.
type Registry struct {
	root      string
	logger    logger.Logger
	schema    *gojsonschema.Schema
	manifests map[string]*content.Manifest
	messages  map[string]map[string]interface{}
}

func NewRegistry(root string, log logger.Logger) (*Registry, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(manifestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile manifest schema: %w", err)
	}
	return &Registry{
		root:      root,
		logger:    log.WithFields(map[string]interface{}{"component": "content-registry"}),
		schema:    schema,
		manifests: make(map[string]*content.Manifest),
		messages:  make(map[string]map[string]interface{}),
	}, nil
}

func manifestKey(frameworkSlug, manifestName string) string {
	return frameworkSlug + "/" + manifestName
}

// LoadManifest reads, schema-checks and registers one manifest from
// <root>/frameworks/<slug>/manifests/<name>.yml.
func (r *Registry) LoadManifest(frameworkSlug, documentType, manifestName string) error {
	key := manifestKey(frameworkSlug, manifestName)
	if _, exists := r.manifests[key]; exists {
		return fmt.Errorf("manifest %s already registered", key)
	}

	path := filepath.Join(r.root, "frameworks", frameworkSlug, "manifests", manifestName+".yml")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read manifest %s: %w", path, err)
	}

	var file manifestFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}

	if err := r.checkSchema(path, data); err != nil {
		return err
	}

	manifest, err := file.build(frameworkSlug, documentType, manifestName)
	if err != nil {
		return fmt.Errorf("manifest %s: %w", path, err)
	}

	r.manifests[key] = manifest
	metrics.ManifestsLoaded.WithLabelValues(frameworkSlug).Inc()
	r.logger.Info("manifest registered", map[string]interface{}{
		"framework":    frameworkSlug,
		"manifest":     manifestName,
		"documentType": documentType,
		"sections":     len(manifest.Sections()),
	})
	return nil
}

// checkSchema validates the raw YAML against the manifest JSON schema so a
// malformed file fails loudly at startup instead of misbehaving at request
// time.
func (r *Registry) checkSchema(path string, data []byte) error {
	var generic interface{}
	if err := yaml.Unmarshal(data, &generic); err != nil {
		return fmt.Errorf("parse manifest %s: %w", path, err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return fmt.Errorf("normalize manifest %s: %w", path, err)
	}
	result, err := r.schema.Validate(gojsonschema.NewBytesLoader(asJSON))
	if err != nil {
		return fmt.Errorf("validate manifest %s: %w", path, err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return fmt.Errorf("manifest %s failed schema check: %s", path, first.String())
	}
	return nil
}

// GetManifest retrieves a previously loaded manifest.
func (r *Registry) GetManifest(frameworkSlug, manifestName string) (*content.Manifest, error) {
	m, ok := r.manifests[manifestKey(frameworkSlug, manifestName)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", content.ErrManifestNotFound, frameworkSlug, manifestName)
	}
	return m, nil
}

// LoadMessages registers the named YAML string bundles for a framework
// (dates, urls, advice) from <root>/frameworks/<slug>/messages/<name>.yml.
func (r *Registry) LoadMessages(frameworkSlug string, names []string) error {
	for _, name := range names {
		key := manifestKey(frameworkSlug, name)
		if _, exists := r.messages[key]; exists {
			return fmt.Errorf("messages %s already registered", key)
		}

		path := filepath.Join(r.root, "frameworks", frameworkSlug, "messages", name+".yml")
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read messages %s: %w", path, err)
		}

		var bundle map[string]interface{}
		if err := yaml.Unmarshal(data, &bundle); err != nil {
			return fmt.Errorf("parse messages %s: %w", path, err)
		}
		r.messages[key] = bundle
	}
	return nil
}

// GetMessage retrieves a previously loaded message bundle.
func (r *Registry) GetMessage(frameworkSlug, name string) (map[string]interface{}, error) {
	bundle, ok := r.messages[manifestKey(frameworkSlug, name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", content.ErrMessageNotFound, frameworkSlug, name)
	}
	return bundle, nil
}

// LoadAll loads everything the framework index declares. Any failure is
// returned immediately: startup must abort rather than serve with a
// partially loaded registry.
func (r *Registry) LoadAll(index *frameworks.Index) error {
	if err := index.Validate(); err != nil {
		return fmt.Errorf("framework index invalid: %w", err)
	}

	for _, fw := range index.Frameworks {
		for _, ref := range fw.Manifests {
			if err := r.LoadManifest(fw.Slug, ref.DocumentType, ref.Name); err != nil {
				return err
			}
		}
		if len(fw.Messages) > 0 {
			if err := r.LoadMessages(fw.Slug, fw.Messages); err != nil {
				return err
			}
		}
	}

	r.logger.Info("content registry loaded", map[string]interface{}{
		"frameworks": len(index.Frameworks),
		"manifests":  len(r.manifests),
		"messages":   len(r.messages),
	})
	return nil
}

// --- YAML file shapes ---

type manifestFile struct {
	Name     string        `yaml:"name"`
	Sections []sectionFile `yaml:"sections"`
}

type sectionFile struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Editable    bool           `yaml:"editable"`
	Questions   []questionFile `yaml:"questions"`
}

type questionFile struct {
	Slug        string                  `yaml:"slug"`
	Label       string                  `yaml:"label"`
	Hint        string                  `yaml:"hint"`
	Kind        string                  `yaml:"kind"`
	Optional    bool                    `yaml:"optional"`
	Fields      []string                `yaml:"fields"`
	Depends     []content.Dependency    `yaml:"depends"`
	Validations []validation.Constraint `yaml:"validations"`
}

var knownKinds = map[string]content.QuestionKind{
	"text":       content.KindText,
	"textbox":    content.KindTextbox,
	"boolean":    content.KindBoolean,
	"radios":     content.KindRadios,
	"checkboxes": content.KindCheckboxes,
	"list":       content.KindList,
	"pricing":    content.KindPricing,
	"upload":     content.KindUpload,
}

func (f manifestFile) build(frameworkSlug, documentType, manifestName string) (*content.Manifest, error) {
	seenSlugs := make(map[string]bool)
	sections := make([]*content.Section, 0, len(f.Sections))

	for _, sf := range f.Sections {
		questions := make([]*content.Question, 0, len(sf.Questions))
		for _, qf := range sf.Questions {
			kind, ok := knownKinds[qf.Kind]
			if !ok {
				return nil, fmt.Errorf("question %s has unknown kind %q", qf.Slug, qf.Kind)
			}
			if seenSlugs[qf.Slug] {
				return nil, fmt.Errorf("duplicate question slug %s", qf.Slug)
			}
			seenSlugs[qf.Slug] = true

			questions = append(questions, &content.Question{
				Slug:        qf.Slug,
				Label:       qf.Label,
				Hint:        qf.Hint,
				Kind:        kind,
				Optional:    qf.Optional,
				Fields:      qf.Fields,
				DependsOn:   qf.Depends,
				Constraints: qf.Validations,
			})
		}
		sections = append(sections, &content.Section{
			ID:          sf.ID,
			Name:        sf.Name,
			Description: sf.Description,
			Editable:    sf.Editable,
			Questions:   questions,
		})
	}

	return content.NewManifest(frameworkSlug, documentType, manifestName, sections), nil
}
