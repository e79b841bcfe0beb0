// internal/models/document.go
package models

// Draft service lifecycle states, owned and enforced by the data API. The
// portal only observes them.
const (
	StatusNotSubmitted = "not-submitted"
	StatusSubmitted    = "submitted"
	StatusComplete     = "complete"
)

// Declaration lifecycle states.
const (
	DeclarationNotStarted = "not-started"
	DeclarationStarted    = "started"
	DeclarationComplete   = "complete"
)

// Document is a snapshot of an externally persisted, semi-structured record
// (a draft service or a declaration). The portal never stores one; it reads
// a snapshot, derives a patch and submits the patch back.
type Document map[string]interface{}

// Field returns the raw stored value for a field name.
func (d Document) Field(name string) (interface{}, bool) {
	v, ok := d[name]
	return v, ok
}

// String returns the field as a string when it is one.
func (d Document) String(name string) string {
	if v, ok := d[name].(string); ok {
		return v
	}
	return ""
}

// Bool returns the field as a bool when it is one.
func (d Document) Bool(name string) (bool, bool) {
	v, ok := d[name].(bool)
	return v, ok
}

// StringList returns the field as a list of strings when it is one.
func (d Document) StringList(name string) []string {
	switch v := d[name].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Answered reports whether the field holds a non-empty answer. Explicit
// false is an answer; nil, "" and empty lists are not.
func (d Document) Answered(name string) bool {
	v, ok := d[name]
	if !ok || v == nil {
		return false
	}
	switch val := v.(type) {
	case string:
		return val != ""
	case []string:
		return len(val) > 0
	case []interface{}:
		return len(val) > 0
	}
	return true
}

// Copy returns a shallow copy safe for request-local mutation.
func (d Document) Copy() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// DraftService wraps a draft service snapshot with typed accessors for the
// envelope fields the API always populates.
type DraftService struct {
	Document
}

func (s DraftService) ID() string            { return s.Document.String("id") }
func (s DraftService) FrameworkSlug() string { return s.Document.String("frameworkSlug") }
func (s DraftService) Lot() string           { return s.Document.String("lot") }
func (s DraftService) Status() string        { return s.Document.String("status") }
func (s DraftService) ServiceName() string   { return s.Document.String("serviceName") }
