// internal/content/question.go
package content

import (
	"strings"

	"github.com/mellowdistrict/digitalmarketplace-supplier-frontend/internal/common/validation"
)

// QuestionKind is the closed set of question variants a manifest may
// declare. The binder and validator switch exhaustively over these.
type QuestionKind string

const (
	KindText       QuestionKind = "text"
	KindTextbox    QuestionKind = "textbox"
	KindBoolean    QuestionKind = "boolean"
	KindRadios     QuestionKind = "radios"
	KindCheckboxes QuestionKind = "checkboxes"
	KindList       QuestionKind = "list"
	KindPricing    QuestionKind = "pricing"
	KindUpload     QuestionKind = "upload"
)

// Dependency declares under which prior answers a question applies. All
// dependencies on a question must hold (conjunction); a dependency holds
// when the context value for On is one of Being.
type Dependency struct {
	On    string   `yaml:"on" json:"on"`
	Being []string `yaml:"being" json:"being"`
}

// Question is a single logical form input, possibly backed by several
// document fields (e.g. the pricing min/max/unit group).
type Question struct {
	Slug        string
	Label       string
	Hint        string
	Kind        QuestionKind
	Optional    bool
	Fields      []string
	DependsOn   []Dependency
	Constraints []validation.Constraint
}

// FormFields returns the backing document field names this question owns.
// A question with no explicit fields is backed by a field named after its
// slug.
func (q *Question) FormFields() []string {
	if len(q.Fields) == 0 {
		return []string{q.Slug}
	}
	out := make([]string, len(q.Fields))
	copy(out, q.Fields)
	return out
}

func (q *Question) ownsField(name string) bool {
	for _, f := range q.FormFields() {
		if f == name {
			return true
		}
	}
	return false
}

// appliesTo evaluates the question's dependency conjunction against a
// filter context. A question with no dependencies always applies.
func (q *Question) appliesTo(ctx FilterContext) bool {
	for _, dep := range q.DependsOn {
		val, ok := ctx[dep.On]
		if !ok {
			return false
		}
		matched := false
		for _, want := range dep.Being {
			if val == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// ValueKind tags a FieldValue.
type ValueKind int

const (
	StringValue ValueKind = iota
	BoolValue
	ListValue
	NullValue
)

// FieldValue is a schema-checked document field value. Patches carry these
// instead of loose interface{} values so unknown shapes are rejected at the
// binder boundary.
type FieldValue struct {
	Kind ValueKind
	Str  string
	Bool bool
	List []string
}

func NewString(s string) FieldValue { return FieldValue{Kind: StringValue, Str: s} }
func NewBool(b bool) FieldValue     { return FieldValue{Kind: BoolValue, Bool: b} }
func NewList(items []string) FieldValue {
	out := make([]string, len(items))
	copy(out, items)
	return FieldValue{Kind: ListValue, List: out}
}

// Null marks a field for removal in a patch.
func Null() FieldValue { return FieldValue{Kind: NullValue} }

// FieldValueOf converts a raw stored value into a tagged value. Unknown
// shapes report ok=false.
func FieldValueOf(raw interface{}) (FieldValue, bool) {
	switch v := raw.(type) {
	case nil:
		return Null(), true
	case string:
		return NewString(v), true
	case bool:
		return NewBool(v), true
	case []string:
		return NewList(v), true
	case []interface{}:
		items := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return FieldValue{}, false
			}
			items = append(items, s)
		}
		return NewList(items), true
	}
	return FieldValue{}, false
}

// Raw returns the value in the shape the data API stores.
func (v FieldValue) Raw() interface{} {
	switch v.Kind {
	case StringValue:
		return v.Str
	case BoolValue:
		return v.Bool
	case ListValue:
		return v.List
	}
	return nil
}

// FormStrings returns the flat form representation of the value.
func (v FieldValue) FormStrings() []string {
	switch v.Kind {
	case StringValue:
		return []string{v.Str}
	case BoolValue:
		if v.Bool {
			return []string{"true"}
		}
		return []string{"false"}
	case ListValue:
		out := make([]string, len(v.List))
		copy(out, v.List)
		return out
	}
	return nil
}

// IsEmpty reports whether the value holds no answer. An explicit false is
// an answer.
func (v FieldValue) IsEmpty() bool {
	switch v.Kind {
	case StringValue:
		return strings.TrimSpace(v.Str) == ""
	case ListValue:
		return len(v.List) == 0
	case NullValue:
		return true
	}
	return false
}

// Equal compares two values structurally.
func (v FieldValue) Equal(other FieldValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case StringValue:
		return v.Str == other.Str
	case BoolValue:
		return v.Bool == other.Bool
	case ListValue:
		if len(v.List) != len(other.List) {
			return false
		}
		for i := range v.List {
			if v.List[i] != other.List[i] {
				return false
			}
		}
	}
	return true
}

// Patch is the set of document fields derived from one form submission,
// keyed by declared field name.
type Patch map[string]FieldValue

// ToDocumentFields renders the patch in the shape the data API accepts.
func (p Patch) ToDocumentFields() map[string]interface{} {
	out := make(map[string]interface{}, len(p))
	for k, v := range p {
		out[k] = v.Raw()
	}
	return out
}
