// internal/content/loader/schema.go
package loader

// manifestSchema is the JSON schema every manifest file must satisfy
// before it can be registered. manifest-lint runs the same check offline.
const manifestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["sections"],
  "properties": {
    "name": {"type": "string"},
    "sections": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["id", "name", "questions"],
        "properties": {
          "id": {"type": "string", "pattern": "^[a-z0-9]+(-[a-z0-9]+)*$"},
          "name": {"type": "string", "minLength": 1},
          "description": {"type": "string"},
          "editable": {"type": "boolean"},
          "questions": {
            "type": "array",
            "minItems": 1,
            "items": {
              "type": "object",
              "required": ["slug", "kind"],
              "properties": {
                "slug": {"type": "string", "minLength": 1},
                "label": {"type": "string"},
                "hint": {"type": "string"},
                "kind": {
                  "type": "string",
                  "enum": ["text", "textbox", "boolean", "radios", "checkboxes", "list", "pricing", "upload"]
                },
                "optional": {"type": "boolean"},
                "fields": {
                  "type": "array",
                  "items": {"type": "string", "minLength": 1}
                },
                "depends": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["on", "being"],
                    "properties": {
                      "on": {"type": "string", "minLength": 1},
                      "being": {"type": "array", "items": {"type": "string"}, "minItems": 1}
                    }
                  }
                },
                "validations": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "required": ["kind"],
                    "properties": {
                      "kind": {"type": "string", "minLength": 1},
                      "limit": {"type": "integer", "minimum": 1},
                      "pattern": {"type": "string"},
                      "options": {"type": "array", "items": {"type": "string"}},
                      "message": {"type": "string"}
                    }
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`
