package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Request body schemas. Drawings share one resource so every request checks
// strokes the same way.
const (
	drawingSchemaURL    = "schema://sketchmatch/drawing.json"
	similaritySchemaURL = "schema://sketchmatch/similarity.json"
	promptSchemaURL     = "schema://sketchmatch/prompt.json"
	attemptSchemaURL    = "schema://sketchmatch/attempt.json"
)

var schemaDocs = map[string]string{
	drawingSchemaURL: `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["points"],
    "properties": {
      "points": {
        "type": "array",
        "minItems": 2,
        "maxItems": 2,
        "items": {"type": "array", "items": {"type": "number"}}
      },
      "color": {
        "type": "array",
        "minItems": 3,
        "maxItems": 3,
        "items": {"type": "integer", "minimum": 0, "maximum": 255}
      }
    }
  }
}`,
	similaritySchemaURL: `{
  "type": "object",
  "required": ["reference", "candidate"],
  "properties": {
    "reference": {"$ref": "drawing.json"},
    "candidate": {"$ref": "drawing.json"}
  }
}`,
	promptSchemaURL: `{
  "type": "object",
  "required": ["drawing"],
  "properties": {
    "id": {"type": "string"},
    "word": {"type": "string"},
    "drawing": {"$ref": "drawing.json", "minItems": 1}
  }
}`,
	attemptSchemaURL: `{
  "type": "object",
  "required": ["player_id", "prompt_id", "drawing"],
  "properties": {
    "attempt_id": {"type": "string"},
    "player_id": {"type": "string", "minLength": 1},
    "prompt_id": {"type": "string", "minLength": 1},
    "drawing": {"$ref": "drawing.json"},
    "ts": {"type": "string"}
  }
}`,
}

var (
	schemasOnce sync.Once
	schemas     map[string]*jsonschema.Schema
	schemasErr  error
)

func compileSchemas() (map[string]*jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		c := jsonschema.NewCompiler()
		for url, doc := range schemaDocs {
			parsed, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(doc)))
			if err != nil {
				schemasErr = fmt.Errorf("%w: parse %s: %w", ErrSchema, url, err)
				return
			}
			if err := c.AddResource(url, parsed); err != nil {
				schemasErr = fmt.Errorf("%w: add %s: %w", ErrSchema, url, err)
				return
			}
		}
		out := make(map[string]*jsonschema.Schema, len(schemaDocs))
		for url := range schemaDocs {
			s, err := c.Compile(url)
			if err != nil {
				schemasErr = fmt.Errorf("%w: compile %s: %w", ErrSchema, url, err)
				return
			}
			out[url] = s
		}
		schemas = out
	})
	return schemas, schemasErr
}

// decodeBody validates the request body against the named schema and then
// decodes it into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, maxBytes int64, schemaURL string, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
	if err != nil {
		return fmt.Errorf("%w: read body: %w", ErrBadRequest, err)
	}
	compiled, err := compileSchemas()
	if err != nil {
		return err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %w", ErrBadRequest, err)
	}
	if err := compiled[schemaURL].Validate(inst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return nil
}
