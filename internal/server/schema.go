package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxEntries bounds the subjects of one estimate request.
const MaxEntries = 20

var estimateSchema = fmt.Sprintf(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["entries"],
  "properties": {
    "season": {"enum": ["FM", "MJ", "ON", ""]},
    "entries": {
      "type": "array",
      "minItems": 1,
      "maxItems": %d,
      "items": {
        "type": "object",
        "required": ["subject_code", "paper_marks"],
        "properties": {
          "subject_id": {"type": "string"},
          "subject_code": {"type": "string", "pattern": "^[0-9]{4}$"},
          "subject_name": {"type": "string"},
          "tier_selected": {"enum": [null, "Core", "Extended"]},
          "paper_marks": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["raw_mark", "max_raw_mark", "weight_percentage"],
              "properties": {
                "paper_id": {"type": "string"},
                "paper_number": {"type": "string"},
                "paper_name": {"type": "string"},
                "raw_mark": {"type": "integer", "minimum": -1},
                "max_raw_mark": {"type": "integer", "minimum": 0},
                "weight_percentage": {"type": "number", "minimum": 0, "maximum": 100},
                "is_ums": {"type": "boolean"}
              }
            }
          }
        }
      }
    }
  }
}`, MaxEntries)

const reverseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["target_grade_pct", "current_weighted_pct", "target_paper_weight", "target_paper_max_mark"],
  "properties": {
    "target_grade_pct": {"type": "number", "minimum": 0, "maximum": 100},
    "current_weighted_pct": {"type": "number", "minimum": 0, "maximum": 100},
    "target_paper_weight": {"type": "number", "exclusiveMinimum": 0, "maximum": 100},
    "target_paper_max_mark": {"type": "integer", "minimum": 1}
  }
}`

type validator interface {
	Validate(v any) error
}

type validators struct {
	estimate validator
	reverse  validator
}

func compileSchemas() (validators, error) {
	est, err := compileSchema("estimate.json", estimateSchema)
	if err != nil {
		return validators{}, err
	}
	rev, err := compileSchema("reverse.json", reverseSchema)
	if err != nil {
		return validators{}, err
	}
	return validators{estimate: est, reverse: rev}, nil
}

func compileSchema(name, schema string) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, strings.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return compiled, nil
}

// decodeValidated checks data against schema before decoding it into dst.
func decodeValidated(schema validator, data []byte, dst any) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("request does not match schema: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}
