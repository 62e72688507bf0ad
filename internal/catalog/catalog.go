// Package catalog loads subject catalogue files.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/abhinavpachauri/igcse-estimator/internal/model"
)

const subjectSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["code", "name", "has_tiers", "papers"],
  "properties": {
    "code": {"type": "string", "pattern": "^[0-9]{4}$"},
    "name": {"type": "string", "minLength": 1},
    "has_tiers": {"type": "boolean"},
    "papers": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["paper_number", "name", "max_raw_mark", "weight_percentage"],
        "properties": {
          "paper_number": {"type": "string", "pattern": "^[0-9]+$"},
          "name": {"type": "string", "minLength": 1},
          "tier": {"enum": [null, "Core", "Extended"]},
          "is_ums": {"type": "boolean"},
          "max_raw_mark": {"type": "integer", "minimum": 1},
          "max_ums_mark": {"type": ["integer", "null"], "minimum": 1},
          "weight_percentage": {"type": "number", "exclusiveMinimum": 0, "maximum": 100}
        }
      }
    }
  }
}`

// Validator checks catalogue documents against the subject schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the subject schema.
func NewValidator() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("subject.json", strings.NewReader(subjectSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("subject.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Decode validates data and decodes it into a SubjectConfig.
func (v *Validator) Decode(data []byte) (model.SubjectConfig, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return model.SubjectConfig{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := v.schema.Validate(doc); err != nil {
		return model.SubjectConfig{}, fmt.Errorf("subject does not match schema: %w", err)
	}
	var cfg model.SubjectConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return model.SubjectConfig{}, err
	}
	if !cfg.HasTiers {
		for _, p := range cfg.Papers {
			if p.Tier != model.TierNone {
				return model.SubjectConfig{}, fmt.Errorf("paper %s has tier %s but subject %s is untiered", p.PaperNumber, p.Tier, cfg.Code)
			}
		}
	}
	return cfg, nil
}

// LoadSubjects reads every *.json file in dir, sorted by file name.
func LoadSubjects(dir string) ([]model.SubjectConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("no subject files in %s", dir)
	}

	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]string, len(names))
	subjects := make([]model.SubjectConfig, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		cfg, err := v.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if prev, ok := seen[cfg.Code]; ok {
			return nil, fmt.Errorf("%s: subject %s already defined in %s", name, cfg.Code, prev)
		}
		seen[cfg.Code] = name
		subjects = append(subjects, cfg)
	}
	return subjects, nil
}
