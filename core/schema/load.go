package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/kaptinlin/jsonschema"

	"github.com/protoqa/scanqc/core/fsx"
)

// metaSchema is the structural contract for reference documents. Malformed
// documents fail here, before interpretation, with a fatal error.
const metaSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["acquisitions"],
  "properties": {
    "acquisitions": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "fields": {"$ref": "#/$defs/fieldList"},
          "series": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["name"],
              "properties": {
                "name": {"type": "string"},
                "fields": {"$ref": "#/$defs/fieldList"}
              }
            }
          }
        }
      }
    }
  },
  "$defs": {
    "fieldList": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["field"],
        "properties": {
          "field": {"type": "string"},
          "tolerance": {"type": "number"}
        }
      }
    }
  }
}`

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func structuralSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiledSchema, compileErr = compiler.Compile([]byte(metaSchema))
		if compileErr != nil {
			compileErr = fmt.Errorf("compile structural schema: %w", compileErr)
		}
	})
	return compiledSchema, compileErr
}

// Load reads a reference document from a JSON or YAML file, validates its
// structure, and interprets it into a constraint tree.
func Load(path string) (*Schema, error) {
	// #nosec G304 -- reference schema path is explicit local user input.
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(content)
	default:
		return Parse(content)
	}
}

// Parse validates and decodes a JSON reference document.
func Parse(content []byte) (*Schema, error) {
	structural, err := structuralSchema()
	if err != nil {
		return nil, err
	}
	result := structural.ValidateJSON(content)
	if !result.IsValid() {
		return nil, fmt.Errorf("reference schema is structurally invalid: %v", result.Errors)
	}

	var tree Schema
	if err := json.Unmarshal(content, &tree); err != nil {
		return nil, fmt.Errorf("parse reference schema: %w", err)
	}
	if err := tree.Validate(); err != nil {
		return nil, fmt.Errorf("reference schema: %w", err)
	}
	return &tree, nil
}

// ParseYAML converts a YAML document to JSON and reuses the JSON pipeline,
// so structural validation and numeric normalization behave identically.
func ParseYAML(content []byte) (*Schema, error) {
	converted, err := yaml.YAMLToJSON(content)
	if err != nil {
		return nil, fmt.Errorf("convert yaml reference schema: %w", err)
	}
	return Parse(converted)
}

// Write serializes the tree to the wire format and writes it atomically.
func Write(path string, tree *Schema) error {
	encoded, err := Marshal(tree)
	if err != nil {
		return err
	}
	if err := fsx.WriteFileAtomic(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write reference schema: %w", err)
	}
	return nil
}

// Marshal renders the wire format with stable two-space indentation.
func Marshal(tree *Schema) ([]byte, error) {
	encoded, err := json.MarshalIndent(tree, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode reference schema: %w", err)
	}
	return append(encoded, '\n'), nil
}
