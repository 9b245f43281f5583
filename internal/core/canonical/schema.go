package canonical

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kirillkom/health-record-extractor/internal/core/domain"
)

const reportSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["reportType", "vitalSigns", "labResults", "findings", "diagnosis", "recommendations"],
  "properties": {
    "reportType": {"type": "string", "minLength": 1},
    "patientName": {"type": "string", "minLength": 1},
    "doctorName": {"type": "string", "minLength": 1},
    "hospitalName": {"type": "string", "minLength": 1},
    "date": {"type": "string", "minLength": 1},
    "vitalSigns": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "bloodPressure": {"type": "string", "minLength": 1},
        "heartRate": {"type": "string", "minLength": 1},
        "temperature": {"type": "string", "minLength": 1},
        "weight": {"type": "string", "minLength": 1},
        "height": {"type": "string", "minLength": 1},
        "respiratoryRate": {"type": "string", "minLength": 1},
        "oxygenSaturation": {"type": "string", "minLength": 1}
      }
    },
    "labResults": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["testName", "value"],
        "properties": {
          "testName": {"type": "string", "minLength": 1},
          "value": {"type": "string", "minLength": 1},
          "unit": {"type": "string", "minLength": 1},
          "referenceRange": {"type": "string", "minLength": 1},
          "status": {"enum": ["Normal", "High", "Low", "Critical"]}
        }
      }
    },
    "findings": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["category"],
        "properties": {
          "category": {"type": "string", "minLength": 1},
          "finding": {"type": "string", "minLength": 1},
          "severity": {"enum": ["Mild", "Moderate", "Severe"]}
        }
      }
    },
    "diagnosis": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "recommendations": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "summary": {"type": "string", "minLength": 1},
    "nextAppointment": {"type": "string", "minLength": 1}
  }
}`

const prescriptionSchemaJSON = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["medicines"],
  "properties": {
    "doctorName": {"type": "string", "minLength": 1},
    "date": {"type": "string", "minLength": 1},
    "notes": {"type": "string", "minLength": 1},
    "medicines": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["medicationName", "dosage"],
        "properties": {
          "medicationName": {"type": "string", "minLength": 1},
          "dosage": {
            "type": "object",
            "additionalProperties": false,
            "required": ["morning", "noon", "afternoon", "night"],
            "properties": {
              "morning": {"type": "integer", "minimum": 0},
              "noon": {"type": "integer", "minimum": 0},
              "afternoon": {"type": "integer", "minimum": 0},
              "night": {"type": "integer", "minimum": 0}
            }
          },
          "instructions": {"type": "string", "minLength": 1},
          "frequency": {"type": "string", "minLength": 1},
          "duration": {"type": "string", "minLength": 1}
        }
      }
    }
  }
}`

// SchemaJSON returns the strict JSON Schema of the canonical record for kind.
func SchemaJSON(kind domain.SchemaKind) string {
	if kind == domain.SchemaPrescription {
		return prescriptionSchemaJSON
	}
	return reportSchemaJSON
}

var (
	compileOnce     sync.Once
	compiledSchemas map[domain.SchemaKind]*jsonschema.Schema
	compileErr      error
)

func compiledSchema(kind domain.SchemaKind) (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchemas = make(map[domain.SchemaKind]*jsonschema.Schema, 2)
		for _, k := range []domain.SchemaKind{domain.SchemaReport, domain.SchemaPrescription} {
			compiler := jsonschema.NewCompiler()
			name := string(k) + ".json"
			if err := compiler.AddResource(name, strings.NewReader(SchemaJSON(k))); err != nil {
				compileErr = fmt.Errorf("add %s schema: %w", k, err)
				return
			}
			schema, err := compiler.Compile(name)
			if err != nil {
				compileErr = fmt.Errorf("compile %s schema: %w", k, err)
				return
			}
			compiledSchemas[k] = schema
		}
	})
	if compileErr != nil {
		return nil, compileErr
	}
	schema, ok := compiledSchemas[kind]
	if !ok {
		return nil, fmt.Errorf("no schema for kind %q", kind)
	}
	return schema, nil
}

// Conforms checks a canonical record against the strict schema of its kind.
func Conforms(kind domain.SchemaKind, record any) error {
	schema, err := compiledSchema(kind)
	if err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("record does not match %s schema: %w", kind, err)
	}
	return nil
}
