package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PlanSchema is the JSON schema every probe plan must satisfy before the
// semantic checks in Validate run.
const PlanSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["steps"],
  "additionalProperties": false,
  "properties": {
    "target": {"type": "string", "minLength": 1},
    "headers": {
      "type": "object",
      "additionalProperties": {"type": "string"}
    },
    "steps": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "name": {"type": "string"},
          "method": {"type": "string", "pattern": "^[A-Za-z]+$"},
          "path": {"type": "string"},
          "timeout": {"type": "string"},
          "concurrency": {"type": "integer"},
          "expect": {
            "type": "object",
            "additionalProperties": false,
            "properties": {
              "outcome": {"enum": ["responded", "timed_out", "unexpected", "failed"]},
              "status": {"type": "integer"}
            }
          }
        }
      }
    }
  }
}`

const planSchemaURL = "plan.schema.json"

var (
	planSchemaOnce     sync.Once
	planSchemaCompiled *jsonschema.Schema
	planSchemaErr      error
)

func compiledPlanSchema() (*jsonschema.Schema, error) {
	planSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(planSchemaURL, strings.NewReader(PlanSchema)); err != nil {
			planSchemaErr = fmt.Errorf("invalid plan schema: %w", err)
			return
		}
		planSchemaCompiled, planSchemaErr = compiler.Compile(planSchemaURL)
	})
	return planSchemaCompiled, planSchemaErr
}

// validateSchema checks a decoded document against PlanSchema. Schema
// violations come back as ValidationErrors keyed by instance location.
func validateSchema(doc interface{}) error {
	schema, err := compiledPlanSchema()
	if err != nil {
		return err
	}

	err = schema.Validate(doc)
	if err == nil {
		return nil
	}

	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return fmt.Errorf("schema validation: %w", err)
	}

	errs := &ValidationErrors{}
	collectSchemaErrors(verr, errs)
	if !errs.HasErrors() {
		errs.Add(instancePath(verr.InstanceLocation), verr.Message)
	}
	return errs
}

// collectSchemaErrors flattens the validator's error tree into its leaves.
func collectSchemaErrors(verr *jsonschema.ValidationError, errs *ValidationErrors) {
	if len(verr.Causes) == 0 {
		errs.Add(instancePath(verr.InstanceLocation), verr.Message)
		return
	}
	for _, cause := range verr.Causes {
		collectSchemaErrors(cause, errs)
	}
}

// instancePath turns a JSON pointer like /steps/0/method into
// steps[0].method.
func instancePath(pointer string) string {
	parts := strings.Split(strings.TrimPrefix(pointer, "/"), "/")
	var sb strings.Builder
	for _, part := range parts {
		if part == "" {
			continue
		}
		if isIndex(part) {
			sb.WriteString("[" + part + "]")
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte('.')
		}
		sb.WriteString(part)
	}
	if sb.Len() == 0 {
		return "plan"
	}
	return sb.String()
}

func isIndex(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
