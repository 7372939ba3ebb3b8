package planner

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "embed"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed plan_schema.json
var planSchemaJSON string

// PlanDocument is the JSON object the planner model is asked to return.
type PlanDocument struct {
	Tools []PlanItem `json:"tools"`
}

// PlanItem is one requested tool invocation.
type PlanItem struct {
	Name      string                 `json:"name"`
	Args      map[string]interface{} `json:"args,omitempty"`
	Reasoning string                 `json:"reasoning,omitempty"`
}

var (
	compileOnce sync.Once
	planSchema  *jsonschema.Schema
	compileErr  error
)

// PlanSchema returns the compiled JSON Schema for plan documents.
func PlanSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("plan_schema.json", strings.NewReader(planSchemaJSON)); err != nil {
			compileErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		schema, err := compiler.Compile("plan_schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile planner schema: %w", err)
			return
		}
		planSchema = schema
	})
	return planSchema, compileErr
}

// ValidatePlanDocument validates the provided JSON bytes against the plan schema.
func ValidatePlanDocument(data []byte) error {
	schema, err := PlanSchema()
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("plan is not valid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("plan does not match schema: %w", err)
	}
	return nil
}

// DecodePlanDocument validates data and decodes it.
func DecodePlanDocument(data []byte) (PlanDocument, error) {
	if err := ValidatePlanDocument(data); err != nil {
		return PlanDocument{}, err
	}
	var doc PlanDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return PlanDocument{}, fmt.Errorf("decode plan: %w", err)
	}
	return doc, nil
}
