package helpers

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MustCompileSchema compiles a JSON schema document registered under url.
func MustCompileSchema(url, doc string) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, strings.NewReader(doc)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", url, err))
	}
	return c.MustCompile(url)
}

// DecodeValidated extracts the JSON payload from model output, validates it
// against schema and decodes it into out.
func DecodeValidated(text string, schema *jsonschema.Schema, out interface{}) error {
	payload, err := ExtractJSON(text)
	if err != nil {
		return err
	}
	var doc interface{}
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return json.Unmarshal([]byte(payload), out)
}
