package helpers

import "testing"

const pairSchema = `{
  "type": "object",
  "required": ["name", "count"],
  "properties": {
    "name":  {"type": "string", "minLength": 1},
    "count": {"type": "integer", "minimum": 0}
  }
}`

func TestDecodeValidated(t *testing.T) {
	t.Parallel()
	schema := MustCompileSchema("argos://test/pair.json", pairSchema)

	var out struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := DecodeValidated("```json\n{\"name\": \"x\", \"count\": 2}\n```", schema, &out); err != nil {
		t.Fatalf("DecodeValidated: %v", err)
	}
	if out.Name != "x" || out.Count != 2 {
		t.Fatalf("out = %+v", out)
	}

	for _, bad := range []string{
		`{"name": "", "count": 1}`,
		`{"name": "x"}`,
		`{"name": "x", "count": -1}`,
		`no json here`,
	} {
		if err := DecodeValidated(bad, schema, &out); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
