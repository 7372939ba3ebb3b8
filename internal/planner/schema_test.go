package planner

import "testing"

func TestValidatePlanDocument(t *testing.T) {
	payload := []byte(`{
        "tools": [
            {"name": "brave_search", "args": {"query": "Sudan"}, "reasoning": "context"},
            {"name": "get_information_about_Argos"}
        ]
    }`)
	if err := ValidatePlanDocument(payload); err != nil {
		t.Fatalf("expected payload to validate: %v", err)
	}
}

func TestValidatePlanDocumentFails(t *testing.T) {
	for _, payload := range []string{
		`{"plan": []}`,
		`{"tools": [{"args": {}}]}`,
		`{"tools": [{"name": "brave_search", "args": "Sudan"}]}`,
		`not json`,
	} {
		if err := ValidatePlanDocument([]byte(payload)); err == nil {
			t.Fatalf("expected schema validation to fail for %s", payload)
		}
	}
}

func TestDecodePlanDocument(t *testing.T) {
	doc, err := DecodePlanDocument([]byte(`{"tools": [{"name": "get_combined_news", "args": {"search_query": "Gaza"}}]}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Tools) != 1 || doc.Tools[0].Args["search_query"] != "Gaza" {
		t.Fatalf("doc = %+v", doc)
	}
}
