package turn

import (
	"context"
	"errors"
	"testing"

	"github.com/argos-research/argos/config"
	"github.com/argos-research/argos/models"
)

func TestBuildReportsMissingKey(t *testing.T) {
	t.Parallel()
	cfg := config.Config{}.Normalize()
	_, err := Build(context.Background(), cfg, quiet)
	var missing *ConfigMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want ConfigMissingError", err)
	}
	if missing.Setting != "llm.groq_api_key" {
		t.Fatalf("setting = %q", missing.Setting)
	}
}

func TestBuildWithoutOptionalServices(t *testing.T) {
	t.Parallel()
	cfg := config.Config{}.Normalize()
	cfg.LLM.GroqAPIKey = "test-key"
	p, err := Build(context.Background(), cfg, quiet)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer p.Close()
	if p.Planner == nil || p.Executor == nil || p.Answerer == nil || p.Titles == nil || p.FollowUps == nil {
		t.Fatalf("incomplete pipeline: %+v", p)
	}
	for _, name := range p.Catalog.Names() {
		if _, ok := p.Catalog.Lookup(string(name)); !ok {
			t.Fatalf("catalog lookup %s", name)
		}
	}
	if _, ok := p.Catalog.Lookup(string(models.ToolCombinedNews)); !ok {
		t.Fatalf("news tool missing from catalog")
	}
}
