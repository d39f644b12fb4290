package prompts

import (
	"strings"
	"testing"
)

func TestLoaderFindsEmbeddedTemplates(t *testing.T) {
	loader, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	roles := []string{
		"product_operator", "growth_distribution", "systems_architecture",
		"capital_allocator", "risk_reality", "creative_director", "product_purist",
	}
	for _, role := range roles {
		if !loader.Has(role) {
			t.Fatalf("missing embedded template for %s", role)
		}
	}
	if loader.Philosophy() == "" {
		t.Fatal("philosophy template missing or empty")
	}
}

func TestRenderSubstitutesVariables(t *testing.T) {
	loader, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	text, err := loader.Render("product_operator", map[string]string{"philosophy": "MARKER-TEXT"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(text, "MARKER-TEXT") {
		t.Fatal("philosophy placeholder not substituted")
	}
	if strings.Contains(text, "{{philosophy}}") {
		t.Fatal("placeholder survived substitution")
	}
}

func TestRoleInstructionsFallback(t *testing.T) {
	loader, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}

	text := loader.RoleInstructions("brand_new_role", "Comet", "judges novelty", "keep it small")
	if !strings.Contains(text, "Comet") || !strings.Contains(text, "brand_new_role") {
		t.Fatalf("fallback instructions missing role identity: %q", text)
	}
	if !strings.Contains(text, "keep it small") {
		t.Fatal("fallback instructions missing philosophy")
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	loader, err := NewLoader()
	if err != nil {
		t.Fatalf("NewLoader failed: %v", err)
	}
	if _, err := loader.Render("nonexistent", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}
