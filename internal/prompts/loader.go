package prompts

import (
	"embed"
	"fmt"
	"strings"
)

//go:embed *.md
var promptFS embed.FS

// Loader resolves per-role instruction templates from the embedded
// filesystem. Missing role files fall back to a generic instruction built
// from the seat description, so a panel extended with a new role keeps
// working before its prompt file lands.
type Loader struct {
	templates map[string]string
}

// NewLoader reads every embedded template once.
func NewLoader() (*Loader, error) {
	loader := &Loader{templates: make(map[string]string)}

	entries, err := promptFS.ReadDir(".")
	if err != nil {
		return nil, fmt.Errorf("read embedded prompts: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		content, err := promptFS.ReadFile(entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", entry.Name(), err)
		}
		name := strings.TrimSuffix(entry.Name(), ".md")
		loader.templates[name] = string(content)
	}

	return loader, nil
}

// Render returns the named template with {{variable}} placeholders replaced.
func (l *Loader) Render(name string, vars map[string]string) (string, error) {
	template, ok := l.templates[name]
	if !ok {
		return "", fmt.Errorf("prompt template %q not found", name)
	}
	for key, value := range vars {
		template = strings.ReplaceAll(template, fmt.Sprintf("{{%s}}", key), value)
	}
	return template, nil
}

// Has reports whether the named template exists.
func (l *Loader) Has(name string) bool {
	_, ok := l.templates[name]
	return ok
}

// RoleInstructions renders the instruction text for a role, substituting the
// shared philosophy, with a generic fallback when no template exists.
func (l *Loader) RoleInstructions(role, codename, description, philosophy string) string {
	rendered, err := l.Render(role, map[string]string{"philosophy": philosophy})
	if err != nil {
		fallback := fmt.Sprintf("You are %s, the %s. %s", codename, role, description)
		if philosophy != "" {
			fallback += "\n\nOperating philosophy:\n" + philosophy
		}
		return fallback
	}
	return rendered
}

// Philosophy returns the shared board philosophy text, or empty when the
// template is absent.
func (l *Loader) Philosophy() string {
	text, err := l.Render("philosophy", nil)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
