package chat

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPersonas_Get(t *testing.T) {
	t.Parallel()

	p := NewPersonas()

	persona, err := p.Get("pirate")
	if err != nil {
		t.Fatalf("Get(pirate): %v", err)
	}
	if persona.Name != "pirate" || persona.Prompt == "" {
		t.Errorf("unexpected persona: %+v", persona)
	}

	// Case and whitespace are normalized.
	if _, err := p.Get("  Pirate "); err != nil {
		t.Errorf("Get with casing: %v", err)
	}
}

func TestPersonas_GetSuggestsClosest(t *testing.T) {
	t.Parallel()

	p := NewPersonas()

	_, err := p.Get("pirat")
	if err == nil {
		t.Fatal("expected error for unknown persona")
	}
	if !strings.Contains(err.Error(), `"pirate"`) {
		t.Errorf("error should suggest pirate: %v", err)
	}

	// Far-off names get no suggestion.
	_, err = p.Get("zzzzzzzzzz")
	if err == nil {
		t.Fatal("expected error")
	}
	if strings.Contains(err.Error(), "did you mean") {
		t.Errorf("unexpected suggestion: %v", err)
	}
}

func TestPersonas_NamesFiltersRestricted(t *testing.T) {
	t.Parallel()

	p := NewPersonas()

	for _, name := range p.Names(false) {
		persona, err := p.Get(name)
		if err != nil {
			t.Fatalf("Get(%q): %v", name, err)
		}
		if persona.Restricted {
			t.Errorf("restricted persona %q listed for non-admins", name)
		}
	}

	if len(p.Names(true)) <= len(p.Names(false)) {
		t.Error("admin listing should include restricted personas")
	}
}

func TestLoadPersonas(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "personas.yaml")
	content := `
- name: Librarian
  prompt: You are a soft-spoken librarian.
- name: pirate
  prompt: Overridden pirate prompt.
  restricted: true
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPersonas(path)
	if err != nil {
		t.Fatalf("LoadPersonas: %v", err)
	}

	// New persona added, name lowercased.
	if _, err := p.Get("librarian"); err != nil {
		t.Errorf("librarian should exist: %v", err)
	}
	// Built-in overridden.
	pirate, err := p.Get("pirate")
	if err != nil {
		t.Fatalf("Get(pirate): %v", err)
	}
	if pirate.Prompt != "Overridden pirate prompt." || !pirate.Restricted {
		t.Errorf("pirate not overridden: %+v", pirate)
	}
	// Built-ins without overrides survive.
	if _, err := p.Get("assistant"); err != nil {
		t.Errorf("assistant should survive overlay: %v", err)
	}
}

func TestLoadPersonas_Invalid(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	cases := map[string]string{
		"missing name":   "- prompt: no name here\n",
		"missing prompt": "- name: silent\n",
		"not yaml":       "{{{",
	}
	for name, content := range cases {
		path := filepath.Join(dir, strings.ReplaceAll(name, " ", "-")+".yaml")
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadPersonas(path); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}

	if _, err := LoadPersonas(filepath.Join(dir, "does-not-exist.yaml")); err == nil {
		t.Error("missing file: expected error")
	}
}
