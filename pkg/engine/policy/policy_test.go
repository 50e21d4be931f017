package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRules(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: unowned
    condition: has_properties && size(owners) == 0
    action: warn
  - id: quarantine
    condition: key.startsWith("s3://quarantine/")
    action: block
    priority: 5
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if len(rules) != 2 {
		t.Fatalf("loaded %d rules, want 2", len(rules))
	}
	if rules[1].ID != "quarantine" || rules[1].Action != ActionBlock || rules[1].Priority != 5 {
		t.Errorf("rule fields wrong: %+v", rules[1])
	}
}

func TestLoadRules_UnknownAction(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := `rules:
  - id: odd
    condition: "true"
    action: drop
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadRules(path); err == nil {
		t.Error("expected an error for an unknown action")
	}
}

func TestLoadRules_MissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected an error for a missing rules file")
	}
}

func TestDefaultRules_Compile(t *testing.T) {
	engine, err := NewCELEngine()
	if err != nil {
		t.Fatalf("Failed to create engine: %v", err)
	}
	if err := engine.Compile(DefaultRules()); err != nil {
		t.Errorf("baseline rules must compile: %v", err)
	}
}
