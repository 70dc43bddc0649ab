package loader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"mercator-hq/minerva/pkg/governance"
)

const validPolicyYAML = `
layer: company
policies:
  - id: security-baseline
    name: Security Baseline
    mode: mandatory
    merge_strategy: override
    rules:
      - id: company-no-eval
        type: deny
        target: code
        operator: must_not_match
        value: 'eval\('
        severity: block
        message: eval is forbidden
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "company.yaml", validPolicyYAML)

	l := NewLoader(nil)
	policies, err := l.LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if len(policies) != 1 {
		t.Fatalf("got %d policies, want 1", len(policies))
	}

	p := policies[0]
	if p.ID != "security-baseline" {
		t.Errorf("id = %s", p.ID)
	}
	if p.Layer != governance.LayerCompany {
		t.Errorf("layer = %v, want company", p.Layer)
	}
	if p.Mode != governance.ModeMandatory {
		t.Errorf("mode = %s, want mandatory", p.Mode)
	}
	if p.Rules[0].Check == nil {
		t.Error("rule was not compiled")
	}
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(nil)

	tests := []struct {
		name    string
		path    string
		isParse bool
	}{
		{"missing file", filepath.Join(dir, "nope.yaml"), false},
		{"invalid yaml", writeFile(t, dir, "broken.yaml", "layer: [unclosed"), true},
		{"unknown layer", writeFile(t, dir, "layer.yaml", "layer: galaxy\npolicies:\n  - id: p\n"), true},
		{"no policies", writeFile(t, dir, "empty.yaml", "layer: team\npolicies: []\n"), true},
		{"missing policy id", writeFile(t, dir, "noid.yaml", "layer: team\npolicies:\n  - name: unnamed\n"), true},
		{"bad rule value", writeFile(t, dir, "badrule.yaml", `
layer: team
policies:
  - id: p
    rules:
      - id: r
        type: deny
        target: code
        operator: must_not_match
        value: '[unclosed'
        severity: warn
`), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.LoadFromFile(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}
			var parseErr *ParseError
			var loadErr *LoadError
			if tt.isParse && !errors.As(err, &parseErr) {
				t.Errorf("error = %T, want *ParseError", err)
			}
			if !tt.isParse && !errors.As(err, &loadErr) {
				t.Errorf("error = %T, want *LoadError", err)
			}
		})
	}
}

func TestLoadFromFile_SizeLimit(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "big.yaml", validPolicyYAML)

	l := NewLoader(&Config{MaxFileSize: 10, AllowedExtensions: []string{".yaml"}})
	if _, err := l.LoadFromFile(path); err == nil {
		t.Fatal("expected size limit error")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "company.yaml", validPolicyYAML)
	writeFile(t, dir, "team.yml", `
layer: team
policies:
  - id: coding-style
    rules:
      - id: team-naming
        type: allow
        target: code
        operator: must_match
        value: '^package '
        severity: info
`)
	writeFile(t, dir, "readme.md", "not a policy")
	writeFile(t, dir, ".hidden.yaml", validPolicyYAML)

	l := NewLoader(nil)
	policies, err := l.LoadFromDirectory(dir)
	if err != nil {
		t.Fatalf("LoadFromDirectory: %v", err)
	}
	if len(policies) != 2 {
		t.Fatalf("got %d policies, want 2 (md and hidden skipped)", len(policies))
	}
}

func TestLoadFromDirectory_PartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", validPolicyYAML)
	writeFile(t, dir, "bad.yaml", "layer: galaxy\npolicies:\n  - id: p\n")

	l := NewLoader(nil)
	policies, err := l.LoadFromDirectory(dir)
	if len(policies) != 1 {
		t.Fatalf("got %d policies, want the good one", len(policies))
	}
	var errList *ErrorList
	if !errors.As(err, &errList) || !errList.HasErrors() {
		t.Errorf("error = %v, want *ErrorList with the bad file", err)
	}
}

func TestLoadFromDirectory_AllFailed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yaml", "layer: galaxy\npolicies:\n  - id: p\n")

	l := NewLoader(nil)
	if _, err := l.LoadFromDirectory(dir); err == nil {
		t.Fatal("expected error when every file fails")
	}
}

func TestLoadFromDirectory_Empty(t *testing.T) {
	l := NewLoader(nil)
	if _, err := l.LoadFromDirectory(t.TempDir()); err == nil {
		t.Fatal("expected error for directory without policy files")
	}
}

func TestManager_Load(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "company.yaml", validPolicyYAML)

	engine := governance.NewEngine(nil)
	m := NewManager(dir, engine, nil, nil)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := len(engine.Policies()); got != 1 {
		t.Fatalf("engine has %d policies, want 1", got)
	}

	// A failed reload must leave the engine untouched.
	writeFile(t, dir, "company.yaml", "layer: galaxy\npolicies:\n  - id: p\n")
	if err := m.Load(); err == nil {
		t.Fatal("expected reload error")
	}
	if got := len(engine.Policies()); got != 1 {
		t.Errorf("engine has %d policies after failed reload, want 1", got)
	}
}

// One malformed file must not block the rest of the directory: the
// policies that did load are applied and the failure is only logged.
func TestManager_Load_AppliesPartialDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "company.yaml", validPolicyYAML)
	writeFile(t, dir, "broken.yaml", "layer: galaxy\npolicies:\n  - id: p\n")

	engine := governance.NewEngine(nil)
	m := NewManager(dir, engine, nil, nil)
	if err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := len(engine.Policies()); got != 1 {
		t.Errorf("engine has %d policies after partial load, want 1", got)
	}
}
