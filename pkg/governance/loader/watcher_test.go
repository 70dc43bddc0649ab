package loader

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/minerva/pkg/governance"
)

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	defer d.stop()

	var calls atomic.Int32
	for i := 0; i < 10; i++ {
		d.trigger(func() { calls.Add(1) })
	}

	time.Sleep(200 * time.Millisecond)
	if got := calls.Load(); got != 1 {
		t.Errorf("callback ran %d times, want 1", got)
	}
}

func TestDebouncer_StopCancelsPending(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)

	var calls atomic.Int32
	d.trigger(func() { calls.Add(1) })
	d.stop()

	time.Sleep(150 * time.Millisecond)
	if got := calls.Load(); got != 0 {
		t.Errorf("callback ran %d times after stop, want 0", got)
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "team.yaml")
	initial := `
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
`
	if err := os.WriteFile(path, []byte(initial), 0o644); err != nil {
		t.Fatalf("writing policy file: %v", err)
	}

	engine := governance.NewEngine(nil)
	m := NewManager(dir, engine, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchErr := make(chan error, 1)
	go func() { watchErr <- m.Watch(ctx) }()

	// Wait for the initial load.
	deadline := time.Now().Add(5 * time.Second)
	for len(engine.Policies()) == 0 {
		if time.Now().After(deadline) {
			t.Fatal("initial load never happened")
		}
		time.Sleep(10 * time.Millisecond)
	}

	// Add a second policy file and wait for the debounced reload.
	second := `
layer: company
policies:
  - id: security-baseline
    mode: mandatory
    rules:
      - id: company-no-eval
        type: deny
        target: code
        operator: must_not_match
        value: 'eval\('
        severity: block
`
	if err := os.WriteFile(filepath.Join(dir, "company.yaml"), []byte(second), 0o644); err != nil {
		t.Fatalf("writing second policy file: %v", err)
	}

	deadline = time.Now().Add(5 * time.Second)
	for len(engine.Policies()) != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("reload never happened, engine has %d policies", len(engine.Policies()))
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-watchErr:
		if err != nil {
			t.Fatalf("Watch returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after context cancellation")
	}
}
