package governance

import (
	"log/slog"
	"sync"
	"time"
)

// Observer receives evaluation outcomes for instrumentation. Implementations
// must be safe for concurrent use.
type Observer interface {
	// ObserveValidation is called after every Validate with the target
	// layer, the number of rules evaluated, the violations found, and the
	// evaluation duration.
	ObserveValidation(layer KnowledgeLayer, rulesEvaluated int, violations []Violation, duration time.Duration)
}

// Engine owns the policy registry and performs validations against it.
//
// The registry follows single-writer/multiple-reader discipline: AddPolicy
// and RemovePolicy take the write lock, Validate takes an immutable snapshot
// under the read lock and never mutates policies. Concurrent validations are
// safe with no further locking.
type Engine struct {
	mu       sync.RWMutex
	policies []*Policy
	logger   *slog.Logger
	observer Observer
}

// NewEngine creates an empty governance engine.
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default().With("component", "governance.engine")
	}
	return &Engine{logger: logger}
}

// SetObserver installs an instrumentation observer. Pass nil to disable.
// Not safe to call concurrently with Validate.
func (e *Engine) SetObserver(obs Observer) {
	e.observer = obs
}

// AddPolicy compiles and registers a policy. A policy with the same id and
// layer replaces the previous registration; the same id at a different
// layer is a distinct occurrence of the same logical policy.
func (e *Engine) AddPolicy(policy *Policy) error {
	if policy == nil {
		return &RegistryError{Operation: "add", Message: "policy cannot be nil"}
	}
	if policy.ID == "" {
		return &RegistryError{Operation: "add", Message: "policy id cannot be empty"}
	}
	if !policy.Layer.Valid() {
		return &RegistryError{PolicyID: policy.ID, Operation: "add", Message: "invalid layer"}
	}
	if err := policy.Compile(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Snapshots handed out under the read lock share the backing array, so
	// every mutation builds a fresh slice instead of writing in place.
	for i, existing := range e.policies {
		if existing.ID == policy.ID && existing.Layer == policy.Layer {
			next := make([]*Policy, len(e.policies))
			copy(next, e.policies)
			next[i] = policy
			e.policies = next
			e.logger.Info("policy replaced",
				"policy_id", policy.ID,
				"layer", policy.Layer.String(),
				"rule_count", len(policy.Rules),
			)
			return nil
		}
	}

	next := make([]*Policy, len(e.policies), len(e.policies)+1)
	copy(next, e.policies)
	e.policies = append(next, policy)
	e.logger.Info("policy registered",
		"policy_id", policy.ID,
		"layer", policy.Layer.String(),
		"mode", string(policy.Mode),
		"rule_count", len(policy.Rules),
	)
	return nil
}

// RemovePolicy unregisters the policy with the given id at the given layer.
func (e *Engine) RemovePolicy(id string, layer KnowledgeLayer) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, existing := range e.policies {
		if existing.ID == id && existing.Layer == layer {
			next := make([]*Policy, 0, len(e.policies)-1)
			next = append(next, e.policies[:i]...)
			next = append(next, e.policies[i+1:]...)
			e.policies = next
			return nil
		}
	}
	return ErrPolicyNotFound
}

// ReplaceAll atomically swaps the full policy collection. Used by the
// loader on hot reload so watchers never observe a partially loaded set.
func (e *Engine) ReplaceAll(policies []*Policy) error {
	compiled := make([]*Policy, 0, len(policies))
	for _, p := range policies {
		if p == nil || p.ID == "" {
			return &RegistryError{Operation: "replace", Message: "policy cannot be nil or unnamed"}
		}
		if err := p.Compile(); err != nil {
			return err
		}
		compiled = append(compiled, p)
	}

	e.mu.Lock()
	e.policies = compiled
	e.mu.Unlock()

	e.logger.Info("policy registry replaced", "policy_count", len(compiled))
	return nil
}

// Policies returns a snapshot of all registered policies.
func (e *Engine) Policies() []*Policy {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snapshot := make([]*Policy, len(e.policies))
	copy(snapshot, e.policies)
	return snapshot
}

// Validate resolves the effective rule set for the target layer and
// evaluates the context against it. Non-compliance is reported as data;
// Validate returns an error only for structural failures.
func (e *Engine) Validate(target KnowledgeLayer, ctx *Context) (*ValidationResult, error) {
	if !target.Valid() {
		return nil, ErrInvalidLayer
	}

	start := time.Now()

	e.mu.RLock()
	policies := e.policies
	e.mu.RUnlock()

	rules := ResolveEffectiveRules(policies, target)
	violations := EvaluateRules(rules, ctx)

	if e.observer != nil {
		e.observer.ObserveValidation(target, len(rules), violations, time.Since(start))
	}

	e.logger.Debug("validation completed",
		"layer", target.String(),
		"rules_evaluated", len(rules),
		"violations", len(violations),
	)

	return &ValidationResult{
		IsValid:        len(violations) == 0,
		Violations:     violations,
		RulesEvaluated: len(rules),
	}, nil
}
