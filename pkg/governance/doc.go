// Package governance implements the hierarchical policy model and the
// resolution/evaluation engine at the core of Minerva.
//
// Organizations define policies at nested scopes (Company, Org, Team,
// Project). For a validation request targeting a layer, the engine:
//
//  1. Selects the policies whose layer is an ancestor of, or equal to,
//     the target layer (a policy never applies "downward" to a broader
//     validation than its own layer).
//  2. Resolves the effective rule set: rules from mandatory policies are
//     always unioned and are immune to override; optional policies sharing
//     an id combine across layers according to each occurrence's merge
//     strategy (Merge appends, Override replaces), processed broadest to
//     narrowest.
//  3. Evaluates every effective rule against the caller-supplied context
//     and collects violations.
//
// Non-compliance is expressed as data (ValidationResult.Violations), never
// as an error. Errors are reserved for structural failures such as invalid
// rule values or registry misuse.
//
// Example:
//
//	engine := governance.NewEngine(logger)
//	_ = engine.AddPolicy(companySecurityPolicy)
//	result, err := engine.Validate(governance.LayerProject, &governance.Context{
//		Content:      source,
//		Dependencies: []string{"lodash@4.17.21"},
//	})
//
// The engine is safe for concurrent use: validations take an immutable
// snapshot of the registry and run in parallel; AddPolicy is the only
// mutator and takes the write lock.
package governance
