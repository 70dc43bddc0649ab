package governance

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// RuleCheck is the typed interpretation of a rule's raw value, parsed once
// at construction rather than re-interpreted on every evaluation.
//
// Holds reports whether the check's condition is observed in the context.
// The condition is always the positive predicate (pattern matches,
// dependency present, key exists); operator and rule-type polarity are
// applied by the evaluator, not here. A missing context field makes the
// condition false.
type RuleCheck interface {
	Holds(ctx *Context) bool
}

// RegexCheck tests a pattern against the submitted content. Used for the
// code and import targets.
type RegexCheck struct {
	Pattern *regexp.Regexp
	Target  ConstraintTarget
}

// Holds reports whether the pattern matches the content (code target) or
// the content or any import entry (import target).
func (c *RegexCheck) Holds(ctx *Context) bool {
	if ctx == nil {
		return false
	}
	if ctx.Content != "" && c.Pattern.MatchString(ctx.Content) {
		return true
	}
	if c.Target == TargetImport {
		for _, imp := range ctx.Imports {
			if c.Pattern.MatchString(imp) {
				return true
			}
		}
	}
	return false
}

// DependencyCheck tests for a dependency by name, optionally constrained to
// a semver range. Dependency entries may carry a version as "name@version";
// an entry without a version satisfies the name match but never a
// version constraint.
type DependencyCheck struct {
	Name       string
	Constraint *semver.Constraints
}

// Holds reports whether a matching dependency is declared in the context.
func (c *DependencyCheck) Holds(ctx *Context) bool {
	if ctx == nil {
		return false
	}
	for _, dep := range ctx.Dependencies {
		name, version := splitDependency(dep)
		if name != c.Name {
			continue
		}
		if c.Constraint == nil {
			return true
		}
		v, err := semver.NewVersion(version)
		if err != nil {
			continue
		}
		if c.Constraint.Check(v) {
			return true
		}
	}
	return false
}

// PresenceCheck tests for a key in the config map or an entry in the file
// list, depending on the target.
type PresenceCheck struct {
	Key    string
	Target ConstraintTarget
}

// Holds reports whether the key or file entry is present.
func (c *PresenceCheck) Holds(ctx *Context) bool {
	if ctx == nil {
		return false
	}
	switch c.Target {
	case TargetConfig:
		_, ok := ctx.Config[c.Key]
		return ok
	case TargetFile:
		for _, f := range ctx.Files {
			if f == c.Key {
				return true
			}
		}
	}
	return false
}

// CompileCheck parses a raw rule value into the typed check for the given
// target. The value may be a plain string or a structured map; maps use
// the keys "pattern" (code/import), "name" and "version" (dependency), or
// "key" (config/file).
func CompileCheck(target ConstraintTarget, value any) (RuleCheck, error) {
	switch target {
	case TargetCode, TargetImport:
		pattern, err := stringField(value, "pattern")
		if err != nil {
			return nil, err
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		return &RegexCheck{Pattern: re, Target: target}, nil

	case TargetDependency:
		name, err := stringField(value, "name")
		if err != nil {
			return nil, err
		}
		check := &DependencyCheck{Name: name}
		if m, ok := value.(map[string]any); ok {
			if raw, ok := m["version"]; ok {
				vs, ok := raw.(string)
				if !ok {
					return nil, fmt.Errorf("dependency version must be a string, got %T", raw)
				}
				constraint, err := semver.NewConstraint(vs)
				if err != nil {
					return nil, fmt.Errorf("invalid version constraint %q: %w", vs, err)
				}
				check.Constraint = constraint
			}
		}
		return check, nil

	case TargetConfig, TargetFile:
		key, err := stringField(value, "key")
		if err != nil {
			return nil, err
		}
		return &PresenceCheck{Key: key, Target: target}, nil

	default:
		return nil, fmt.Errorf("unknown constraint target %q", target)
	}
}

// stringField extracts the rule value as a string, either directly or from
// the named key of a structured map.
func stringField(value any, key string) (string, error) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return "", fmt.Errorf("rule value cannot be empty")
		}
		return v, nil
	case map[string]any:
		raw, ok := v[key]
		if !ok {
			return "", fmt.Errorf("rule value missing %q field", key)
		}
		s, ok := raw.(string)
		if !ok || s == "" {
			return "", fmt.Errorf("rule value %q field must be a non-empty string", key)
		}
		return s, nil
	case nil:
		return "", fmt.Errorf("rule value cannot be nil")
	default:
		return "", fmt.Errorf("unsupported rule value type %T", value)
	}
}

// splitDependency splits a "name@version" dependency entry. Entries without
// a version return an empty version.
func splitDependency(dep string) (name, version string) {
	// Scoped npm-style names ("@scope/pkg@1.0.0") keep their leading "@".
	if i := strings.LastIndex(dep, "@"); i > 0 {
		return dep[:i], dep[i+1:]
	}
	return dep, ""
}
