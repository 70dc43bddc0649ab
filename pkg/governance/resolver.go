package governance

import (
	"sort"
)

// ResolveEffectiveRules merges all policies applicable to the target layer
// into a single effective rule set.
//
// Mandatory policies contribute the union of their rules across all
// applicable layers. This union is never affected by any optional policy's
// merge strategy: a narrower-layer optional policy sharing the id of a
// mandatory one cannot suppress or replace the mandatory rules.
//
// Optional policies are grouped by id. Within a group, occurrences are
// processed from broadest to narrowest layer against an accumulator:
// Merge appends the occurrence's rules, Override replaces the accumulator
// with them. The group's contribution is the accumulator after the
// narrowest applicable occurrence.
func ResolveEffectiveRules(policies []*Policy, target KnowledgeLayer) []PolicyRule {
	var mandatory []*Policy
	optional := make(map[string][]*Policy)
	var optionalIDs []string

	for _, p := range policies {
		if p == nil || !p.Layer.AppliesTo(target) {
			continue
		}
		switch p.Mode {
		case ModeMandatory:
			mandatory = append(mandatory, p)
		default:
			if _, seen := optional[p.ID]; !seen {
				optionalIDs = append(optionalIDs, p.ID)
			}
			optional[p.ID] = append(optional[p.ID], p)
		}
	}

	var effective []PolicyRule

	// Mandatory rules first, broadest layer first for stable output.
	sortByLayer(mandatory)
	for _, p := range mandatory {
		effective = append(effective, p.Rules...)
	}

	sort.Strings(optionalIDs)
	for _, id := range optionalIDs {
		group := optional[id]
		sortByLayer(group)

		var accumulated []PolicyRule
		for _, p := range group {
			switch p.MergeStrategy {
			case MergeStrategyOverride:
				accumulated = append([]PolicyRule(nil), p.Rules...)
			default:
				accumulated = append(accumulated, p.Rules...)
			}
		}
		effective = append(effective, accumulated...)
	}

	return effective
}

// sortByLayer orders policies broadest to narrowest, preserving the
// relative order of policies at the same layer.
func sortByLayer(policies []*Policy) {
	sort.SliceStable(policies, func(i, j int) bool {
		return policies[i].Layer < policies[j].Layer
	})
}
