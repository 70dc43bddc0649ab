// Minerva is a multi-tenant hierarchical policy governance engine.
//
// Organizations define compliance, style, and security rules at nested
// scopes (company, org, team, project). Minerva resolves which rules apply
// to a unit, evaluates submitted context against them, scores policy
// drift, and manages the proposal lifecycle by which new rule sets become
// active.
//
// Usage:
//
//	# Start the governance service with default configuration
//	minerva serve
//
//	# Validate a context against the policies for a layer
//	minerva validate --layer team --content-file main.go
//
//	# Run a drift check for a unit
//	minerva drift check --tenant acme --unit api-gw --layer project
//
//	# Lint policy files
//	minerva policy lint --path ./policies
//
//	# Submit a draft for approval
//	minerva proposal submit d-42 --by alice --justification "tighten security"
package main

func main() {
	Execute()
}
