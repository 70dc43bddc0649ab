// Package loader reads policy files from disk and keeps a governance
// engine in sync with them.
//
// A policy file is a YAML document declaring a layer and the policies
// registered at that layer:
//
//	layer: company
//	policies:
//	  - id: security-baseline
//	    name: Security Baseline
//	    mode: mandatory
//	    merge_strategy: override
//	    rules:
//	      - id: company-no-eval
//	        type: deny
//	        target: code
//	        operator: must_not_match
//	        value: 'eval\('
//	        severity: block
//	        message: eval is forbidden
//
// The Manager loads a file or directory into an engine and, with Watch,
// reloads it when files change. Reloads are debounced and atomic: a load
// error leaves the engine's previous policy set in place.
package loader
