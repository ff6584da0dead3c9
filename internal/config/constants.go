// Package config holds process-wide toggles consulted by the block context
// for deterministic test/LSP output, and the analyzer's fuel bounds
// described in spec.md §5.
package config

// Version is the current core version, set at build time.
var Version = "0.1.0"

// IsTestMode drops the unstable scope id from synthetic switch-temporary
// variable-ids so snapshot tests stay deterministic across runs.
var IsTestMode = false

// IsLSPMode normalizes the same identifiers for presentation to a human in
// an editor, independently of test mode.
var IsLSPMode = false

// Settings groups the fuel bounds and suppressions described in spec.md §5
// and §7. A zero Settings has no bounds; use Default() for production.
type Settings struct {
	// MaxSaturationSteps bounds formula.SaturateClauses.
	MaxSaturationSteps int
	// MaxClauseSetSize bounds the number of clauses considered together
	// before saturation gives up and returns the input unsaturated.
	MaxClauseSetSize int
	// MaxPropagationSteps bounds refgraph transitive invalidation walks.
	MaxPropagationSteps int
	// IgnoreStyleIssues suppresses low-severity diagnostics such as
	// RedundantLogicalOperation and NoRedundantParentheses.
	IgnoreStyleIssues bool
}

// Default returns the production fuel bounds named in spec.md §5.
func Default() Settings {
	return Settings{
		MaxSaturationSteps:  50,
		MaxClauseSetSize:    50,
		MaxPropagationSteps: 5000,
		IgnoreStyleIssues:   false,
	}
}

// Built-in class-like names with hard-coded semantics in the core.
const (
	ClosureClassName = "Closure"
	StdClassName     = "stdClass"
)

// Magic method names consulted by the invocation engine and populator.
const (
	ConstructMethodName = "__construct"
	ToStringMethodName  = "__toString"
	InvokeMethodName    = "__invoke"
)
