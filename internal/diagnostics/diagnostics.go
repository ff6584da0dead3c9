// Package diagnostics implements the Issue collector of spec.md §6: the
// core's only side-effectful output channel. It mirrors the teacher's
// (referenced but not vendored) diagnostics.DiagnosticError shape — Code,
// Severity, Message, a primary span, Annotations, Notes — deduplicated the
// way internal/analyzer/analyzer.go's walker.addError dedupes by
// "line:col:code", generalized here to "span:code:message".
package diagnostics

import (
	"fmt"

	"github.com/kr/pretty"
	"github.com/mago-analyzer/mago/internal/ast"
)

// Severity classifies an Issue.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityNotice
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return "notice"
	}
}

// Code is the stable issue-code enumeration of spec.md §6.
type Code int

const (
	MixedOperand Code = iota
	NullOperand
	InvalidOperand
	InvalidArgument
	PossiblyInvalidArgument
	TooManyArguments
	TooFewArguments
	NullArgument
	PossiblyNullArgument
	FalseArgument
	PossiblyFalseArgument
	InvalidNamedArgument
	DuplicateNamedArgument
	NamedArgumentOverridesPositional
	NamedArgumentAfterPositional
	NamedArgumentNotAllowed
	InvalidCallable
	AmbiguousInstantiationTarget
	UnknownClassInstantiation
	NonExistentClass
	InterfaceInstantiation
	TraitInstantiation
	EnumInstantiation
	AbstractInstantiation
	UnsafeInstantiation
	DeprecatedClass
	DeprecatedFunction
	DeprecatedMethod
	DeprecatedClosure
	RedundantLogicalOperation
	ImpossibleAssignment
	UnreachableSwitchCase
	UnreachableSwitchDefault
	NeverMatchingSwitchCase
	AlwaysMatchingSwitchCase
	SelfOutsideClassScope
	StaticOutsideClassScope
	ParentOutsideClassScope
	InvalidClassStringExpression
	UnusedParameter
	NoRedundantParentheses
)

var codeNames = map[Code]string{
	MixedOperand:                      "MixedOperand",
	NullOperand:                       "NullOperand",
	InvalidOperand:                    "InvalidOperand",
	InvalidArgument:                   "InvalidArgument",
	PossiblyInvalidArgument:           "PossiblyInvalidArgument",
	TooManyArguments:                  "TooManyArguments",
	TooFewArguments:                   "TooFewArguments",
	NullArgument:                      "NullArgument",
	PossiblyNullArgument:              "PossiblyNullArgument",
	FalseArgument:                     "FalseArgument",
	PossiblyFalseArgument:             "PossiblyFalseArgument",
	InvalidNamedArgument:              "InvalidNamedArgument",
	DuplicateNamedArgument:            "DuplicateNamedArgument",
	NamedArgumentOverridesPositional:  "NamedArgumentOverridesPositional",
	NamedArgumentAfterPositional:      "NamedArgumentAfterPositional",
	NamedArgumentNotAllowed:           "NamedArgumentNotAllowed",
	InvalidCallable:                   "InvalidCallable",
	AmbiguousInstantiationTarget:      "AmbiguousInstantiationTarget",
	UnknownClassInstantiation:         "UnknownClassInstantiation",
	NonExistentClass:                  "NonExistentClass",
	InterfaceInstantiation:            "InterfaceInstantiation",
	TraitInstantiation:                "TraitInstantiation",
	EnumInstantiation:                 "EnumInstantiation",
	AbstractInstantiation:             "AbstractInstantiation",
	UnsafeInstantiation:               "UnsafeInstantiation",
	DeprecatedClass:                   "DeprecatedClass",
	DeprecatedFunction:                "DeprecatedFunction",
	DeprecatedMethod:                  "DeprecatedMethod",
	DeprecatedClosure:                 "DeprecatedClosure",
	RedundantLogicalOperation:         "RedundantLogicalOperation",
	ImpossibleAssignment:              "ImpossibleAssignment",
	UnreachableSwitchCase:             "UnreachableSwitchCase",
	UnreachableSwitchDefault:          "UnreachableSwitchDefault",
	NeverMatchingSwitchCase:           "NeverMatchingSwitchCase",
	AlwaysMatchingSwitchCase:          "AlwaysMatchingSwitchCase",
	SelfOutsideClassScope:             "SelfOutsideClassScope",
	StaticOutsideClassScope:           "StaticOutsideClassScope",
	ParentOutsideClassScope:           "ParentOutsideClassScope",
	InvalidClassStringExpression:      "InvalidClassStringExpression",
	UnusedParameter:                   "UnusedParameter",
	NoRedundantParentheses:            "NoRedundantParentheses",
}

func (c Code) String() string {
	if n, ok := codeNames[c]; ok {
		return n
	}
	return "UnknownCode"
}

// styleLevelCodes are suppressible per spec.md §7 ("Redundant/helpful
// diagnostics ... MUST be suppressible via configuration").
var styleLevelCodes = map[Code]bool{
	RedundantLogicalOperation: true,
	NoRedundantParentheses:    true,
}

// IsStyleLevel reports whether code is a style-level, suppressible note.
func IsStyleLevel(c Code) bool { return styleLevelCodes[c] }

// Role distinguishes an Annotation's primary span from supporting context.
type Role int

const (
	RolePrimary Role = iota
	RoleSecondary
)

// Annotation is one labeled span attached to an Issue.
type Annotation struct {
	Span    ast.Span
	Role    Role
	Message string
}

// Issue is the structured diagnostic of spec.md §6.
type Issue struct {
	Code        Code
	Severity    Severity
	Message     string
	Annotations []Annotation
	Notes       []string
	Help        string
}

func (i Issue) primarySpan() ast.Span {
	for _, a := range i.Annotations {
		if a.Role == RolePrimary {
			return a.Span
		}
	}
	if len(i.Annotations) > 0 {
		return i.Annotations[0].Span
	}
	return ast.Span{}
}

func dedupeKey(i Issue) string {
	s := i.primarySpan()
	return fmt.Sprintf("%s:%d:%d:%d:%s", s.FileID, s.StartOffset, s.EndOffset, i.Code, i.Message)
}

// Collector accumulates Issues for one analysis pass, deduplicated by
// (span, code, message) and, per spec.md §5, appended in deterministic
// order. Message participates in the key so distinct facts about the same
// expression (e.g. one per instantiation candidate) all survive.
type Collector struct {
	issues       []Issue
	seen         map[string]bool
	ignoreStyle  bool
}

// NewCollector builds an empty collector. ignoreStyle mirrors
// config.Settings.IgnoreStyleIssues (SPEC_FULL.md §2).
func NewCollector(ignoreStyle bool) *Collector {
	return &Collector{seen: map[string]bool{}, ignoreStyle: ignoreStyle}
}

// Report records an issue unless it is a duplicate or a suppressed
// style-level note.
func (c *Collector) Report(issue Issue) {
	if c.ignoreStyle && IsStyleLevel(issue.Code) {
		return
	}
	key := dedupeKey(issue)
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.issues = append(c.issues, issue)
}

// Issues returns every recorded issue in report order.
func (c *Collector) Issues() []Issue { return c.issues }

// AnalysisError is the fatal-invariant-violation kind of spec.md §7.3: a
// bug in the analyzer itself, not a fact about the analyzed source. It
// aborts analysis of the current file.
type AnalysisError struct {
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("mago: internal analyzer error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("mago: internal analyzer error: %s", e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

// Dump renders state around a fatal analyzer error for bug reports,
// using kr/pretty the way the teacher's internal debug dumps favor
// struct-field-level detail over JSON.
func Dump(state interface{}) string {
	return fmt.Sprintf("%# v", pretty.Formatter(state))
}
