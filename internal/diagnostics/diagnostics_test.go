package diagnostics

import (
	"testing"

	"github.com/mago-analyzer/mago/internal/ast"
	"github.com/stretchr/testify/require"
)

func issueAt(code Code, offset int) Issue {
	return Issue{
		Code:     code,
		Severity: SeverityError,
		Message:  "test",
		Annotations: []Annotation{
			{Span: ast.Span{FileID: "f.php", StartOffset: offset, EndOffset: offset + 1}, Role: RolePrimary},
		},
	}
}

func TestCollectorDeduplicatesBySpanAndCode(t *testing.T) {
	c := NewCollector(false)
	c.Report(issueAt(TooFewArguments, 10))
	c.Report(issueAt(TooFewArguments, 10))
	require.Len(t, c.Issues(), 1)
}

func TestCollectorKeepsDistinctSpans(t *testing.T) {
	c := NewCollector(false)
	c.Report(issueAt(TooFewArguments, 10))
	c.Report(issueAt(TooFewArguments, 20))
	require.Len(t, c.Issues(), 2)
}

func TestCollectorSuppressesStyleLevelWhenConfigured(t *testing.T) {
	c := NewCollector(true)
	c.Report(issueAt(RedundantLogicalOperation, 1))
	require.Empty(t, c.Issues())
}

func TestCollectorKeepsStyleLevelByDefault(t *testing.T) {
	c := NewCollector(false)
	c.Report(issueAt(NoRedundantParentheses, 1))
	require.Len(t, c.Issues(), 1)
}

func TestAnalysisErrorWrapsCause(t *testing.T) {
	cause := &AnalysisError{Message: "inner"}
	outer := &AnalysisError{Message: "outer", Cause: cause}
	require.ErrorIs(t, outer, cause)
}
