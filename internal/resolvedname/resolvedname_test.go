package resolvedname

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveFallsBackToLocalName(t *testing.T) {
	m := New()
	require.Equal(t, "Foo", m.Resolve(KindClassLike, "Foo"))
}

func TestResolveUsesImportedMapping(t *testing.T) {
	m := New()
	m.Add(KindClassLike, "Bar", "App\\Models\\Bar")
	require.Equal(t, "App\\Models\\Bar", m.Resolve(KindClassLike, "bar"))
	require.Equal(t, "App\\Models\\Bar", m.Resolve(KindClassLike, "Bar"))
}

func TestResolveIsPerKind(t *testing.T) {
	m := New()
	m.Add(KindFunction, "Reader", "App\\IO\\read_file")
	require.Equal(t, "Reader", m.Resolve(KindClassLike, "Reader"))
	require.Equal(t, "App\\IO\\read_file", m.Resolve(KindFunction, "Reader"))
}
