package types

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnionTruthiness(t *testing.T) {
	require.True(t, True().IsAlwaysTruthy())
	require.True(t, False().IsAlwaysFalsy())
	require.True(t, Null().IsAlwaysFalsy())
	require.True(t, IntLiteral(7).IsAlwaysTruthy())
	require.True(t, IntLiteral(0).IsAlwaysFalsy())
	require.True(t, NamedObject("Foo").IsAlwaysTruthy())
	require.False(t, NonEmptyString().IsAlwaysTruthy())

	require.False(t, Bool().IsAlwaysTruthy())
	require.False(t, Bool().IsAlwaysFalsy())
	require.False(t, Int().IsAlwaysTruthy())
	require.False(t, Mixed().IsAlwaysTruthy())
	require.False(t, Mixed().IsAlwaysFalsy())
}

func TestMixedTruthinessFlags(t *testing.T) {
	truthyMixed := New(TMixed{Truthiness: Truthy})
	require.True(t, truthyMixed.IsAlwaysTruthy())

	falsyMixed := New(TMixed{Truthiness: Falsy})
	require.True(t, falsyMixed.IsAlwaysFalsy())
}

func TestMixedUnionIsNeitherWhenUndetermined(t *testing.T) {
	u := New(TBool{HasValue: true, Value: true}, TNull{})
	require.False(t, u.IsAlwaysTruthy())
	require.False(t, u.IsAlwaysFalsy())
}

func TestPossiblyUndefinedIsNotAlwaysTruthy(t *testing.T) {
	u := True()
	u.PossiblyUndefined = true
	require.False(t, u.IsAlwaysTruthy())
}
