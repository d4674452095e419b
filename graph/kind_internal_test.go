package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindHash(t *testing.T) {
	t.Run("hash returns same value for out-of-order kinds", func(t *testing.T) {
		kindsOne := Kinds{StringKind("A"), StringKind("B"), StringKind("C")}
		kindsTwo := Kinds{StringKind("C"), StringKind("B"), StringKind("A")}

		require.Equal(t, kindsOne.Hash(), kindsTwo.Hash())
	})

	t.Run("hash returns different values when kinds have ambiguous boundaries e.g. [a, bc] vs [ab, c]", func(t *testing.T) {
		kindsOne := Kinds{StringKind("A"), StringKind("BC")}
		kindsTwo := Kinds{StringKind("AB"), StringKind("C")}

		require.NotEqual(t, kindsOne.Hash(), kindsTwo.Hash())
	})

	t.Run("hash returns different values for different kinds", func(t *testing.T) {
		kindsOne := Kinds{StringKind("A"), StringKind("B")}
		kindsTwo := Kinds{StringKind("C"), StringKind("B")}

		require.NotEqual(t, kindsOne.Hash(), kindsTwo.Hash())
	})
}

func TestParseKinds(t *testing.T) {
	kinds := ParseKinds(" Person, Company ,,Person")

	require.Equal(t, []string{"Person", "Company"}, kinds.Strings())
	require.Equal(t, 1, kinds.IndexOf(StringKind("Company")))
	require.Equal(t, -1, kinds.IndexOf(StringKind("Place")))
	require.Empty(t, ParseKinds(""))
}

func TestStringKindIsInterned(t *testing.T) {
	require.True(t, StringKind("Person") == StringKind("Person"))
	require.True(t, StringKind("Person").Is(StringKind("Company"), StringKind("Person")))
	require.False(t, StringKind("Person").Is(nil))
}
