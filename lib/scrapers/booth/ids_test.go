package booth

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	require.True(t, ValidID(1000000))
	require.True(t, ValidID(99999999))
	require.True(t, ValidID(4294967))
	require.False(t, ValidID(999999))
	require.False(t, ValidID(100000000))
	require.False(t, ValidID(0))
	require.False(t, ValidID(-5))
}

func TestExtractItemID(t *testing.T) {
	testCases := []struct {
		text     string
		expected int
	}{
		{"https://booth.pm/ja/items/4294967", 4294967},
		{"https://booth.pm/en/items/4294967", 4294967},
		{"https://booth.pm/items/4294967", 4294967},
		{"https://shopname.booth.pm/items/1234567", 1234567},
		{"check this out booth.pm/ja/items/4294967 so cute", 4294967},
		{"item_id=7654321", 7654321},
		{"7654321", 7654321},
		{"https://booth.pm/ja/items/999", 0},
		{"no id here", 0},
		{"", 0},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.expected, ExtractItemID(tc.text), tc.text)
	}
}

func TestExtractItemIDsDedup(t *testing.T) {
	ids := ExtractItemIDs("https://booth.pm/ja/items/4294967 https://booth.pm/ja/items/1234567 and 4294967 again")
	require.Equal(t, []int{4294967, 1234567}, ids)
}

func TestCanonicalPath(t *testing.T) {
	require.Equal(t, "/ja/items/4294967", CanonicalPath(4294967))
	require.Equal(t, "https://booth.pm/ja/items/4294967", ItemURL(4294967))
}
