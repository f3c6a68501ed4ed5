package txnid

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	splitPattern   = regexp.MustCompile(`^[0-9A-Z]{10}-[0-9A-Z]{10}$`)
	unsplitPattern = regexp.MustCompile(`^[0-9A-Z]{20}$`)
	orderPattern   = regexp.MustCompile(`^N3SB-TXN42-[0-9A-Z]{10}$`)
)

func TestGenerate_NoDuplicatesAndFormat(t *testing.T) {
	t.Parallel()

	const n = 10000
	seen := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		id, err := Generate()
		require.NoError(t, err)
		require.Regexp(t, splitPattern, id)

		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}

func TestNew_Unsplit(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 10000; i++ {
		id, err := New(DefaultLength, false)
		require.NoError(t, err)
		require.Regexp(t, unsplitPattern, id)

		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestNew_InvalidLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		length int
		split  bool
	}{
		{name: "zero", length: 0},
		{name: "negative", length: -3},
		{name: "odd split", length: 11, split: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.length, tt.split)
			require.ErrorIs(t, err, ErrInvalidLength)
		})
	}
}

func TestForOrder(t *testing.T) {
	t.Parallel()

	a, err := ForOrder("", 42)
	require.NoError(t, err)
	require.Regexp(t, orderPattern, a)

	b, err := ForOrder(DefaultPrefix, 42)
	require.NoError(t, err)
	require.Regexp(t, orderPattern, b)
	require.NotEqual(t, a, b)

	c, err := ForOrder("SHOP-", 7)
	require.NoError(t, err)
	require.Regexp(t, `^SHOP-7-[0-9A-Z]{10}$`, c)
}
