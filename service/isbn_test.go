package service

import (
	"fmt"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var syntheticPattern = regexp.MustCompile(`^JS\d{7}$`)

func TestAllocateISBNPassesThroughRealISBN(t *testing.T) {
	existing := map[string]struct{}{"JS0000001": {}}

	assert.Equal(t, "9780134190440", AllocateISBN("9780134190440", existing))
	assert.Equal(t, "0-306-40615-2", AllocateISBN(" 0-306-40615-2 ", map[string]struct{}{}))
}

func TestAllocateISBNGeneratesSyntheticWhenEmpty(t *testing.T) {
	existing := map[string]struct{}{"JS0000001": {}}

	for i := 0; i < 100; i++ {
		got := AllocateISBN("", existing)
		require.Regexp(t, syntheticPattern, got)
		_, taken := existing[got]
		require.False(t, taken, "allocator returned an ISBN already in use: %s", got)
	}
}

func TestAllocateISBNReplacesSyntheticProvided(t *testing.T) {
	// Values carrying the reserved prefix are never passed through, in any case.
	for _, provided := range []string{"JS1234567", "js1234567", "Js9999999"} {
		got := AllocateISBN(provided, map[string]struct{}{})
		assert.Regexp(t, syntheticPattern, got)
		assert.NotEqual(t, provided, got)
	}
}

func TestAllocateISBNAvoidsExistingSynthetics(t *testing.T) {
	existing := make(map[string]struct{})
	for i := 1000000; i < 1100000; i++ {
		existing[fmt.Sprintf("JS%d", i)] = struct{}{}
	}
	for i := 0; i < 50; i++ {
		got := AllocateISBN("", existing)
		require.Regexp(t, syntheticPattern, got)
		_, taken := existing[got]
		require.False(t, taken)
	}
}
