package handlers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportDate(t *testing.T) {
	t.Run("bare year maps to January first", func(t *testing.T) {
		got := parseImportDate("1976")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(1976, 1, 1, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("full date", func(t *testing.T) {
		got := parseImportDate(" 2003-07-15 ")
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2003, 7, 15, 0, 0, 0, 0, time.UTC), *got)
	})

	t.Run("unparseable values degrade to nil", func(t *testing.T) {
		for _, raw := range []string{"", "   ", "unknown", "15/07/2003", "2003-13-40", "199"} {
			assert.Nil(t, parseImportDate(raw), "raw=%q", raw)
		}
	})
}
