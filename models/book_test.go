package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookDedupKeyNormalizes(t *testing.T) {
	base := BookDedupKey("Dune", "Frank Herbert")

	assert.Equal(t, base, BookDedupKey("  dune ", "FRANK HERBERT"))
	assert.Equal(t, base, BookDedupKey("DUNE", " frank herbert"))
	assert.NotEqual(t, base, BookDedupKey("Dune Messiah", "Frank Herbert"))
	assert.NotEqual(t, base, BookDedupKey("Dune", "Brian Herbert"))
}

func TestBookDedupKeySeparatesTitleFromAuthor(t *testing.T) {
	// "ab" + "c" must not collide with "a" + "bc".
	assert.NotEqual(t, BookDedupKey("ab", "c"), BookDedupKey("a", "bc"))
}
