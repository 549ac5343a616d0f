package service

import (
	"fmt"
	"math/rand"
	"strings"
)

// SyntheticISBNPrefix marks generated identifiers for books imported without
// a real ISBN.
const SyntheticISBNPrefix = "JS"

// AllocateISBN returns the provided ISBN unchanged unless it is empty or
// carries the reserved synthetic prefix, in which case a fresh "JS" + 7-digit
// identifier is generated, retried until absent from existing. The caller is
// still responsible for the uniqueness check on pass-through values before
// commit.
func AllocateISBN(provided string, existing map[string]struct{}) string {
	p := strings.TrimSpace(provided)
	if p != "" && !strings.HasPrefix(strings.ToUpper(p), SyntheticISBNPrefix) {
		return p
	}
	for {
		candidate := fmt.Sprintf("%s%d", SyntheticISBNPrefix, 1000000+rand.Intn(9000000))
		if _, taken := existing[candidate]; !taken {
			return candidate
		}
	}
}
