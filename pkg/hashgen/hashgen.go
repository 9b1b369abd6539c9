// Package hashgen produces the externally shareable identifiers assigned to
// Command Records at creation time.
package hashgen

import (
	"strings"

	"github.com/google/uuid"
)

// Generator produces command hashes. The zero value is ready to use and safe
// for concurrent callers.
type Generator struct{}

// New returns a Generator.
func New() *Generator {
	return &Generator{}
}

// Next returns a fresh hash: 32 lowercase hex characters, independent of any
// command content, safe to embed in user-facing text and URLs. Two calls
// never return the same value (random UUID underneath).
func (g *Generator) Next() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
