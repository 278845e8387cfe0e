package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// SanitizeText cleans free-form text (grant descriptions, claim notes)
// before it reaches the ledger: strip HTML, drop null bytes, trim, cap
// length. Ledger descriptions are immutable, so bad input cannot be fixed
// after the fact.
func SanitizeText(input string) string {
	input = htmlPolicy.Sanitize(input)
	input = strings.ReplaceAll(input, "\x00", "")
	input = strings.TrimSpace(input)

	if len(input) > 500 {
		input = input[:500]
	}

	return input
}
