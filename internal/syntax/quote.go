// SPDX-License-Identifier: MPL-2.0

package syntax

import (
	"encoding/json"
	"strings"
)

// Quote returns s as a double-quoted JavaScript string literal. JSON string
// encoding is a strict subset of JavaScript string syntax; U+2028 and U+2029
// are escaped by the encoder as well.
func Quote(s string) string {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	// Encoding a string never fails.
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
