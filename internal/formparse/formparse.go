// Package formparse normalizes list-valued multipart form fields. Clients
// submit fields like color and existingImage in several wire shapes: a
// JSON-encoded array, a comma-separated string, repeated form values, or a
// single bare token. ParseList folds all of them into one canonical ordered
// sequence so no business logic has to care about the shape.
package formparse

import (
	"encoding/json"
	"strings"
)

// ParseList normalizes the raw form values for a list field into an ordered
// slice of trimmed, non-empty, de-duplicated tokens. First occurrence wins on
// duplicates so the submitted order is preserved.
func ParseList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{})

	appendToken := func(tok string) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			return
		}
		if _, ok := seen[tok]; ok {
			return
		}
		seen[tok] = struct{}{}
		out = append(out, tok)
	}

	for _, raw := range values {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}

		if strings.HasPrefix(raw, "[") {
			var arr []string
			if err := json.Unmarshal([]byte(raw), &arr); err == nil {
				for _, tok := range arr {
					appendToken(tok)
				}
				continue
			}
			// Not valid JSON; fall through and treat as a plain value.
		}

		if strings.Contains(raw, ",") {
			for _, tok := range strings.Split(raw, ",") {
				appendToken(tok)
			}
			continue
		}

		appendToken(raw)
	}

	return out
}
