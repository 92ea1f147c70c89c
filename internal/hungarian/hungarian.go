// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Package hungarian spots template parameters whose names repeat their type,
// e.g. a string variable called name_string.
package hungarian

import (
	"regexp"
	"strings"
)

var splitRe = regexp.MustCompile(`[^a-z0-9]+`)

// generic type words that say nothing on their own.
var ignored = map[string]bool{"any": true, "object": true, "tuple": true, "optional": true}

// IsHungarian reports whether any word of typ appears as a whole word of
// name. Both are compared case-insensitively and split on non-alphanumerics,
// and name is also split on camelCase boundaries.
func IsHungarian(typ string, name string) bool {
	if typ == "" || name == "" {
		return false
	}

	nameParts := map[string]bool{}
	for _, p := range splitRe.Split(strings.ToLower(uncamel(name)), -1) {
		if p != "" {
			nameParts[p] = true
		}
	}

	for _, tok := range splitRe.Split(strings.ToLower(typ), -1) {
		if tok == "" || ignored[tok] {
			continue
		}
		if nameParts[tok] {
			return true
		}
		// ARM spells its types securestring and secureobject.
		if rest, ok := strings.CutPrefix(tok, "secure"); ok && rest != "" && nameParts[rest] {
			return true
		}
	}

	return false
}

// uncamel inserts an underscore before each upper-case letter that follows a
// lower-case letter or digit.
func uncamel(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := s[i-1]
			if (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9') {
				b.WriteByte('_')
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}
