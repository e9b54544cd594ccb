// # internal/engine/naming/naming.go
package naming

import (
	"strings"
	"unicode"
)

// Convention is the case policy a class applies when accessor names are
// derived from its property names.
type Convention int

const (
	None Convention = iota
	LowerCamel
	UpperCamel
)

func (c Convention) String() string {
	switch c {
	case LowerCamel:
		return "lowerCamel"
	case UpperCamel:
		return "upperCamel"
	default:
		return "none"
	}
}

// ParseConvention maps an annotation value to a Convention. Unrecognized
// values fall back to None, which is the documented default.
func ParseConvention(value string) Convention {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "lowercamel", "camel":
		return LowerCamel
	case "uppercamel", "pascal":
		return UpperCamel
	default:
		return None
	}
}

// HasAccessorPrefix reports whether the method name carries a get/set
// prefix followed by at least one character.
func HasAccessorPrefix(method string) bool {
	if len(method) < 4 {
		return false
	}
	return strings.HasPrefix(method, "get") || strings.HasPrefix(method, "set")
}

// CandidateNames expands an accessor method name into ordered property-name
// candidates, highest confidence first:
//
//  1. the convention-derived name,
//  2. the raw lower-camel form,
//  3. a snake_case transliteration.
//
// Duplicates are removed while preserving order. Sidecar-mapped names are
// prepended by the caller and are not this package's concern. Returns nil
// when the method name is too short to carry a get/set prefix.
func CandidateNames(method string, conv Convention) []string {
	if !HasAccessorPrefix(method) {
		return nil
	}
	rest := method[3:]

	var derived string
	switch conv {
	case UpperCamel:
		derived = rest
	default:
		// None is treated as neutral and lower-cases the first letter,
		// matching the most common property style.
		derived = lowerFirst(rest)
	}

	return dedupe([]string{derived, lowerFirst(rest), SnakeCase(rest)})
}

// SnakeCase inserts an underscore before every internal uppercase letter and
// lower-cases the result: "InternalCode" -> "internal_code".
func SnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := names[:0]
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
