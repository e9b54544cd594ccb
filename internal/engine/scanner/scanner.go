// # internal/engine/scanner/scanner.go
//
// Heuristic, regex-based extraction of declarations from PHP source text.
// Everything here is pure and never fails: malformed or truncated source
// yields empty/negative results, because the scanner runs over arbitrary
// files found during workspace walks.
package scanner

import (
	"regexp"
	"strings"

	"phpnav/internal/engine/naming"
)

var (
	namespaceRe  = regexp.MustCompile(`(?m)^\s*namespace\s+([A-Za-z_][\w\\]*)\s*;`)
	classRe      = regexp.MustCompile(`(?m)^\s*(?:final\s+|abstract\s+)?class\s+([A-Za-z_]\w*)`)
	extendsRe    = regexp.MustCompile(`extends\s+(\\?[A-Za-z_][\w\\]*)`)
	implementsRe = regexp.MustCompile(`implements\s+([^{]+)`)

	// Plain "use Foo\Bar;" and aliased "use Foo\Bar as Baz;" imports.
	// "use function"/"use const" forms are intentionally not captured.
	useRe = regexp.MustCompile(`(?m)^\s*use\s+([A-Za-z_][\w\\]*)(?:\s+as\s+([A-Za-z_]\w*))?\s*;`)

	propertyRe = regexp.MustCompile(`(?m)^\s*(?:public|protected|private|var)\s+(?:static\s+)?(?:readonly\s+)?(?:\??[A-Za-z_][\w\\|]*\s+)?\$([A-Za-z_]\w*)`)
	constRe    = regexp.MustCompile(`(?m)^\s*(?:public\s+|protected\s+|private\s+)?const\s+(?:[A-Za-z_][\w\\|]*\s+)?([A-Za-z_]\w*)\s*=`)

	constructorRe = regexp.MustCompile(`function\s+__construct\s*\(`)
	promotedRe    = regexp.MustCompile(`(?:public|protected|private)\s+(?:readonly\s+)?(?:\??[A-Za-z_][\w\\|]*\s+)?\$([A-Za-z_]\w*)`)

	// Class-level doc tag, e.g. "@naming lowerCamel" or "@naming(upperCamel)".
	namingTagRe = regexp.MustCompile(`@naming\s*\(?\s*([A-Za-z]+)`)
)

// Namespace returns the file's namespace declaration, or "".
func Namespace(src string) string {
	m := namespaceRe.FindStringSubmatch(src)
	if m == nil {
		return ""
	}
	return m[1]
}

// FirstClass locates the first class declaration in src. A file hosts at
// most one resolvable class; later declarations are ignored.
func FirstClass(src string) (Class, bool) {
	loc := classRe.FindStringSubmatchIndex(src)
	if loc == nil {
		return Class{}, false
	}

	c := Class{
		Name:       src[loc[2]:loc[3]],
		Namespace:  Namespace(src),
		DeclOffset: loc[0],
		BodyStart:  -1,
		BodyEnd:    -1,
	}

	// The header runs from the class name to the opening brace (or EOF when
	// the source is truncated).
	headerEnd := strings.IndexByte(src[loc[3]:], '{')
	if headerEnd < 0 {
		return c, true
	}
	headerEnd += loc[3]
	header := src[loc[3]:headerEnd]

	if m := extendsRe.FindStringSubmatch(header); m != nil {
		c.Extends = m[1]
	}
	if m := implementsRe.FindStringSubmatch(header); m != nil {
		for _, part := range strings.Split(m[1], ",") {
			if name := strings.TrimSpace(part); name != "" {
				c.Implements = append(c.Implements, name)
			}
		}
	}

	c.BodyStart = headerEnd
	c.BodyEnd = balanceBraces(src, headerEnd)
	return c, true
}

// balanceBraces returns the offset one past the brace matching the opening
// brace at `open`, or -1 when the text ends before the depth returns to
// zero. Nested blocks are spanned correctly by counting depth.
func balanceBraces(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// UseAliases extracts the file's import-alias table. The alias is either
// the "as" name or the last namespace segment of the imported name.
func UseAliases(src string) map[string]string {
	aliases := make(map[string]string)
	for _, m := range useRe.FindAllStringSubmatch(src, -1) {
		fqn := strings.TrimPrefix(m[1], `\`)
		alias := m[2]
		if alias == "" {
			segs := strings.Split(fqn, `\`)
			alias = segs[len(segs)-1]
		}
		if _, exists := aliases[alias]; !exists {
			aliases[alias] = fqn
		}
	}
	return aliases
}

// Properties lists every property-like declaration in src: visibility
// members, class constants, and constructor-promoted parameters.
func Properties(src string) []Property {
	var props []Property
	for _, m := range propertyRe.FindAllStringSubmatchIndex(src, -1) {
		props = append(props, Property{Name: src[m[2]:m[3]], Offset: m[2]})
	}
	for _, m := range constRe.FindAllStringSubmatchIndex(src, -1) {
		props = append(props, Property{Name: src[m[2]:m[3]], Offset: m[2], Const: true})
	}
	for _, m := range promotedParams(src) {
		props = append(props, m)
	}
	return props
}

// promotedParams finds constructor-promoted parameters, which the
// line-anchored property pattern misses when they share a line with the
// constructor signature.
func promotedParams(src string) []Property {
	loc := constructorRe.FindStringIndex(src)
	if loc == nil {
		return nil
	}
	open := loc[1] - 1
	end := balanceParens(src, open)
	if end < 0 {
		return nil
	}
	params := src[open:end]

	var props []Property
	for _, m := range promotedRe.FindAllStringSubmatchIndex(params, -1) {
		props = append(props, Property{
			Name:     params[m[2]:m[3]],
			Offset:   open + m[2],
			Promoted: true,
		})
	}
	return props
}

func balanceParens(src string, open int) int {
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}

// ConventionAnnotation reads the class's naming-convention doc tag. Absent
// or unrecognized annotations yield naming.None; the default is explicitly
// None, not LowerCamel.
func ConventionAnnotation(src string) naming.Convention {
	m := namingTagRe.FindStringSubmatch(src)
	if m == nil {
		return naming.None
	}
	return naming.ParseConvention(m[1])
}

// OffsetToLocation converts a byte offset into a 1-based line/column pair.
// Out-of-range offsets are clamped.
func OffsetToLocation(src string, offset int) Location {
	if offset < 0 {
		offset = 0
	}
	if offset > len(src) {
		offset = len(src)
	}
	line, col := 1, 1
	for i := 0; i < offset; i++ {
		if src[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Location{Line: line, Column: col}
}

// LocationToOffset converts a 1-based line/column pair to a byte offset,
// clamping past-end positions to the end of the line or text.
func LocationToOffset(src string, loc Location) int {
	line := 1
	start := 0
	for line < loc.Line {
		nl := strings.IndexByte(src[start:], '\n')
		if nl < 0 {
			return len(src)
		}
		start += nl + 1
		line++
	}
	offset := start + loc.Column - 1
	lineEnd := start + lineLength(src[start:])
	if offset > lineEnd {
		offset = lineEnd
	}
	if offset > len(src) {
		offset = len(src)
	}
	return offset
}

func lineLength(rest string) int {
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		return nl
	}
	return len(rest)
}

// WordAt returns the identifier spanning the given offset and its start
// offset. Returns "" when the offset does not sit on an identifier.
func WordAt(src string, offset int) (string, int) {
	if offset < 0 || offset >= len(src) || !isWordByte(src[offset]) {
		return "", -1
	}
	start := offset
	for start > 0 && isWordByte(src[start-1]) {
		start--
	}
	end := offset
	for end < len(src) && isWordByte(src[end]) {
		end++
	}
	return src[start:end], start
}

// LineText returns the full line containing the offset, without the
// trailing newline.
func LineText(src string, offset int) string {
	if offset < 0 || offset > len(src) {
		return ""
	}
	start := strings.LastIndexByte(src[:offset], '\n') + 1
	end := offset + lineLength(src[offset:])
	return src[start:end]
}

func isWordByte(b byte) bool {
	return b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
