// # internal/engine/resolver/classify.go
package resolver

import (
	"regexp"
	"strings"

	"phpnav/internal/engine/naming"
	"phpnav/internal/engine/scanner"
)

var (
	accessorNameRe = regexp.MustCompile(`^(?:get|set)[A-Z0-9_]\w*$`)
	declLineRe     = regexp.MustCompile(`^\s*(?:public|protected|private|var)\b`)
)

// Classify derives a Reference from the word at the offset, the token
// preceding it, and the enclosing line. Anything that is neither an
// accessor call nor a property access/declaration is Unknown and must not
// reach property resolution.
func Classify(src, file string, offset int) Reference {
	word, start := scanner.WordAt(src, offset)
	ref := Reference{
		File:     file,
		Offset:   offset,
		Location: scanner.OffsetToLocation(src, offset),
		LineText: scanner.LineText(src, offset),
	}
	if word == "" {
		return ref
	}
	ref.Symbol = word

	preceded := memberAccessBefore(src, start)

	if accessorNameRe.MatchString(word) && naming.HasAccessorPrefix(word) {
		ref.Kind = KindAccessor
		if preceded {
			ref.Receiver = receiverBefore(src, start)
		}
		return ref
	}

	// "$foo" in a visibility-qualified declaration line, or a "->foo"
	// member read that is not a call.
	if start > 0 && src[start-1] == '$' {
		if declLineRe.MatchString(ref.LineText) || memberAccessBefore(src, start-1) {
			ref.Kind = KindProperty
			if memberAccessBefore(src, start-1) {
				ref.Receiver = receiverBefore(src, start-1)
			}
		}
		return ref
	}
	if preceded && !isCall(src, start+len(word)) {
		ref.Kind = KindProperty
		ref.Receiver = receiverBefore(src, start)
	}

	return ref
}

// memberAccessBefore reports whether the identifier starting at `start` is
// preceded by a -> or :: token.
func memberAccessBefore(src string, start int) bool {
	return start >= 2 && (src[start-2:start] == "->" || src[start-2:start] == "::")
}

// isCall reports whether the identifier ending at `end` is immediately
// invoked.
func isCall(src string, end int) bool {
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return end < len(src) && src[end] == '('
}

// receiverBefore extracts the expression the member access is applied to:
// "$widget", "$this", or a whole chain like "(new Foo())->setA(1)". It
// scans backward over identifiers, sigils, balanced parens, and chain
// tokens, stopping at statement boundaries.
func receiverBefore(src string, wordStart int) string {
	i := wordStart - 2 // skip the -> or ::
	if i < 0 {
		return ""
	}

	end := i
	depth := 0
	for i > 0 {
		b := src[i-1]
		switch {
		case b == ')':
			depth++
		case b == '(':
			if depth == 0 {
				return strings.TrimSpace(src[i:end])
			}
			depth--
		case depth > 0:
			// inside parens everything belongs to the receiver
		case isReceiverByte(b):
		case b == ' ' || b == '\t' || b == '\n':
			if !chainContinuesBefore(src, i) {
				return strings.TrimSpace(src[i:end])
			}
		default:
			return strings.TrimSpace(src[i:end])
		}
		i--
	}
	return strings.TrimSpace(src[i:end])
}

func isReceiverByte(b byte) bool {
	return b == '$' || b == '_' || b == '-' || b == '>' || b == ':' ||
		b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// chainContinuesBefore lets multi-line fluent chains keep their receiver
// when the -> sits at the end of the previous line.
func chainContinuesBefore(src string, i int) bool {
	j := i - 1
	for j > 0 && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n') {
		j--
	}
	return j >= 1 && (src[j-1:j+1] == "->" || src[j] == ')' || src[j-1:j+1] == "::")
}
