// # internal/engine/typeinfer/strategies.go
package typeinfer

import (
	"context"
	"regexp"
	"strings"
)

// annotationStrategy finds a "@var Type $name" doc-comment annotation for
// the receiver variable, scanning backward from the reference within a
// bounded line window, or over the whole file in its second-pass form.
type annotationStrategy struct {
	windowLines int
	wholeFile   bool
}

func (s *annotationStrategy) Name() string {
	if s.wholeFile {
		return "annotation-file"
	}
	return "annotation-window"
}

func (s *annotationStrategy) Infer(_ context.Context, req *Request) (string, bool) {
	name := varName(req.Expr)
	if name == "" || !isIdent(name) {
		return "", false
	}
	re := regexp.MustCompile(`@var\s+(\\?[A-Za-z_][\w\\|]*)\s+\$` + regexp.QuoteMeta(name) + `\b`)

	region := req.Source
	offset := req.Offset
	if !s.wholeFile {
		region = windowBefore(req.Source, req.Offset, s.windowLines)
		offset = len(region)
	}

	matches := re.FindAllStringSubmatchIndex(region, -1)
	if len(matches) == 0 {
		return "", false
	}

	// The nearest annotation above the reference wins; an annotation below
	// it is a last resort (whole-file pass only).
	pick := matches[0]
	for _, m := range matches {
		if m[0] >= offset {
			break
		}
		pick = m
	}
	return firstUnionMember(region[pick[2]:pick[3]]), true
}

// instantiationStrategy finds "$name = new Type(...)" assignments, including
// namespaced type names and multi-line constructor arguments, preferring the
// most specific (fully qualified) match. It also recognizes the
// "$name = factory(Type::class)" pattern.
type instantiationStrategy struct{}

func (s *instantiationStrategy) Name() string { return "instantiation" }

func (s *instantiationStrategy) Infer(_ context.Context, req *Request) (string, bool) {
	name := varName(req.Expr)
	if name == "" || !isIdent(name) {
		return "", false
	}
	quoted := regexp.QuoteMeta(name)

	newRe := regexp.MustCompile(`\$` + quoted + `\s*=\s*new\s+(\\?[A-Za-z_][\w\\]*)`)
	best := ""
	for _, m := range newRe.FindAllStringSubmatch(req.Source, -1) {
		candidate := m[1]
		if best == "" || moreSpecific(candidate, best) {
			best = candidate
		}
	}
	if best != "" {
		return best, true
	}

	factoryRe := regexp.MustCompile(`\$` + quoted + `\s*=\s*[^;=]*?\(\s*(\\?[A-Za-z_][\w\\]*)::class`)
	if m := factoryRe.FindStringSubmatch(req.Source); m != nil {
		return m[1], true
	}
	return "", false
}

func moreSpecific(a, b string) bool {
	return strings.Count(a, `\`) > strings.Count(b, `\`)
}

// parameterStrategy reads the declared type of the receiver from the
// enclosing function signature when the receiver is a parameter.
type parameterStrategy struct{}

func (s *parameterStrategy) Name() string { return "parameter" }

var functionOpenRe = regexp.MustCompile(`function\s+&?\w*\s*\(`)

func (s *parameterStrategy) Infer(_ context.Context, req *Request) (string, bool) {
	name := varName(req.Expr)
	if name == "" || !isIdent(name) {
		return "", false
	}
	offset := req.Offset
	if offset > len(req.Source) {
		offset = len(req.Source)
	}

	// Nearest function signature above the reference is taken as the
	// enclosing one; a heuristic, like everything else here.
	locs := functionOpenRe.FindAllStringIndex(req.Source[:offset], -1)
	if len(locs) == 0 {
		return "", false
	}
	open := locs[len(locs)-1][1] - 1
	end := matchParen(req.Source, open)
	if end < 0 {
		return "", false
	}
	params := req.Source[open:end]

	paramRe := regexp.MustCompile(`(\??\\?[A-Za-z_][\w\\|]*)\s+&?\$` + regexp.QuoteMeta(name) + `\b`)
	m := paramRe.FindStringSubmatch(params)
	if m == nil {
		return "", false
	}
	return firstUnionMember(strings.TrimPrefix(m[1], "?")), true
}

// chainStrategy handles "(new Type(...))->a()->b()": every call in the chain
// is attributed to the instantiated type. Return-type changes across chain
// links are deliberately not tracked.
type chainStrategy struct{}

func (s *chainStrategy) Name() string { return "chain" }

var chainNewRe = regexp.MustCompile(`new\s+(\\?[A-Za-z_][\w\\]*)`)

func (s *chainStrategy) Infer(_ context.Context, req *Request) (string, bool) {
	// The receiver expression itself may contain the instantiation, e.g.
	// when resolving setB in (new Foo())->setA(1)->setB(2).
	if m := chainNewRe.FindStringSubmatch(req.Expr); m != nil {
		return m[1], true
	}

	// Otherwise look inside the statement containing the reference.
	stmt := statementBefore(req.Source, req.Offset)
	if m := chainNewRe.FindStringSubmatch(stmt); m != nil {
		return m[1], true
	}
	return "", false
}

func statementBefore(src string, offset int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := strings.LastIndexByte(src[:offset], ';') + 1
	return src[start:offset]
}

func windowBefore(src string, offset, lines int) string {
	if offset > len(src) {
		offset = len(src)
	}
	start := offset
	for i := 0; i <= lines && start > 0; i++ {
		nl := strings.LastIndexByte(src[:start], '\n')
		if nl < 0 {
			start = 0
			break
		}
		start = nl
	}
	if start < 0 {
		start = 0
	}
	return src[start:offset]
}

func firstUnionMember(t string) string {
	for _, part := range strings.Split(t, "|") {
		part = strings.TrimSpace(part)
		if part == "" || strings.EqualFold(part, "null") {
			continue
		}
		return part
	}
	return t
}

func matchParen(src string, open int) int {
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

func isIdent(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		ok := b == '_' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || i > 0 && b >= '0' && b <= '9'
		if !ok {
			return false
		}
	}
	return len(s) > 0
}
