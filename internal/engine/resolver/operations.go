// # internal/engine/resolver/operations.go
//
// Editor-facing operations beyond plain definition lookup: workspace-wide
// reference scans and member completions. Both are best effort and bounded
// by the path resolver's walk limits.
package resolver

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"phpnav/internal/engine/naming"
	"phpnav/internal/engine/pathres"
	"phpnav/internal/engine/scanner"
)

// ReferencesAt finds usages of the symbol at the given position across the
// workspace roots: accessor calls and property accesses that would resolve
// to the same property.
func (r *Resolver) ReferencesAt(ctx context.Context, file string, loc scanner.Location) []ResolvedLocation {
	src, ok := pathres.ReadSource(file)
	if !ok {
		return nil
	}
	ref := Classify(src, file, scanner.LocationToOffset(src, loc))
	if ref.Kind == KindUnknown || ref.Symbol == "" {
		return nil
	}

	base := propertyBase(ref)
	if base == "" {
		return nil
	}
	pattern := referencePattern(base)

	var out []ResolvedLocation
	r.paths.WalkSources(ctx, func(path, content string) bool {
		for _, m := range pattern.FindAllStringIndex(content, -1) {
			// Skip the match's leading access token so the location
			// points at the symbol itself.
			at := m[0] + strings.IndexFunc(content[m[0]:m[1]], isSymbolStart)
			l := scanner.OffsetToLocation(content, at)
			out = append(out, ResolvedLocation{Path: path, Line: l.Line, Column: l.Column, Found: true})
		}
		return true
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Line < out[j].Line
	})
	return out
}

// propertyBase reduces a symbol to the property fragment shared by all its
// spellings: getFooBar/setFooBar/fooBar -> FooBar.
func propertyBase(ref Reference) string {
	if ref.Kind == KindAccessor {
		if len(ref.Symbol) <= 3 {
			return ""
		}
		return ref.Symbol[3:]
	}
	return upperFirst(ref.Symbol)
}

// referencePattern matches every spelling of a property reference: both
// accessors, member reads, and the declaration sigil form, in camel and
// snake case.
func referencePattern(base string) *regexp.Regexp {
	names := dedupeStrings([]string{lowerFirst(base), base, naming.SnakeCase(base)})

	alts := []string{
		`(?:get|set)` + regexp.QuoteMeta(upperFirst(base)) + `\s*\(`,
	}
	for _, n := range names {
		alts = append(alts,
			`->\s*`+regexp.QuoteMeta(n)+`\b`,
			`\$`+regexp.QuoteMeta(n)+`\b`,
		)
	}
	return regexp.MustCompile(strings.Join(alts, "|"))
}

// CompletionsAt suggests members after a "->" token: the receiver class's
// properties plus the accessor names its naming convention derives.
func (r *Resolver) CompletionsAt(ctx context.Context, file string, loc scanner.Location) []CompletionItem {
	src, ok := pathres.ReadSource(file)
	if !ok {
		return nil
	}
	offset := scanner.LocationToOffset(src, loc)

	arrow := strings.LastIndex(src[:min(offset, len(src))], "->")
	if arrow < 0 {
		return nil
	}
	receiver := receiverBefore(src, arrow+2)
	if receiver == "" {
		return nil
	}

	classFile, fqn, ok := r.targetClass(ctx, src, Reference{
		File:     file,
		Offset:   offset,
		Receiver: receiver,
	})
	if !ok {
		return nil
	}

	clsSrc, ok := pathres.ReadSource(classFile)
	if !ok {
		return nil
	}
	cls, found := scanner.FirstClass(clsSrc)
	if !found {
		return nil
	}
	body := clsSrc
	if cls.BodyStart >= 0 && cls.BodyEnd >= 0 {
		body = clsSrc[cls.BodyStart:cls.BodyEnd]
	}
	conv := scanner.ConventionAnnotation(clsSrc)

	var items []CompletionItem
	seen := make(map[string]bool)
	for _, p := range scanner.Properties(body) {
		if seen[p.Name] {
			continue
		}
		seen[p.Name] = true

		items = append(items, CompletionItem{Label: p.Name, Kind: "property", Detail: fqn})
		if p.Const {
			continue
		}
		fragment := accessorFragment(p.Name, conv)
		items = append(items,
			CompletionItem{Label: "get" + fragment, Kind: "method", Detail: fqn},
			CompletionItem{Label: "set" + fragment, Kind: "method", Detail: fqn},
		)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}

// accessorFragment is the inverse of naming.CandidateNames: the name
// fragment a generated accessor would carry for this property.
func accessorFragment(property string, conv naming.Convention) string {
	if conv == naming.UpperCamel {
		return property
	}
	return upperFirst(property)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

func isSymbolStart(r rune) bool {
	return r == '$' || unicode.IsLetter(r) || r == '_'
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
