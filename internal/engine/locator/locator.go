// # internal/engine/locator/locator.go
package locator

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"phpnav/internal/engine/pathres"
	"phpnav/internal/engine/scanner"
	"phpnav/internal/engine/typeinfer"
)

// Match is a located property declaration.
type Match struct {
	Path     string
	Offset   int
	Line     int
	Column   int
	Property string
}

// DefaultMaxParentDepth bounds the extends-chain walk. Inheritance is
// acyclic in well-formed source, but malformed files could still loop, so
// the walk stops silently past the bound.
const DefaultMaxParentDepth = 8

// Locator finds the first declaration of any candidate property name inside
// a class body, walking the inheritance chain when the class itself has no
// match.
type Locator struct {
	paths          *pathres.Resolver
	maxParentDepth int
}

func New(paths *pathres.Resolver, maxParentDepth int) *Locator {
	if maxParentDepth <= 0 {
		maxParentDepth = DefaultMaxParentDepth
	}
	return &Locator{paths: paths, maxParentDepth: maxParentDepth}
}

// Locate searches the class body of className in classPath for the first
// candidate, candidate priority dominating pattern-form priority. Outside
// the brace-balanced body span declarations are ignored, so a property of
// the same name in an unrelated sibling class never matches.
func (l *Locator) Locate(ctx context.Context, classPath, className string, candidates []string) (Match, bool) {
	return l.locate(ctx, classPath, className, candidates, l.maxParentDepth)
}

func (l *Locator) locate(ctx context.Context, classPath, className string, candidates []string, depth int) (Match, bool) {
	if depth < 0 || ctx.Err() != nil {
		return Match{}, false
	}

	src, ok := pathres.ReadSource(classPath)
	if !ok {
		return Match{}, false
	}
	cls, found := scanner.FirstClass(src)
	if !found || cls.Name != className {
		return Match{}, false
	}

	bodyStart, bodyEnd := cls.BodyStart, cls.BodyEnd
	if bodyStart < 0 {
		return Match{}, false
	}
	if bodyEnd < 0 {
		bodyEnd = len(src)
	}
	body := src[bodyStart:bodyEnd]

	for _, candidate := range candidates {
		offset, ok := findDeclaration(body, candidate)
		if !ok {
			continue
		}
		abs := bodyStart + offset
		loc := scanner.OffsetToLocation(src, abs)
		return Match{
			Path:     classPath,
			Offset:   abs,
			Line:     loc.Line,
			Column:   loc.Column,
			Property: candidate,
		}, true
	}

	if cls.Extends == "" {
		return Match{}, false
	}
	return l.searchParent(ctx, src, cls, candidates, depth)
}

// searchParent resolves the extends clause through the file's alias table
// and repeats the search in the parent file, carrying the candidate list
// forward unchanged.
func (l *Locator) searchParent(ctx context.Context, src string, cls scanner.Class, candidates []string, depth int) (Match, bool) {
	aliases := scanner.UseAliases(src)
	fqn := typeinfer.ExpandAlias(cls.Extends, aliases)

	parentPath, ok := l.resolveParent(ctx, fqn, cls.Namespace)
	if !ok {
		slog.Debug("parent class unresolved", "class", cls.Name, "parent", cls.Extends)
		return Match{}, false
	}

	segs := strings.Split(fqn, `\`)
	parentName := segs[len(segs)-1]
	return l.locate(ctx, parentPath, parentName, candidates, depth-1)
}

func (l *Locator) resolveParent(ctx context.Context, fqn, namespace string) (string, bool) {
	if path, ok := l.paths.Resolve(ctx, fqn); ok {
		return path, true
	}
	// An unaliased short name most likely lives in the child's namespace.
	if !strings.Contains(fqn, `\`) && namespace != "" {
		return l.paths.Resolve(ctx, namespace+`\`+fqn)
	}
	return "", false
}

// Pattern forms tried per candidate, in order: plain declaration,
// doc-comment-preceded declaration, declaration with default value,
// constructor-promoted parameter, class constant.
const (
	visibility = `(?:public|protected|private|var)`
	modifiers  = `(?:static\s+)?(?:readonly\s+)?`
	typeHint   = `(?:\??[A-Za-z_][\w\\|]*\s+)?`
)

func findDeclaration(body, name string) (int, bool) {
	quoted := regexp.QuoteMeta(name)
	patterns := []string{
		`(?m)^\s*` + visibility + `\s+` + modifiers + typeHint + `(\$` + quoted + `)\s*;`,
		`\*/\s*` + visibility + `\s+` + modifiers + typeHint + `(\$` + quoted + `)\b`,
		`(?m)^\s*` + visibility + `\s+` + modifiers + typeHint + `(\$` + quoted + `)\s*=`,
		`function\s+__construct\s*\([^)]*?(?:public|protected|private)\s+(?:readonly\s+)?` + typeHint + `(\$` + quoted + `)\b`,
		`(?m)^\s*(?:` + visibility + `\s+)?const\s+(?:[A-Za-z_][\w\\|]*\s+)?(` + quoted + `)\s*=`,
	}

	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatchIndex(body); m != nil {
			return m[2], true
		}
	}
	return -1, false
}
