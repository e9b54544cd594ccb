// # internal/engine/typeinfer/typeinfer.go
package typeinfer

import (
	"context"
	"log/slog"
	"strings"

	"phpnav/internal/engine/scanner"
)

// Request carries everything a strategy may consult: the full source text,
// the byte offset of the reference, and the receiver expression (usually a
// "$variable") whose type is wanted.
type Request struct {
	Source  string
	Path    string
	Offset  int
	Expr    string
	Aliases map[string]string
}

// Strategy is one inference heuristic. Strategies are pure over the request
// and report ok=false instead of erroring; the engine then falls through to
// the next strategy.
type Strategy interface {
	Name() string
	Infer(ctx context.Context, req *Request) (string, bool)
}

// Engine applies its strategies in strict priority order and stops at the
// first success. The resolved short name is expanded through the file's
// import-alias table; an unmatched short name is returned unchanged and the
// caller decides how to proceed.
type Engine struct {
	strategies []Strategy
}

// DefaultWindowLines bounds how far the local annotation strategy scans
// backward from the reference.
const DefaultWindowLines = 15

func New(windowLines int) *Engine {
	if windowLines <= 0 {
		windowLines = DefaultWindowLines
	}
	return &Engine{strategies: []Strategy{
		&annotationStrategy{windowLines: windowLines},
		&annotationStrategy{wholeFile: true},
		&instantiationStrategy{},
		&parameterStrategy{},
		&chainStrategy{},
	}}
}

// NewWithStrategies builds an engine over an explicit strategy list, used by
// tests to exercise strategies in isolation.
func NewWithStrategies(strategies ...Strategy) *Engine {
	return &Engine{strategies: strategies}
}

// InferType determines the most likely fully qualified type of req.Expr.
// Returns ok=false when every strategy fails.
func (e *Engine) InferType(ctx context.Context, req *Request) (string, bool) {
	if req == nil || strings.TrimSpace(req.Expr) == "" {
		return "", false
	}
	if req.Aliases == nil {
		req.Aliases = scanner.UseAliases(req.Source)
	}

	for _, s := range e.strategies {
		if err := ctx.Err(); err != nil {
			return "", false
		}
		name, ok := s.Infer(ctx, req)
		if !ok {
			continue
		}
		fqn := ExpandAlias(name, req.Aliases)
		slog.Debug("type inferred", "strategy", s.Name(), "expr", req.Expr, "type", fqn)
		return fqn, true
	}
	return "", false
}

// ExpandAlias resolves a short type name through the import-alias table.
// Already-qualified names pass through with any leading backslash trimmed;
// unmatched short names are returned unchanged.
func ExpandAlias(name string, aliases map[string]string) string {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, `\`) {
		return strings.TrimPrefix(name, `\`)
	}
	if strings.Contains(name, `\`) {
		return name
	}
	if fqn, ok := aliases[name]; ok {
		return fqn
	}
	return name
}

// varName strips the PHP sigil so strategies can build patterns around the
// bare identifier.
func varName(expr string) string {
	return strings.TrimPrefix(strings.TrimSpace(expr), "$")
}
