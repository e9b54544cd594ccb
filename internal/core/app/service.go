package app

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"phpnav/internal/data/history"
	"phpnav/internal/engine/pathres"
	"phpnav/internal/engine/resolver"
	"phpnav/internal/engine/scanner"
	"phpnav/internal/shared/observability"
)

// NavigationService exposes the resolution operations with tracing,
// metrics, and best-effort history recording layered on top of the
// engine.
type NavigationService struct {
	app *App
}

func (a *App) NavigationService() *NavigationService {
	return &NavigationService{app: a}
}

func (s *NavigationService) Definition(ctx context.Context, file string, loc scanner.Location) resolver.ResolvedLocation {
	ctx, span := observability.Tracer.Start(ctx, "NavigationService.Definition", trace.WithAttributes(
		attribute.String("file", file),
		attribute.Int("line", loc.Line),
		attribute.Int("column", loc.Column),
	))
	defer span.End()

	start := time.Now()
	var ref resolver.Reference
	var result resolver.ResolvedLocation

	if src, ok := pathres.ReadSource(file); ok {
		ref = resolver.Classify(src, file, scanner.LocationToOffset(src, loc))
		result = s.app.Resolver.ResolveReference(ctx, src, ref)
	}

	outcome := "absent"
	if result.Found {
		outcome = "found"
	}
	observability.ResolutionDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	span.SetAttributes(attribute.String("outcome", outcome))

	s.record(history.Record{
		Operation:  "definition",
		SourceFile: file,
		Symbol:     ref.Symbol,
		Kind:       ref.Kind.String(),
		Found:      result.Found,
		TargetPath: result.Path,
		TargetLine: result.Line,
		TargetCol:  result.Column,
		Duration:   time.Since(start),
	})
	return result
}

func (s *NavigationService) References(ctx context.Context, file string, loc scanner.Location) []resolver.ResolvedLocation {
	ctx, span := observability.Tracer.Start(ctx, "NavigationService.References", trace.WithAttributes(
		attribute.String("file", file),
	))
	defer span.End()

	start := time.Now()
	refs := s.app.Resolver.ReferencesAt(ctx, file, loc)
	span.SetAttributes(attribute.Int("matches", len(refs)))

	s.record(history.Record{
		Operation:  "references",
		SourceFile: file,
		Symbol:     symbolAt(file, loc),
		Kind:       "property",
		Found:      len(refs) > 0,
		Duration:   time.Since(start),
	})
	return refs
}

func (s *NavigationService) Completions(ctx context.Context, file string, loc scanner.Location) []resolver.CompletionItem {
	ctx, span := observability.Tracer.Start(ctx, "NavigationService.Completions", trace.WithAttributes(
		attribute.String("file", file),
	))
	defer span.End()

	items := s.app.Resolver.CompletionsAt(ctx, file, loc)
	span.SetAttributes(attribute.Int("items", len(items)))
	return items
}

// Recent returns the newest history records, or nil when the history
// store is disabled.
func (s *NavigationService) Recent(limit int) ([]history.Record, error) {
	if s.app.History == nil {
		return nil, nil
	}
	return s.app.History.Recent(limit)
}

func (s *NavigationService) record(rec history.Record) {
	if s.app.History == nil {
		return
	}
	if err := s.app.History.Save(rec); err != nil {
		slog.Warn("save history record", "operation", rec.Operation, "error", err)
	}
}

func symbolAt(file string, loc scanner.Location) string {
	src, ok := pathres.ReadSource(file)
	if !ok {
		return ""
	}
	word, _ := scanner.WordAt(src, scanner.LocationToOffset(src, loc))
	return word
}
