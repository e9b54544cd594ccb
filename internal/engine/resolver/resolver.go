// # internal/engine/resolver/resolver.go
//
// Orchestrates one resolution: classify the symbol, infer the receiver
// type, map the type to its declaring file, expand property-name
// candidates, and search the class body (and ancestors) for the first
// matching declaration. Every step degrades to "absent" instead of
// failing; the only terminal outcomes are a location or a definitive miss.
package resolver

import (
	"context"
	"log/slog"
	"strings"

	"phpnav/internal/core/cache"
	"phpnav/internal/engine/locator"
	"phpnav/internal/engine/naming"
	"phpnav/internal/engine/pathres"
	"phpnav/internal/engine/proxy"
	"phpnav/internal/engine/scanner"
	"phpnav/internal/engine/typeinfer"
	"phpnav/internal/shared/observability"
)

type Options struct {
	Paths               pathres.Options
	Markers             proxy.Markers
	AnnotationWindow    int
	MaxParentDepth      int
	ResolutionCacheSize int
	ClassFileCacheSize  int
}

const (
	DefaultResolutionCacheSize = 512
	DefaultClassFileCacheSize  = 256
)

type resKey struct {
	File   string
	Symbol string
}

// Resolver owns the full pipeline plus its two bounded caches. One instance
// per workspace session; the caches carry their own locks, there is no
// module-level shared state.
type Resolver struct {
	paths   *pathres.Resolver
	locator *locator.Locator
	infer   *typeinfer.Engine
	markers proxy.Markers

	resCache   *cache.Cache[resKey, ResolvedLocation]
	classCache *cache.Cache[string, string]
}

func New(opts Options) *Resolver {
	if opts.ResolutionCacheSize <= 0 {
		opts.ResolutionCacheSize = DefaultResolutionCacheSize
	}
	if opts.ClassFileCacheSize <= 0 {
		opts.ClassFileCacheSize = DefaultClassFileCacheSize
	}
	paths := pathres.New(opts.Paths)
	return &Resolver{
		paths:      paths,
		locator:    locator.New(paths, opts.MaxParentDepth),
		infer:      typeinfer.New(opts.AnnotationWindow),
		markers:    opts.Markers,
		resCache:   cache.New[resKey, ResolvedLocation](opts.ResolutionCacheSize),
		classCache: cache.New[string, string](opts.ClassFileCacheSize),
	}
}

// ResolveAt resolves the symbol at a 1-based position in file. Both found
// and definitively-absent results are cached keyed by (file, symbol).
func (r *Resolver) ResolveAt(ctx context.Context, file string, loc scanner.Location) ResolvedLocation {
	src, ok := pathres.ReadSource(file)
	if !ok {
		return ResolvedLocation{}
	}
	ref := Classify(src, file, scanner.LocationToOffset(src, loc))
	return r.ResolveReference(ctx, src, ref)
}

// ResolveReference runs the pipeline for an already-classified reference.
func (r *Resolver) ResolveReference(ctx context.Context, src string, ref Reference) ResolvedLocation {
	observability.ResolutionsTotal.WithLabelValues(ref.Kind.String()).Inc()
	if ref.Kind == KindUnknown || ref.Symbol == "" {
		return ResolvedLocation{}
	}

	key := resKey{File: ref.File, Symbol: ref.Symbol}
	if hit, ok := r.resCache.Get(key); ok {
		observability.CacheHitsTotal.WithLabelValues("resolution").Inc()
		return hit
	}
	observability.CacheMissesTotal.WithLabelValues("resolution").Inc()

	var result ResolvedLocation
	switch ref.Kind {
	case KindAccessor:
		result = r.resolveAccessor(ctx, src, ref)
	case KindProperty:
		result = r.resolveProperty(ctx, src, ref)
	}

	r.resCache.Set(key, result)
	return result
}

// resolveAccessor maps a get/set call to the declaration of the property it
// accesses.
func (r *Resolver) resolveAccessor(ctx context.Context, src string, ref Reference) ResolvedLocation {
	classFile, fqn, ok := r.targetClass(ctx, src, ref)
	if !ok {
		return ResolvedLocation{}
	}

	// Sidecar metadata is read from whichever proxy file is involved:
	// the referencing file, or the resolved class file when that turns
	// out to be a generated proxy.
	sidecarHost := ""
	if proxy.IsProxyPath(ref.File, r.markers) {
		sidecarHost = ref.File
	}
	if link, isProxy := proxy.ParseProxyName(classFile, r.markers); isProxy {
		if sidecarHost == "" {
			sidecarHost = classFile
		}
		if original, found := r.resolveClassFile(ctx, link.FQN()); found {
			classFile, fqn = original, link.FQN()
		}
	}

	candidates := r.propertyCandidates(classFile, sidecarHost, ref.Symbol)
	if len(candidates) == 0 {
		return ResolvedLocation{}
	}

	return r.locate(ctx, classFile, shortName(fqn), candidates)
}

// resolveProperty maps a property access or declaration to its declaration
// site, which may live in a parent class.
func (r *Resolver) resolveProperty(ctx context.Context, src string, ref Reference) ResolvedLocation {
	classFile, fqn, ok := r.targetClass(ctx, src, ref)
	if !ok {
		return ResolvedLocation{}
	}
	if link, isProxy := proxy.ParseProxyName(classFile, r.markers); isProxy {
		if original, found := r.resolveClassFile(ctx, link.FQN()); found {
			classFile, fqn = original, link.FQN()
		}
	}
	return r.locate(ctx, classFile, shortName(fqn), []string{ref.Symbol})
}

// targetClass determines which class the reference operates on: the
// receiver's inferred type when there is one, otherwise the class declared
// by the referencing file itself (covering $this and bare declarations).
// Proxy files without a receiver redirect to the class they mirror.
func (r *Resolver) targetClass(ctx context.Context, src string, ref Reference) (string, string, bool) {
	receiver := strings.TrimSpace(ref.Receiver)

	if receiver == "" || receiver == "$this" || receiver == "self" || receiver == "static" {
		if link, isProxy := proxy.ParseProxyName(ref.File, r.markers); isProxy {
			path, ok := r.resolveClassFile(ctx, link.FQN())
			return path, link.FQN(), ok
		}
		cls, ok := scanner.FirstClass(src)
		if !ok {
			return "", "", false
		}
		return ref.File, cls.FQN(), true
	}

	req := &typeinfer.Request{
		Source:  src,
		Path:    ref.File,
		Offset:  ref.Offset,
		Expr:    receiver,
		Aliases: scanner.UseAliases(src),
	}
	fqn, ok := r.infer.InferType(ctx, req)
	if !ok {
		observability.TypeInferenceTotal.WithLabelValues("absent").Inc()
		return "", "", false
	}
	observability.TypeInferenceTotal.WithLabelValues("resolved").Inc()

	path, found := r.resolveClassFile(ctx, fqn)
	if !found && !strings.Contains(fqn, `\`) {
		// An alias-less short name may still live in the referencing
		// file's own namespace.
		if ns := scanner.Namespace(src); ns != "" {
			qualified := ns + `\` + fqn
			if p, ok := r.resolveClassFile(ctx, qualified); ok {
				return p, qualified, true
			}
		}
	}
	return path, fqn, found
}

// resolveClassFile memoizes FQN -> declaring file lookups, negative results
// included so repeated misses stay cheap.
func (r *Resolver) resolveClassFile(ctx context.Context, fqn string) (string, bool) {
	if path, ok := r.classCache.Get(fqn); ok {
		observability.CacheHitsTotal.WithLabelValues("classfile").Inc()
		return path, path != ""
	}
	observability.CacheMissesTotal.WithLabelValues("classfile").Inc()

	path, _ := r.paths.Resolve(ctx, fqn)
	r.classCache.Set(fqn, path)
	return path, path != ""
}

// propertyCandidates builds the ordered candidate list: sidecar mapping
// first, then convention-derived, raw lower-camel, and snake_case forms.
// The order is a correctness invariant; the locator returns on first match.
func (r *Resolver) propertyCandidates(classFile, sidecarHost, method string) []string {
	var candidates []string
	if sidecarHost != "" {
		if field, ok := proxy.LoadMapping(sidecarHost, r.markers, method); ok {
			candidates = append(candidates, field)
		}
	}

	// The convention is re-read per resolution rather than cached, so an
	// edit between calls cannot leave a stale convention behind.
	conv := naming.None
	if clsSrc, ok := pathres.ReadSource(classFile); ok {
		conv = scanner.ConventionAnnotation(clsSrc)
	}
	candidates = append(candidates, naming.CandidateNames(method, conv)...)

	seen := make(map[string]bool, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}

func (r *Resolver) locate(ctx context.Context, classFile, className string, candidates []string) ResolvedLocation {
	m, ok := r.locator.Locate(ctx, classFile, className, candidates)
	if !ok {
		slog.Debug("no declaration found", "class", className, "candidates", candidates)
		return ResolvedLocation{}
	}
	return ResolvedLocation{Path: m.Path, Line: m.Line, Column: m.Column, Found: true}
}

// InvalidatePath drops every cached entry touching the given file: cached
// resolutions keyed by it or pointing into it, and class-file entries
// naming it. Called by the watcher on change/create/delete.
func (r *Resolver) InvalidatePath(path string) int {
	n := r.resCache.DeleteFunc(func(k resKey, v ResolvedLocation) bool {
		return k.File == path || v.Path == path
	})
	n += r.classCache.DeleteFunc(func(_, p string) bool { return p == path })
	if n > 0 {
		observability.CacheInvalidationsTotal.Inc()
	}
	return n
}

// InvalidateAll clears both caches, the minimal conforming invalidation.
func (r *Resolver) InvalidateAll() {
	r.resCache.Clear()
	r.classCache.Clear()
	observability.CacheInvalidationsTotal.Inc()
}

// CacheSizes reports current occupancy, used by health reporting.
func (r *Resolver) CacheSizes() (resolutions, classFiles int) {
	return r.resCache.Len(), r.classCache.Len()
}

func shortName(fqn string) string {
	segs := strings.Split(fqn, `\`)
	return segs[len(segs)-1]
}
