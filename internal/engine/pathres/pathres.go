// # internal/engine/pathres/pathres.go
package pathres

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"phpnav/internal/engine/scanner"
	"phpnav/internal/shared/observability"
	"phpnav/internal/shared/util"
)

// Options bound the resolver's filesystem footprint. Every search is
// depth- and file-limited so resolution terminates in bounded time even
// over large workspaces.
type Options struct {
	Roots     []string // workspace roots, e.g. the application and sources dirs
	Prefixes  []string // layout prefixes tried under each root ("" means the root itself)
	MaxDepth  int      // fallback walk depth limit
	MaxFiles  int      // fallback walk file budget
	WalkRate  float64  // fallback walk tokens per second
	WalkBurst int
}

const (
	DefaultMaxDepth  = 8
	DefaultMaxFiles  = 2000
	defaultWalkRate  = 4000
	defaultWalkBurst = 512
)

// Resolver maps a fully qualified type name to the file declaring it.
// Candidates are only accepted after the scanner confirms a matching class
// declaration; existence alone is not enough.
type Resolver struct {
	opts    Options
	limiter *util.Limiter
}

func New(opts Options) *Resolver {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxFiles <= 0 {
		opts.MaxFiles = DefaultMaxFiles
	}
	if opts.WalkRate <= 0 {
		opts.WalkRate = defaultWalkRate
	}
	if opts.WalkBurst <= 0 {
		opts.WalkBurst = defaultWalkBurst
	}
	if len(opts.Prefixes) == 0 {
		opts.Prefixes = []string{"", "src", "app", "lib"}
	}
	return &Resolver{
		opts:    opts,
		limiter: util.NewLimiter(opts.WalkRate, opts.WalkBurst),
	}
}

// Resolve returns the verified file path declaring fqn, or ok=false after
// both direct layout conventions and the bounded fallback walk are
// exhausted. It never guesses: an unverified path is never returned.
func (r *Resolver) Resolve(ctx context.Context, fqn string) (string, bool) {
	fqn = strings.Trim(fqn, `\`)
	if fqn == "" {
		return "", false
	}
	segs := strings.Split(fqn, `\`)
	short := segs[len(segs)-1]

	for _, candidate := range r.directCandidates(segs) {
		if err := ctx.Err(); err != nil {
			return "", false
		}
		if r.verify(candidate, short) {
			return candidate, true
		}
	}

	if path, ok := r.fallbackSearch(ctx, short); ok {
		return path, true
	}
	return "", false
}

// directCandidates enumerates layout-convention paths in priority order:
// case-preserved segments, lower-cased first segment, and segments without
// the leading vendor segment (PSR-4 style roots).
func (r *Resolver) directCandidates(segs []string) []string {
	variants := [][]string{segs}
	if len(segs) > 1 {
		lowered := append([]string(nil), segs...)
		lowered[0] = strings.ToLower(lowered[0])
		variants = append(variants, lowered, segs[1:])
	}

	var out []string
	for _, root := range r.opts.Roots {
		for _, prefix := range r.opts.Prefixes {
			for _, v := range variants {
				rel := filepath.Join(v...) + ".php"
				out = append(out, filepath.Join(root, prefix, rel))
			}
		}
	}
	return out
}

// verify accepts a candidate only when the file exists and declares a class
// with the expected short name.
func (r *Resolver) verify(path, className string) bool {
	src, ok := readSource(path)
	if !ok {
		return false
	}
	c, found := scanner.FirstClass(src)
	return found && c.Name == className
}

// fallbackSearch walks each root looking for files whose name contains the
// short type name, bounded by depth and file budget and throttled through
// the token bucket.
func (r *Resolver) fallbackSearch(ctx context.Context, short string) (string, bool) {
	lowerShort := strings.ToLower(short)
	budget := r.opts.MaxFiles

	for _, root := range r.opts.Roots {
		found := ""
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				// Unreadable entries are "effectively absent".
				return nil
			}
			if ctx.Err() != nil {
				return fs.SkipAll
			}
			if d.IsDir() {
				if pathDepth(root, path) > r.opts.MaxDepth {
					return fs.SkipDir
				}
				return nil
			}
			if budget <= 0 {
				return fs.SkipAll
			}
			budget--
			observability.FallbackWalkFilesTotal.Inc()
			if err := r.limiter.Wait(ctx, 1); err != nil {
				return fs.SkipAll
			}

			name := d.Name()
			if !strings.HasSuffix(name, ".php") {
				return nil
			}
			if !strings.Contains(strings.ToLower(name), lowerShort) {
				return nil
			}
			if r.verify(path, short) {
				found = path
				return fs.SkipAll
			}
			return nil
		})
		if err != nil {
			slog.Debug("fallback walk aborted", "root", root, "error", err)
		}
		if found != "" {
			return found, true
		}
	}
	return "", false
}

// WalkSources visits PHP files under every root, subject to the same depth
// and file bounds as the fallback search. The visitor returns false to stop
// early. Used by workspace-wide reference scans.
func (r *Resolver) WalkSources(ctx context.Context, visit func(path, src string) bool) {
	budget := r.opts.MaxFiles
	for _, root := range r.opts.Roots {
		stop := false
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if ctx.Err() != nil || stop {
				return fs.SkipAll
			}
			if d.IsDir() {
				if pathDepth(root, path) > r.opts.MaxDepth {
					return fs.SkipDir
				}
				return nil
			}
			if budget <= 0 {
				return fs.SkipAll
			}
			budget--
			if !strings.HasSuffix(d.Name(), ".php") {
				return nil
			}
			if err := r.limiter.Wait(ctx, 1); err != nil {
				return fs.SkipAll
			}
			src, ok := readSource(path)
			if !ok {
				return nil
			}
			if !visit(path, src) {
				stop = true
				return fs.SkipAll
			}
			return nil
		})
		if stop || ctx.Err() != nil {
			return
		}
	}
}

func pathDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// readSource reads a candidate file, treating any I/O failure as absence.
func readSource(path string) (string, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return "", false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Debug("candidate unreadable", "path", path, "error", err)
		return "", false
	}
	observability.FileReadsTotal.Inc()
	return string(data), true
}

// ReadSource is the shared read-with-absence helper used by the locator and
// orchestrator, so every source read funnels through one metric.
func ReadSource(path string) (string, bool) {
	return readSource(path)
}
