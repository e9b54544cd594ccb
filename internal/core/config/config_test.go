package config

import (
	"strings"
	"testing"
	"time"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(`
version = 1

[workspace]
roots = ["/tmp/project"]
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if cfg.Proxy.Prefix != "Gen_" || cfg.Proxy.Suffix != "_Proxy" || cfg.Proxy.SidecarDir != "_meta" {
		t.Fatalf("proxy defaults not applied: %+v", cfg.Proxy)
	}
	if cfg.Search.AnnotationWindow != 15 {
		t.Fatalf("annotation window default = %d", cfg.Search.AnnotationWindow)
	}
	if cfg.Search.MaxParentDepth != 8 {
		t.Fatalf("parent depth default = %d", cfg.Search.MaxParentDepth)
	}
	if cfg.Cache.ResolutionSize != 512 || cfg.Cache.ClassFileSize != 256 {
		t.Fatalf("cache defaults not applied: %+v", cfg.Cache)
	}
	if cfg.Watch.Debounce != 500*time.Millisecond {
		t.Fatalf("debounce default = %v", cfg.Watch.Debounce)
	}
	if len(cfg.Workspace.Prefixes) == 0 || cfg.Workspace.Prefixes[0] != "" {
		t.Fatalf("prefix defaults = %v", cfg.Workspace.Prefixes)
	}
	if cfg.Server.Address == "" || cfg.DB.Path == "" {
		t.Fatal("server/db defaults missing")
	}
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(`
version = 1
log_level = "debug"

[workspace]
roots = ["/srv/app", " /srv/lib "]
prefixes = ["src/"]

[proxy]
prefix = "Proxy_"
sidecar_dir = "meta"

[search]
max_parent_depth = 3

[cache]
resolution_size = 32

[server]
address = "0.0.0.0:9000"
rate_limit = 5.0
`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cfg.Workspace.Roots) != 2 || cfg.Workspace.Roots[1] != "/srv/lib" {
		t.Fatalf("roots = %v", cfg.Workspace.Roots)
	}
	if cfg.Workspace.Prefixes[0] != "src" {
		t.Fatalf("prefixes not normalized: %v", cfg.Workspace.Prefixes)
	}
	if cfg.Proxy.Prefix != "Proxy_" || cfg.Proxy.SidecarDir != "meta" {
		t.Fatalf("proxy overrides lost: %+v", cfg.Proxy)
	}
	if cfg.Search.MaxParentDepth != 3 {
		t.Fatalf("max_parent_depth = %d", cfg.Search.MaxParentDepth)
	}
	if cfg.Cache.ResolutionSize != 32 {
		t.Fatalf("resolution_size = %d", cfg.Cache.ResolutionSize)
	}
	if cfg.Server.Address != "0.0.0.0:9000" || cfg.Server.RateLimit != 5.0 {
		t.Fatalf("server overrides lost: %+v", cfg.Server)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		toml string
		want string
	}{
		{"bad version", "version = 3", "config version"},
		{"bad parent depth", "[search]\nmax_parent_depth = -1", "max_parent_depth"},
		{"bad log level", `log_level = "chatty"`, "log_level"},
		{"bad exclude glob", "[watch]\nexclude = [\"[\"]", "invalid glob"},
		{"bad sidecar dir", "[proxy]\nsidecar_dir = \"a/b\"", "sidecar_dir"},
		{"bad rate limit", "[server]\nrate_limit = -2.0", "rate_limit"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.toml)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default("/srv/app")
	if len(cfg.Workspace.Roots) != 1 || cfg.Workspace.Roots[0] != "/srv/app" {
		t.Fatalf("roots = %v", cfg.Workspace.Roots)
	}
	if cfg.Proxy.Prefix != "Gen_" {
		t.Fatalf("defaults missing: %+v", cfg.Proxy)
	}
}
