package config

import (
	"fmt"
	"strings"

	"github.com/gobwas/glob"
)

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d; only version 1 is supported", cfg.Version)
	}
	return nil
}

func validateWorkspace(cfg *Config) error {
	if len(cfg.Workspace.Roots) == 0 {
		return fmt.Errorf("workspace.roots must contain at least one directory")
	}
	return nil
}

func validateProxy(cfg *Config) error {
	if strings.ContainsAny(cfg.Proxy.Prefix, "/\\") {
		return fmt.Errorf("proxy.prefix must not contain path separators")
	}
	if strings.ContainsAny(cfg.Proxy.Suffix, "/\\") {
		return fmt.Errorf("proxy.suffix must not contain path separators")
	}
	if strings.ContainsAny(cfg.Proxy.SidecarDir, "/\\") {
		return fmt.Errorf("proxy.sidecar_dir must be a single directory name")
	}
	return nil
}

func validateSearch(cfg *Config) error {
	if cfg.Search.AnnotationWindow < 1 || cfg.Search.AnnotationWindow > 200 {
		return fmt.Errorf("search.annotation_window must be between 1 and 200")
	}
	if cfg.Search.MaxParentDepth < 1 || cfg.Search.MaxParentDepth > 64 {
		return fmt.Errorf("search.max_parent_depth must be between 1 and 64")
	}
	if cfg.Search.WalkMaxDepth < 1 {
		return fmt.Errorf("search.walk_max_depth must be >= 1")
	}
	if cfg.Search.WalkMaxFiles < 1 {
		return fmt.Errorf("search.walk_max_files must be >= 1")
	}
	if cfg.Search.WalkRate < 1 || cfg.Search.WalkBurst < 1 {
		return fmt.Errorf("search.walk_rate and search.walk_burst must be >= 1")
	}
	return nil
}

func validateCache(cfg *Config) error {
	if cfg.Cache.ResolutionSize < 1 {
		return fmt.Errorf("cache.resolution_size must be >= 1")
	}
	if cfg.Cache.ClassFileSize < 1 {
		return fmt.Errorf("cache.class_file_size must be >= 1")
	}
	return nil
}

func validateServer(cfg *Config) error {
	if strings.TrimSpace(cfg.Server.Address) == "" {
		return fmt.Errorf("server.address must not be empty")
	}
	if cfg.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be > 0")
	}
	if cfg.Server.RateBurst < 1 {
		return fmt.Errorf("server.rate_burst must be >= 1")
	}
	for i, pattern := range cfg.Watch.Exclude {
		if _, err := glob.Compile(pattern); err != nil {
			return fmt.Errorf("watch.exclude[%d]: invalid glob %q: %w", i, pattern, err)
		}
	}
	return nil
}

func validateDB(cfg *Config) error {
	if !cfg.DB.Enabled {
		return nil
	}
	if strings.TrimSpace(cfg.DB.Path) == "" {
		return fmt.Errorf("db.path must not be empty when db.enabled=true")
	}
	if cfg.DB.MaxRecords < 1 {
		return fmt.Errorf("db.max_records must be >= 1")
	}
	return nil
}

func validateLogLevel(cfg *Config) error {
	switch strings.ToLower(strings.TrimSpace(cfg.LogLevel)) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("log_level must be one of: debug, info, warn, error")
}
