package config

import "time"

// Config is the root of the TOML configuration file.
type Config struct {
	Version   int             `toml:"version"`
	Workspace WorkspaceConfig `toml:"workspace"`
	Proxy     ProxyConfig     `toml:"proxy"`
	Search    SearchConfig    `toml:"search"`
	Cache     CacheConfig     `toml:"cache"`
	Watch     WatchConfig     `toml:"watch"`
	Server    ServerConfig    `toml:"server"`
	DB        DBConfig        `toml:"db"`
	Tracing   TracingConfig   `toml:"tracing"`
	LogLevel  string          `toml:"log_level"`
}

// WorkspaceConfig describes where source files live and how namespaces
// map onto the directory tree.
type WorkspaceConfig struct {
	Roots []string `toml:"roots"`
	// Prefixes are tried between a root and the namespace-derived
	// relative path, e.g. "src" for PSR-4 style layouts. An empty
	// string means the namespace maps directly under the root.
	Prefixes []string `toml:"prefixes"`
}

// ProxyConfig controls recognition of generated proxy files and their
// sidecar metadata documents.
type ProxyConfig struct {
	Prefix     string `toml:"prefix"`
	Suffix     string `toml:"suffix"`
	SidecarDir string `toml:"sidecar_dir"`
}

// SearchConfig bounds the resolution heuristics.
type SearchConfig struct {
	AnnotationWindow int `toml:"annotation_window"`
	MaxParentDepth   int `toml:"max_parent_depth"`
	WalkMaxDepth     int `toml:"walk_max_depth"`
	WalkMaxFiles     int `toml:"walk_max_files"`
	WalkRate         int `toml:"walk_rate"`
	WalkBurst        int `toml:"walk_burst"`
}

type CacheConfig struct {
	ResolutionSize int `toml:"resolution_size"`
	ClassFileSize  int `toml:"class_file_size"`
}

type WatchConfig struct {
	Enabled  bool          `toml:"enabled"`
	Debounce time.Duration `toml:"debounce"`
	Exclude  []string      `toml:"exclude"`
}

type ServerConfig struct {
	Address   string  `toml:"address"`
	RateLimit float64 `toml:"rate_limit"`
	RateBurst int     `toml:"rate_burst"`
}

// DBConfig configures the resolution history store.
type DBConfig struct {
	Enabled     bool          `toml:"enabled"`
	Path        string        `toml:"path"`
	BusyTimeout time.Duration `toml:"busy_timeout"`
	MaxRecords  int           `toml:"max_records"`
}

type TracingConfig struct {
	Endpoint    string `toml:"endpoint"`
	ServiceName string `toml:"service_name"`
}
