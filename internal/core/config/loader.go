package config

import (
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	normalizeWorkspace(&cfg)

	if err := validateVersion(&cfg); err != nil {
		return nil, err
	}
	if err := validateWorkspace(&cfg); err != nil {
		return nil, err
	}
	if err := validateProxy(&cfg); err != nil {
		return nil, err
	}
	if err := validateSearch(&cfg); err != nil {
		return nil, err
	}
	if err := validateCache(&cfg); err != nil {
		return nil, err
	}
	if err := validateServer(&cfg); err != nil {
		return nil, err
	}
	if err := validateDB(&cfg); err != nil {
		return nil, err
	}
	if err := validateLogLevel(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration usable without a config file, rooted
// at the given workspace directory.
func Default(root string) *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	cfg.Workspace.Roots = []string{root}
	normalizeWorkspace(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if len(cfg.Workspace.Roots) == 0 {
		cfg.Workspace.Roots = []string{"."}
	}
	if cfg.Workspace.Prefixes == nil {
		cfg.Workspace.Prefixes = []string{"", "src", "app", "lib"}
	}

	if strings.TrimSpace(cfg.Proxy.Prefix) == "" {
		cfg.Proxy.Prefix = "Gen_"
	}
	if strings.TrimSpace(cfg.Proxy.Suffix) == "" {
		cfg.Proxy.Suffix = "_Proxy"
	}
	if strings.TrimSpace(cfg.Proxy.SidecarDir) == "" {
		cfg.Proxy.SidecarDir = "_meta"
	}

	if cfg.Search.AnnotationWindow == 0 {
		cfg.Search.AnnotationWindow = 15
	}
	if cfg.Search.MaxParentDepth == 0 {
		cfg.Search.MaxParentDepth = 8
	}
	if cfg.Search.WalkMaxDepth == 0 {
		cfg.Search.WalkMaxDepth = 8
	}
	if cfg.Search.WalkMaxFiles == 0 {
		cfg.Search.WalkMaxFiles = 2000
	}
	if cfg.Search.WalkRate == 0 {
		cfg.Search.WalkRate = 4000
	}
	if cfg.Search.WalkBurst == 0 {
		cfg.Search.WalkBurst = 512
	}

	if cfg.Cache.ResolutionSize == 0 {
		cfg.Cache.ResolutionSize = 512
	}
	if cfg.Cache.ClassFileSize == 0 {
		cfg.Cache.ClassFileSize = 256
	}

	if cfg.Watch.Debounce == 0 {
		cfg.Watch.Debounce = 500 * time.Millisecond
	}
	if cfg.Watch.Exclude == nil {
		cfg.Watch.Exclude = []string{"vendor", ".git", "node_modules"}
	}

	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = "127.0.0.1:8723"
	}
	if cfg.Server.RateLimit == 0 {
		cfg.Server.RateLimit = 50
	}
	if cfg.Server.RateBurst == 0 {
		cfg.Server.RateBurst = 100
	}

	if strings.TrimSpace(cfg.DB.Path) == "" {
		cfg.DB.Path = "phpnav-history.db"
	}
	if cfg.DB.BusyTimeout <= 0 {
		cfg.DB.BusyTimeout = 5 * time.Second
	}
	if cfg.DB.MaxRecords == 0 {
		cfg.DB.MaxRecords = 10000
	}

	if strings.TrimSpace(cfg.Tracing.ServiceName) == "" {
		cfg.Tracing.ServiceName = "phpnav"
	}

	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
}

func normalizeWorkspace(cfg *Config) {
	roots := make([]string, 0, len(cfg.Workspace.Roots))
	for _, r := range cfg.Workspace.Roots {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		roots = append(roots, r)
	}
	cfg.Workspace.Roots = roots

	for i := range cfg.Workspace.Prefixes {
		cfg.Workspace.Prefixes[i] = strings.Trim(strings.TrimSpace(cfg.Workspace.Prefixes[i]), "/")
	}
}
