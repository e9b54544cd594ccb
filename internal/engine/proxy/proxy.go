// # internal/engine/proxy/proxy.go
//
// Generated proxy files mirror an original class's accessors. Their file
// name wraps the original fully qualified class name between fixed marker
// strings, with namespace segments joined by underscores:
//
//	Gen_App_Domain_Widget_Proxy.php  ->  App\Domain\Widget
//
// An optional sidecar directory next to the proxies holds one mapping
// document per class recording exact methodName -> fieldName pairs; when
// present it beats every naming-convention guess.
package proxy

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultPrefix     = "Gen_"
	DefaultSuffix     = "_Proxy"
	DefaultSidecarDir = "_meta"
)

// Markers configures the filename encoding and the sidecar location.
type Markers struct {
	Prefix     string
	Suffix     string
	SidecarDir string
}

func (m Markers) withDefaults() Markers {
	if m.Prefix == "" {
		m.Prefix = DefaultPrefix
	}
	if m.Suffix == "" {
		m.Suffix = DefaultSuffix
	}
	if m.SidecarDir == "" {
		m.SidecarDir = DefaultSidecarDir
	}
	return m
}

// Linkage ties a proxy file to the original class it mirrors.
type Linkage struct {
	ProxyPath string
	Namespace string
	ClassName string
	Joined    string // underscore-joined form, also the sidecar document name
}

// FQN returns the original fully qualified class name.
func (l Linkage) FQN() string {
	if l.Namespace == "" {
		return l.ClassName
	}
	return l.Namespace + `\` + l.ClassName
}

// ParseProxyName decodes a proxy file path back to its original class.
// Returns ok=false when the name does not carry both markers.
func ParseProxyName(path string, m Markers) (Linkage, bool) {
	m = m.withDefaults()
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if !strings.HasPrefix(base, m.Prefix) || !strings.HasSuffix(base, m.Suffix) {
		return Linkage{}, false
	}
	joined := strings.TrimSuffix(strings.TrimPrefix(base, m.Prefix), m.Suffix)
	segs := strings.Split(joined, "_")
	if len(segs) == 0 || segs[len(segs)-1] == "" {
		return Linkage{}, false
	}

	return Linkage{
		ProxyPath: path,
		Namespace: strings.Join(segs[:len(segs)-1], `\`),
		ClassName: segs[len(segs)-1],
		Joined:    joined,
	}, true
}

// IsProxyPath reports whether a path looks like a generated proxy file.
func IsProxyPath(path string, m Markers) bool {
	_, ok := ParseProxyName(path, m)
	return ok
}

// MethodRecord is one sidecar entry. The document format predates this tool
// and uses methodName/fieldName keys in both its YAML and JSON renditions.
type MethodRecord struct {
	MethodName string `yaml:"methodName" json:"methodName"`
	FieldName  string `yaml:"fieldName" json:"fieldName"`
}

type sidecarDoc struct {
	Methods []MethodRecord `yaml:"methods" json:"methods"`
}

// LoadMapping looks up the original field name for a generated accessor.
// The sidecar document lives in the reserved subdirectory next to the proxy
// and is named after the joined class name. Method names match
// case-insensitively. A missing sidecar or entry is not an error; the
// caller falls back to naming-convention candidates.
func LoadMapping(proxyPath string, m Markers, methodName string) (string, bool) {
	m = m.withDefaults()
	link, ok := ParseProxyName(proxyPath, m)
	if !ok {
		return "", false
	}

	dir := filepath.Join(filepath.Dir(proxyPath), m.SidecarDir)
	for _, ext := range []string{".yaml", ".yml", ".json"} {
		doc, ok := readSidecar(filepath.Join(dir, link.Joined+ext))
		if !ok {
			continue
		}
		for _, rec := range doc.Methods {
			if strings.EqualFold(rec.MethodName, methodName) && rec.FieldName != "" {
				return rec.FieldName, true
			}
		}
		// One document per class; a present document without the entry
		// means there is nothing more authoritative to find.
		return "", false
	}
	return "", false
}

func readSidecar(path string) (sidecarDoc, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return sidecarDoc{}, false
	}

	var doc sidecarDoc
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		slog.Debug("malformed sidecar document", "path", path, "error", err)
		return sidecarDoc{}, false
	}
	return doc, true
}
