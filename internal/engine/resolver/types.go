// # internal/engine/resolver/types.go
package resolver

import "phpnav/internal/engine/scanner"

// Kind classifies the symbol under the cursor.
type Kind int

const (
	KindUnknown Kind = iota
	KindAccessor
	KindProperty
)

func (k Kind) String() string {
	switch k {
	case KindAccessor:
		return "accessor"
	case KindProperty:
		return "property"
	default:
		return "unknown"
	}
}

// Reference is one navigation request, derived fresh from source text and
// never persisted.
type Reference struct {
	Symbol   string
	Kind     Kind
	File     string
	Location scanner.Location
	LineText string
	Receiver string // expression the symbol is invoked on, "" when none
	Offset   int
}

// ResolvedLocation is the terminal result of one resolution. Found=false is
// the definitive "not found" the engine degrades to; it is never an error.
type ResolvedLocation struct {
	Path   string `json:"path,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
	Found  bool   `json:"found"`
}

// CompletionItem is one suggestion offered after a member-access token.
type CompletionItem struct {
	Label  string `json:"label"`
	Kind   string `json:"kind"` // property or method
	Detail string `json:"detail,omitempty"`
}
