// # internal/engine/scanner/types.go
package scanner

// Location is a 1-based line/column position inside a source text.
type Location struct {
	Line   int
	Column int
}

// Class describes the first class declaration found in a source text.
// BodyStart/BodyEnd are byte offsets of the opening brace and one past the
// matching closing brace; BodyEnd is -1 when the braces never balance.
type Class struct {
	Name       string
	Namespace  string
	Extends    string // raw name as written, may be aliased or fully qualified
	Implements []string
	DeclOffset int
	BodyStart  int
	BodyEnd    int
}

// FQN returns the fully qualified name of the class, or the short name when
// the file declares no namespace.
func (c Class) FQN() string {
	if c.Namespace == "" {
		return c.Name
	}
	return c.Namespace + `\` + c.Name
}

// Property is one property-like declaration: a visibility-qualified member,
// a constructor-promoted parameter, or a class constant.
type Property struct {
	Name     string
	Offset   int
	Promoted bool
	Const    bool
}
