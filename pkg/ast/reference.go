package ast

import (
	"unicode"
	"unicode/utf8"
)

// Sigil prefixes every variable reference in source text.
const Sigil = '#'

// The reserved spellings. Every other part of the module classifies names
// through Resolve instead of comparing against these.
const (
	thisName = "this"
	rootName = "root"
)

// ReferenceKind is the class a referenced name resolves to.
type ReferenceKind uint8

const (
	// RefNamedVariable is an ordinary key of the variable namespace.
	RefNamedVariable ReferenceKind = iota
	// RefActiveObject is the current top of the active-object stack (#this).
	RefActiveObject
	// RefRootObject is the root context object (#root).
	RefRootObject
)

func (k ReferenceKind) String() string {
	switch k {
	case RefActiveObject:
		return "active-object"
	case RefRootObject:
		return "root-object"
	default:
		return "named-variable"
	}
}

// Reference is a classified name. The zero value is not meaningful; use
// Resolve.
type Reference struct {
	kind ReferenceKind
	name string
}

// Resolve classifies name. The result depends on name alone, so it can be
// computed once when a node is built.
func Resolve(name string) Reference {
	switch name {
	case thisName:
		return Reference{kind: RefActiveObject, name: name}
	case rootName:
		return Reference{kind: RefRootObject, name: name}
	default:
		return Reference{kind: RefNamedVariable, name: name}
	}
}

// IsReserved reports whether name denotes #this or #root.
func IsReserved(name string) bool {
	return Resolve(name).Reserved()
}

// Kind returns the class of the reference.
func (r Reference) Kind() ReferenceKind {
	return r.kind
}

// Name returns the referenced name without the sigil.
func (r Reference) Name() string {
	return r.name
}

// Reserved reports whether r is one of the read-only context slots.
func (r Reference) Reserved() bool {
	return r.kind != RefNamedVariable
}

// String renders r with its sigil.
func (r Reference) String() string {
	return string(Sigil) + r.name
}

// IsNameStart reports whether r may begin a name.
func IsNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// IsNamePart reports whether r may continue a name.
func IsNamePart(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// IsValidName reports whether s is a syntactically valid name.
func IsValidName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if i == 0 && !IsNameStart(r) || i > 0 && !IsNamePart(r) {
			return false
		}
	}
	return true
}
