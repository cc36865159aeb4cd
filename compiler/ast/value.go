package ast

import (
	"strconv"

	"tlog.app/go/tlog/tlwire"
)

type (
	ValueKind uint8

	// Value is an immutable literal or identifier operand.
	Value struct {
		kind ValueKind
		lit  uint32
		name string
	}
)

const (
	Literal ValueKind = iota
	Identifier
)

func Lit(x uint32) Value { return Value{kind: Literal, lit: x} }

func Ident(name string) Value { return Value{kind: Identifier, name: name} }

func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsLit() bool   { return v.kind == Literal }
func (v Value) IsIdent() bool { return v.kind == Identifier }

// Lit returns the literal payload. It's zero for identifiers.
func (v Value) Lit() uint32 { return v.lit }

// Name returns the identifier name. It's empty for literals.
func (v Value) Name() string { return v.name }

func (v Value) String() string {
	if v.kind == Identifier {
		return v.name
	}

	return strconv.FormatUint(uint64(v.lit), 10)
}

func (k ValueKind) String() string {
	switch k {
	case Literal:
		return "literal"
	case Identifier:
		return "identifier"
	default:
		return "ValueKind(" + strconv.Itoa(int(k)) + ")"
	}
}

func (v Value) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if v.kind == Identifier {
		return e.AppendFormat(b, "%s", v.name)
	}

	return e.AppendFormat(b, "%d", v.lit)
}
