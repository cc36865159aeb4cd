package ast

import (
	"fmt"
	"strings"

	"tlog.app/go/tlog/tlwire"
)

type (
	Op uint8

	LeafKind uint8

	// Loc is a backend defined machine location.
	// It's only meaningful within one code generation pass.
	Loc any

	// Node is an operation with up to two operands.
	// A nil operand slot is absent.
	Node struct {
		Op    Op
		Left  *Leaf
		Right *Leaf
	}

	// Leaf is an operand slot. Exactly one of Node, Value and Loc is meaningful,
	// as selected by Kind.
	Leaf struct {
		Kind LeafKind

		Node  *Node
		Value Value
		Loc   Loc
	}
)

const (
	// OpNone is a placeholder for a node without an operation yet.
	// It must never reach code generation dispatch.
	OpNone Op = iota
	OpStoreLong
	OpReturn
)

const (
	LeafNode LeafKind = iota
	LeafValue
	LeafResolved
)

func NodeLeaf(n *Node) *Leaf { return &Leaf{Kind: LeafNode, Node: n} }

func ValueLeaf(v Value) *Leaf { return &Leaf{Kind: LeafValue, Value: v} }

func ResolvedLeaf(l Loc) *Leaf { return &Leaf{Kind: LeafResolved, Loc: l} }

// Resolve rewrites the leaf in place into a machine location.
// The previous payload is dropped.
func (l *Leaf) Resolve(loc Loc) {
	*l = Leaf{Kind: LeafResolved, Loc: loc}
}

// Walk calls fn for every leaf in the tree, depth first, left to right.
// Walking stops when fn returns false.
func (n *Node) Walk(fn func(l *Leaf) bool) bool {
	for _, l := range [2]*Leaf{n.Left, n.Right} {
		if l == nil {
			continue
		}

		if !fn(l) {
			return false
		}

		if l.Kind == LeafNode && l.Node != nil && !l.Node.Walk(fn) {
			return false
		}
	}

	return true
}

func (o Op) String() string {
	switch o {
	case OpNone:
		return "none"
	case OpStoreLong:
		return "slong"
	case OpReturn:
		return "return"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

func (k LeafKind) String() string {
	switch k {
	case LeafNode:
		return "node"
	case LeafValue:
		return "value"
	case LeafResolved:
		return "resolved"
	default:
		return fmt.Sprintf("LeafKind(%d)", int(k))
	}
}

// String renders the tree as an s-expression: (slong ret 0).
// Resolved leaves are printed as {loc}.
func (n *Node) String() string {
	var b strings.Builder

	n.write(&b)

	return b.String()
}

func (n *Node) write(b *strings.Builder) {
	b.WriteString("(")
	b.WriteString(n.Op.String())

	for _, l := range [2]*Leaf{n.Left, n.Right} {
		if l == nil {
			continue
		}

		b.WriteString(" ")
		l.write(b)
	}

	b.WriteString(")")
}

func (l *Leaf) String() string {
	var b strings.Builder

	l.write(&b)

	return b.String()
}

func (l *Leaf) write(b *strings.Builder) {
	switch l.Kind {
	case LeafNode:
		if l.Node == nil {
			b.WriteString("()")
			return
		}

		l.Node.write(b)
	case LeafValue:
		b.WriteString(l.Value.String())
	case LeafResolved:
		fmt.Fprintf(b, "{%v}", l.Loc)
	default:
		b.WriteString(l.Kind.String())
	}
}

func (n *Node) TlogAppend(b []byte) []byte {
	var e tlwire.Encoder

	if n == nil {
		return e.AppendNil(b)
	}

	return e.AppendFormat(b, "%s", n.String())
}
