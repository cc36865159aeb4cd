package ast

import "fmt"

type (
	// File is a compilation unit.
	// All lists are owned by the File.
	File struct {
		Name string

		Structures []Struct
		Funcs      []*Func
		Constants  []Const
	}

	Struct struct {
		Pos  Pos
		Name string
	}

	Const struct {
		Pos   Pos
		Name  string
		Value Value
	}

	// Func holds either an instruction list (as produced by parse)
	// or an expression tree (after analyze). Never both.
	Func struct {
		Pos  Pos
		Name string

		Inputs  []string
		Outputs []string
		Locals  []string

		Code []Instr
		Tree *Node
	}

	Pos struct {
		Line int
		Col  int
	}
)

// Lowered reports whether f holds an expression tree.
func (f *Func) Lowered() bool { return f.Tree != nil }

// SetTree switches f to the tree representation and releases the instruction list.
func (f *Func) SetTree(n *Node) {
	f.Tree = n
	f.Code = nil
}

func (p Pos) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Col)
}
