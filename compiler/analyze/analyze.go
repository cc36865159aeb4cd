package analyze

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/loc"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler/ast"
)

type (
	// Error is a lowering failure. It aborts the whole pass.
	Error struct {
		Func  string
		Index int // offending instruction, -1 if none
		Instr ast.Instr

		Err error

		From loc.PC
	}

	funcState struct {
		fn *ast.Func

		stack []ast.Value
		node  *ast.Node // active node
	}
)

var (
	ErrStackUnderflow    = errors.New("stack underflow")
	ErrNesting           = errors.New("unsupported nesting")
	ErrStoreSource       = errors.New("unsupported: non-literal store source")
	ErrStoreTarget       = errors.New("invalid store target")
	ErrUnrecognizedInstr = errors.New("unrecognized instruction in lowering")
	ErrLowered           = errors.New("function is already lowered")
)

// Analyze lowers every function of f from its instruction list into an expression tree.
// Trees are installed only if all the functions lowered successfully,
// otherwise f is left untouched.
func Analyze(ctx context.Context, f *ast.File) (err error) {
	if f == nil {
		return errors.New("nil file")
	}

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "analyze", "file", f.Name, "funcs", len(f.Funcs))
	defer tr.Finish("err", &err)

	trees := make([]*ast.Node, len(f.Funcs))

	for i, fn := range f.Funcs {
		trees[i], err = lowerFunc(ctx, fn)
		if err != nil {
			return err
		}
	}

	for i, fn := range f.Funcs {
		fn.SetTree(trees[i])

		if tr.If("dump_tree") {
			tr.Printw("tree", "func", fn.Name, "tree", fn.Tree)
		}
	}

	return nil
}

func lowerFunc(ctx context.Context, fn *ast.Func) (*ast.Node, error) {
	if fn.Lowered() {
		return nil, newError(fn, -1, ErrLowered)
	}

	s := &funcState{
		fn:   fn,
		node: &ast.Node{Op: ast.OpNone},
	}

	for i, x := range fn.Code {
		err := s.instr(x)
		if err != nil {
			e := newError(fn, i, err)

			tlog.SpanFromContext(ctx).Printw("lowering failed", "func", e.Func, "index", e.Index, "instr", e.Instr, "from", e.From)

			return nil, e
		}
	}

	if len(s.stack) != 0 {
		tlog.SpanFromContext(ctx).V("analyze").Printw("values left on stack", "func", fn.Name, "values", s.stack)
	}

	return s.node, nil
}

func (s *funcState) instr(x ast.Instr) error {
	switch x.Kind {
	case ast.Push:
		s.stack = append(s.stack, x.Arg)

		return nil
	case ast.StoreLong:
		return s.storeLong()
	default:
		return errors.Wrap(ErrUnrecognizedInstr, "%v", x.Kind)
	}
}

// storeLong pops the target, then the source: `0 ret !` stores 0 into ret.
func (s *funcState) storeLong() error {
	if s.node.Op != ast.OpNone {
		return errors.Wrap(ErrNesting, "%v after %v", ast.OpStoreLong, s.node.Op)
	}

	lhs, ok := s.pop()
	if !ok {
		return errors.Wrap(ErrStackUnderflow, "store target")
	}

	rhs, ok := s.pop()
	if !ok {
		return errors.Wrap(ErrStackUnderflow, "store source")
	}

	if !rhs.IsLit() {
		return errors.Wrap(ErrStoreSource, "%v", rhs)
	}

	if !lhs.IsIdent() {
		return errors.Wrap(ErrStoreTarget, "%v", lhs)
	}

	*s.node = ast.Node{
		Op:    ast.OpStoreLong,
		Left:  ast.ValueLeaf(lhs),
		Right: ast.ValueLeaf(rhs),
	}

	return nil
}

func (s *funcState) pop() (v ast.Value, ok bool) {
	l := len(s.stack)
	if l == 0 {
		return v, false
	}

	v = s.stack[l-1]
	s.stack = s.stack[:l-1]

	return v, true
}

func newError(fn *ast.Func, i int, err error) *Error {
	e := &Error{
		Func:  fn.Name,
		Index: i,
		Err:   err,
		From:  loc.Caller(1),
	}

	if i >= 0 && i < len(fn.Code) {
		e.Instr = fn.Code[i]
	}

	return e
}

func (e *Error) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("lowering: func %v: %v", e.Func, e.Err)
	}

	return fmt.Sprintf("lowering: func %v: instruction %d (%v at %v): %v", e.Func, e.Index, e.Instr, e.Instr.Pos, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
