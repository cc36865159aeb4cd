package back

import (
	"context"
	"fmt"
	"io"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler/ast"
)

type (
	Compiler struct{}

	funContext struct {
		Arch
		*ast.Func

		tr tlog.Span
	}

	// Error is a code generation failure. It aborts the whole pass.
	// errors.Is(err, Kind) holds; Err is the underlying cause if any.
	Error struct {
		Func string
		Kind error
		Err  error
	}
)

var (
	ErrUnsupportedAST = errors.New("unsupported AST shape")
	ErrIncomplete     = errors.New("backend incomplete")
	ErrNotLowered     = errors.New("function is not lowered")
	ErrEmptyFunc      = errors.New("function has no operation")
	ErrGenerated      = errors.New("function is already generated")
	ErrBeginFunc      = errors.New("begin function failed")
	ErrRegAlloc       = errors.New("register allocation failed")
	ErrStoreTarget    = errors.New("expected machine location as store target")
	ErrStoreSource    = errors.New("unsupported store source")
	ErrStore          = errors.New("store long failed")
	ErrReturn         = errors.New("return failed")
	ErrNoneOp         = errors.New("internal error: operation none reached code generation")
	ErrUnknownOp      = errors.New("internal error: unknown operation")
	ErrRootValue      = errors.New("internal error: function root yielded a value")
)

func New() *Compiler {
	return &Compiler{}
}

// CompileFile generates code for every function of the lowered unit f.
// The first failure aborts the pass; output already written to w is kept.
func (c *Compiler) CompileFile(ctx context.Context, w io.Writer, f *ast.File, newArch Factory) (err error) {
	if f == nil {
		return &Error{Kind: ErrUnsupportedAST, Err: errors.New("nil file")}
	}

	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "back: compile file", "name", f.Name, "funcs", len(f.Funcs))
	defer tr.Finish("err", &err)

	if len(f.Structures) != 0 || len(f.Constants) != 0 {
		return &Error{Kind: ErrUnsupportedAST, Err: errors.New("%d structures and %d constants", len(f.Structures), len(f.Constants))}
	}

	if newArch == nil {
		return &Error{Kind: ErrIncomplete, Err: errors.New("no backend")}
	}

	x, err := newArch(w)
	if err != nil {
		return errors.Wrap(err, "new backend")
	}

	a, err := AsArch(x)
	if err != nil {
		return &Error{Kind: ErrIncomplete, Err: err}
	}

	for _, fn := range f.Funcs {
		err = c.compileFunc(ctx, a, fn)
		if err != nil {
			return err
		}
	}

	if fl, ok := x.(Flusher); ok {
		err = fl.Flush()
		if err != nil {
			return errors.Wrap(err, "flush")
		}
	}

	return nil
}

func (c *Compiler) compileFunc(ctx context.Context, a Arch, fn *ast.Func) (err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "compile func", "name", fn.Name, "out", fn.Outputs)
	defer tr.Finish("err", &err)

	if !fn.Lowered() {
		return newError(fn, ErrNotLowered, nil)
	}

	root := fn.Tree

	if root.Op == ast.OpNone && root.Left == nil && root.Right == nil {
		return newError(fn, ErrEmptyFunc, nil)
	}

	if generated(root) {
		return newError(fn, ErrGenerated, nil)
	}

	if tr.If("dump_tree") {
		tr.Printw("tree before", "tree", root)
	}

	f := &funContext{
		Arch: a,
		Func: fn,
		tr:   tr,
	}

	err = a.BeginFunc(fn)
	if err != nil {
		return newError(fn, ErrBeginFunc, err)
	}

	l, err := f.node(root)
	if err != nil {
		return err
	}

	if l != nil {
		return newError(fn, ErrRootValue, errors.New("%v", l))
	}

	if root.Op != ast.OpReturn {
		err = a.Return()
		if err != nil {
			return newError(fn, ErrReturn, err)
		}
	}

	if tr.If("dump_tree") {
		tr.Printw("tree after", "tree", root)
	}

	return nil
}

// node resolves n's operands and emits n.
// It returns the location of n's result or nil for statements.
// Operand slots are updated only after they were resolved successfully.
func (f *funContext) node(n *ast.Node) (_ ast.Loc, err error) {
	l, err := f.leaf(n.Left)
	if err != nil {
		return nil, err
	}

	n.Left = l

	r, err := f.leaf(n.Right)
	if err != nil {
		return nil, err
	}

	n.Right = r

	switch n.Op {
	case ast.OpStoreLong:
		if n.Left == nil || n.Left.Kind != ast.LeafResolved {
			return nil, newError(f.Func, ErrStoreTarget, errors.New("got %v", n.Left))
		}

		if n.Right == nil || n.Right.Kind != ast.LeafValue || !n.Right.Value.IsLit() {
			return nil, newError(f.Func, ErrStoreSource, errors.New("got %v", n.Right))
		}

		f.tr.V("store").Printw("store long", "loc", n.Left.Loc, "value", n.Right.Value)

		err = f.StoreLong(n.Left.Loc, n.Right.Value)
		if err != nil {
			return nil, newError(f.Func, ErrStore, err)
		}

		return nil, nil
	case ast.OpReturn:
		err = f.Return()
		if err != nil {
			return nil, newError(f.Func, ErrReturn, err)
		}

		return nil, nil
	case ast.OpNone:
		return nil, newError(f.Func, ErrNoneOp, nil)
	default:
		return nil, newError(f.Func, ErrUnknownOp, errors.New("%v", n.Op))
	}
}

// leaf rewrites l in place. Nested nodes yielding nothing are detached.
func (f *funContext) leaf(l *ast.Leaf) (*ast.Leaf, error) {
	if l == nil {
		return nil, nil
	}

	switch l.Kind {
	case ast.LeafNode:
		if l.Node == nil {
			return nil, newError(f.Func, ErrNoneOp, errors.New("empty node leaf"))
		}

		loc, err := f.node(l.Node)
		if err != nil {
			return nil, err
		}

		if loc == nil {
			return nil, nil
		}

		l.Resolve(loc)

		return l, nil
	case ast.LeafValue:
		if !l.Value.IsIdent() {
			return l, nil // immediate
		}

		name := l.Value.Name()

		loc, err := f.AllocReg(name)
		if err != nil {
			return nil, newError(f.Func, ErrRegAlloc, err)
		}

		if loc == nil {
			return nil, newError(f.Func, ErrRegAlloc, errors.New("no location for %v", name))
		}

		f.tr.V("alloc").Printw("register allocated", "name", name, "loc", loc)

		l.Resolve(loc)

		return l, nil
	case ast.LeafResolved:
		return nil, newError(f.Func, ErrGenerated, errors.New("resolved leaf %v", l))
	default:
		return nil, newError(f.Func, ErrUnknownOp, errors.New("leaf kind %v", l.Kind))
	}
}

func generated(n *ast.Node) bool {
	return !n.Walk(func(l *ast.Leaf) bool {
		return l.Kind != ast.LeafResolved
	})
}

func newError(fn *ast.Func, kind, err error) *Error {
	return &Error{
		Func: fn.Name,
		Kind: kind,
		Err:  err,
	}
}

func (e *Error) Error() string {
	msg := e.Kind.Error()

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	if e.Func == "" {
		return "codegen: " + msg
	}

	return fmt.Sprintf("codegen: func %v: %s", e.Func, msg)
}

func (e *Error) Is(target error) bool { return target == e.Kind }

func (e *Error) Unwrap() error { return e.Err }
