// Package llvm is a backend emitting LLVM IR.
//
// Names are i32 stack slots. Functions return void, i32 or {i32, i32}
// depending on the number of declared outputs.
package llvm

import (
	"io"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler/ast"
	"github.com/limnarch-extra/seadragon/compiler/back"
)

type (
	Arch struct {
		w io.Writer
		m *ir.Module

		fn    *ir.Func
		entry *ir.Block

		vars    map[string]*ir.InstAlloca
		outputs []string
	}
)

const MaxOutputs = 2

var (
	ErrOutputArity  = errors.New("unsupported output arity")
	ErrStoreOperand = errors.New("unsupported store operand")
	ErrLocation     = errors.New("not an llvm stack slot")
	ErrNoFunc       = errors.New("no function begun")
)

func New(w io.Writer) *Arch {
	return &Arch{
		w: w,
		m: ir.NewModule(),
	}
}

func Factory() back.Factory {
	return func(w io.Writer) (any, error) {
		return New(w), nil
	}
}

func (a *Arch) BeginFunc(f *ast.Func) error {
	var rt types.Type

	switch len(f.Outputs) {
	case 0:
		rt = types.Void
	case 1:
		rt = types.I32
	case 2:
		rt = types.NewStruct(types.I32, types.I32)
	default:
		return errors.Wrap(ErrOutputArity, "%d outputs, at most %d supported", len(f.Outputs), MaxOutputs)
	}

	a.fn = a.m.NewFunc(f.Name, rt)
	a.entry = a.fn.NewBlock("entry")
	a.vars = make(map[string]*ir.InstAlloca)
	a.outputs = f.Outputs

	for _, name := range f.Outputs {
		a.alloc(name)
	}

	return nil
}

func (a *Arch) AllocReg(name string) (ast.Loc, error) {
	if a.fn == nil {
		return nil, ErrNoFunc
	}

	return a.alloc(name), nil
}

func (a *Arch) alloc(name string) *ir.InstAlloca {
	if v, ok := a.vars[name]; ok {
		return v
	}

	v := a.entry.NewAlloca(types.I32)
	v.SetName(name + ".addr")

	a.vars[name] = v

	tlog.V("llvm").Printw("stack slot", "func", a.fn.Name(), "name", name)

	return v
}

func (a *Arch) StoreLong(l ast.Loc, v ast.Value) error {
	if a.fn == nil {
		return ErrNoFunc
	}

	p, ok := l.(*ir.InstAlloca)
	if !ok {
		return errors.Wrap(ErrLocation, "%T", l)
	}

	if !v.IsLit() {
		return errors.Wrap(ErrStoreOperand, "%v is not a literal", v)
	}

	x := constant.NewInt(types.I32, int64(int32(v.Lit())))

	a.entry.NewStore(x, p)

	return nil
}

func (a *Arch) Return() error {
	if a.fn == nil {
		return ErrNoFunc
	}

	switch len(a.outputs) {
	case 0:
		a.entry.NewRet(nil)
	case 1:
		a.entry.NewRet(a.load(a.outputs[0]))
	default:
		var agg value.Value = constant.NewUndef(a.fn.Sig.RetType)

		for i, name := range a.outputs {
			agg = a.entry.NewInsertValue(agg, a.load(name), uint64(i))
		}

		a.entry.NewRet(agg)
	}

	return nil
}

func (a *Arch) load(name string) value.Value {
	return a.entry.NewLoad(types.I32, a.vars[name])
}

// Flush writes the whole module.
func (a *Arch) Flush() error {
	_, err := a.m.WriteTo(a.w)
	if err != nil {
		return errors.Wrap(err, "write module")
	}

	return nil
}
