// Package limn2k is the reference backend.
// It binds names to a fixed register file and emits textual limn2k assembly.
//
//	main:
//		li 10, 0
//		ret
package limn2k

import (
	"io"

	"github.com/nikandfor/hacked/hfmt"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler/ast"
	"github.com/limnarch-extra/seadragon/compiler/back"
	"github.com/limnarch-extra/seadragon/compiler/set"
)

type (
	// Reg is a register number. Slot i is register i+1.
	Reg uint8

	Config struct {
		Registers int `toml:"registers"`

		// OutputSlots are the register file slots holding function outputs,
		// first output first.
		OutputSlots []int `toml:"output-slots"`
	}

	Arch struct {
		w io.Writer
		b []byte

		// regs holds the name bound to each used slot.
		// Names are borrowed from the function being compiled.
		regs []string
		used set.Bits[int]

		outputs []int
	}
)

const (
	DefaultRegisters = 26

	// MaxImmediate is the biggest value li can load.
	MaxImmediate = 0xffff

	maxRegisters = 255
)

// DefaultOutputSlots is the calling convention: the first output lives in slot 9,
// the second one in slot 10.
var DefaultOutputSlots = [...]int{9, 10}

var (
	ErrOutputArity  = errors.New("unsupported output arity")
	ErrNoSpill      = errors.New("no spilling support")
	ErrStoreOperand = errors.New("unsupported store operand")
	ErrLocation     = errors.New("not a limn2k register")
)

func DefaultConfig() Config {
	return Config{
		Registers:   DefaultRegisters,
		OutputSlots: append([]int{}, DefaultOutputSlots[:]...),
	}
}

func New(w io.Writer, c Config) (*Arch, error) {
	err := c.Validate()
	if err != nil {
		return nil, err
	}

	return &Arch{
		w:       w,
		regs:    make([]string, c.Registers),
		used:    set.MakeBits(0),
		outputs: append([]int{}, c.OutputSlots...),
	}, nil
}

// Factory makes a back.Factory producing limn2k targets.
func Factory(c Config) back.Factory {
	return func(w io.Writer) (any, error) {
		return New(w, c)
	}
}

func (c Config) Validate() error {
	if c.Registers <= 0 || c.Registers > maxRegisters {
		return errors.New("registers: %d is out of range [1, %d]", c.Registers, maxRegisters)
	}

	for i, s := range c.OutputSlots {
		if s < 0 || s >= c.Registers {
			return errors.New("output slot %d: %d is out of range [0, %d)", i, s, c.Registers)
		}

		for _, p := range c.OutputSlots[:i] {
			if p == s {
				return errors.New("output slot %d: slot %d is used twice", i, s)
			}
		}
	}

	return nil
}

func (a *Arch) BeginFunc(f *ast.Func) error {
	if len(f.Outputs) > len(a.outputs) {
		return errors.Wrap(ErrOutputArity, "%d outputs, at most %d supported", len(f.Outputs), len(a.outputs))
	}

	clear(a.regs)
	a.used.Reset()

	for i, name := range f.Outputs {
		a.regs[a.outputs[i]] = name
		a.used.Set(a.outputs[i])
	}

	a.b = hfmt.Appendf(a.b[:0], "%s:\n", f.Name)

	return a.flush()
}

// AllocReg reuses the slot already bound to name,
// otherwise the first free slot is bound.
func (a *Arch) AllocReg(name string) (ast.Loc, error) {
	for i, bound := range a.regs {
		if bound == name && a.used.IsSet(i) {
			return Reg(i + 1), nil
		}
	}

	free, ok := a.used.FirstClear(len(a.regs))
	if !ok {
		return nil, errors.Wrap(ErrNoSpill, "all %d registers are bound, allocating %v", len(a.regs), name)
	}

	a.regs[free] = name
	a.used.Set(free)

	tlog.V("limn2k").Printw("register bound", "name", name, "reg", Reg(free+1))

	return Reg(free + 1), nil
}

func (a *Arch) StoreLong(l ast.Loc, v ast.Value) error {
	r, ok := l.(Reg)
	if !ok {
		return errors.Wrap(ErrLocation, "%T", l)
	}

	if !v.IsLit() {
		return errors.Wrap(ErrStoreOperand, "%v is not a literal", v)
	}

	if v.Lit() > MaxImmediate {
		return errors.Wrap(ErrStoreOperand, "%d does not fit into 16 bits", v.Lit())
	}

	tlog.V("limn2k").Printw("store", "reg", r, "name", a.Binding(r), "value", v)

	a.b = hfmt.Appendf(a.b[:0], "\tli %d, %d\n", int(r), v.Lit())

	return a.flush()
}

func (a *Arch) Return() error {
	a.b = append(a.b[:0], "\tret\n"...)

	return a.flush()
}

// Binding returns the name bound to r in the current function.
func (a *Arch) Binding(r Reg) string {
	if r == 0 || int(r) > len(a.regs) || !a.used.IsSet(int(r)-1) {
		return ""
	}

	return a.regs[r-1]
}

func (a *Arch) flush() error {
	_, err := a.w.Write(a.b)
	if err != nil {
		return errors.Wrap(err, "write")
	}

	return nil
}
