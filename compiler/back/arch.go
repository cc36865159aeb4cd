package back

import (
	"io"
	"strings"

	"tlog.app/go/errors"

	"github.com/limnarch-extra/seadragon/compiler/ast"
)

type (
	// FuncBeginner resets per function state.
	// It may pre-bind calling convention locations for declared outputs.
	FuncBeginner interface {
		BeginFunc(f *ast.Func) error
	}

	// RegAllocator binds a name to a machine location.
	// Repeated calls with the same name within one function
	// must return the same location.
	RegAllocator interface {
		AllocReg(name string) (ast.Loc, error)
	}

	// LongStorer materializes v into l.
	LongStorer interface {
		StoreLong(l ast.Loc, v ast.Value) error
	}

	// Returner emits a function exit.
	Returner interface {
		Return() error
	}

	// Arch is a code generation target.
	Arch interface {
		FuncBeginner
		RegAllocator
		LongStorer
		Returner
	}

	// Flusher is implemented by targets which buffer the whole unit.
	// Flush is called once after the last function.
	Flusher interface {
		Flush() error
	}

	// Factory creates a target writing to w.
	// The result must implement every capability of Arch.
	Factory func(w io.Writer) (any, error)
)

// AsArch checks x provides all the capabilities of Arch.
func AsArch(x any) (Arch, error) {
	var missing []string

	if _, ok := x.(FuncBeginner); !ok {
		missing = append(missing, "BeginFunc")
	}

	if _, ok := x.(RegAllocator); !ok {
		missing = append(missing, "AllocReg")
	}

	if _, ok := x.(LongStorer); !ok {
		missing = append(missing, "StoreLong")
	}

	if _, ok := x.(Returner); !ok {
		missing = append(missing, "Return")
	}

	if len(missing) != 0 {
		return nil, errors.New("%T: missing %v", x, strings.Join(missing, ", "))
	}

	return x.(Arch), nil
}
