package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limnarch-extra/seadragon/compiler/analyze"
	"github.com/limnarch-extra/seadragon/compiler/back"
	"github.com/limnarch-extra/seadragon/compiler/back/limn2k"
	"github.com/limnarch-extra/seadragon/compiler/config"
	"github.com/limnarch-extra/seadragon/compiler/lex"
	"github.com/limnarch-extra/seadragon/compiler/parse"
)

func TestCompile(t *testing.T) {
	ctx := context.Background()

	obj, err := Compile(ctx, "main.sd", []byte("fn main {-- ret}\n\t0 ret !\nend\n"), nil)
	require.NoError(t, err)

	assert.Equal(t, "main:\n\tli 10, 0\n\tret\n", string(obj))
}

func TestCompileMany(t *testing.T) {
	ctx := context.Background()

	obj, err := Compile(ctx, "a.sd", []byte(`
fn one {-- ret}
	1 ret !
end

fn two {-- a b}
	auto t
	7 t !
end

fn none {--}
	65535 z !
end
`), config.Default())
	require.NoError(t, err)

	assert.Equal(t, `one:
	li 10, 1
	ret
two:
	li 1, 7
	ret
none:
	li 1, 65535
	ret
`, string(obj))
}

func TestCompileLLVM(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendLLVM

	obj, err := Compile(context.Background(), "main.sd", []byte("fn main {-- ret} 0 ret ! end"), cfg)
	require.NoError(t, err)

	assert.Contains(t, string(obj), "define i32 @main()")
}

func TestCompileErrors(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "a.sd", []byte("fn main {-- ret} ret ! end"), nil)
	require.ErrorIs(t, err, analyze.ErrStackUnderflow)

	_, err = Compile(ctx, "a.sd", []byte("fn main {a -- ret} end"), nil)
	var perr *parse.Error
	require.ErrorAs(t, err, &perr)

	_, err = Compile(ctx, "a.sd", []byte("fn main {-- ret} 0 ret ; end"), nil)
	var lerr *lex.Error
	require.ErrorAs(t, err, &lerr)

	_, err = Compile(ctx, "a.sd", []byte("fn main {--} end"), nil)
	require.ErrorIs(t, err, back.ErrEmptyFunc)

	obj, err := Compile(ctx, "a.sd", []byte("fn a {-- ret} 0 ret ! end fn b {-- ret} 70000 ret ! end"), nil)
	require.ErrorIs(t, err, limn2k.ErrStoreOperand)
	assert.Equal(t, "a:\n\tli 10, 0\n\tret\nb:\n", string(obj))

	_, err = Compile(ctx, "a.sd", nil, &config.Config{Backend: "x86"})
	assert.Error(t, err)
}

func TestCompileFile(t *testing.T) {
	name := filepath.Join(t.TempDir(), "main.sd")

	err := os.WriteFile(name, []byte("fn main {-- ret} 0 ret ! end"), 0o644)
	require.NoError(t, err)

	obj, err := CompileFile(context.Background(), name, nil)
	require.NoError(t, err)
	assert.Equal(t, "main:\n\tli 10, 0\n\tret\n", string(obj))

	_, err = CompileFile(context.Background(), name+".missing", nil)
	assert.Error(t, err)
}

func TestLower(t *testing.T) {
	f, err := Lower(context.Background(), "a.sd", []byte("fn main {-- ret} 0 ret ! end"))
	require.NoError(t, err)

	assert.Equal(t, "(slong ret 0)", f.Funcs[0].Tree.String())
}

func FuzzCompile(f *testing.F) {
	for _, s := range []string{
		"fn main {-- ret} 0 ret ! end",
		"fn main {-- ret} ret ! end",
		"fn main {-- ret} 0 1 ! end",
		"fn main {-- a b} 0 a ! 1 b ! end",
		"fn main {--} end",
		"fn main {-- ret} x ret ! end",
		"fn main {-- ret} 70000 ret ! end",
		"fn main {-- ret} ret @ drop end",
	} {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, src string) {
		lowered, err := Lower(context.Background(), "fuzz.sd", []byte(src))
		if err != nil {
			return
		}

		_, err = Compile(context.Background(), "fuzz.sd", []byte(src), nil)
		if err == nil {
			for _, fn := range lowered.Funcs {
				if !fn.Lowered() {
					t.Errorf("func %v is not lowered", fn.Name)
				}
			}

			return
		}

		if errors.Is(err, back.ErrNoneOp) || errors.Is(err, back.ErrUnknownOp) || errors.Is(err, back.ErrRootValue) {
			t.Fatalf("internal error for %q: %v", src, err)
		}

		var be *back.Error
		if !errors.As(err, &be) {
			t.Fatalf("unclassified error for %q: %v", src, err)
		}
	})
}
