package llvm

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limnarch-extra/seadragon/compiler/ast"
	"github.com/limnarch-extra/seadragon/compiler/back"
)

func tree(target string, v uint32) *ast.Node {
	return &ast.Node{
		Op:    ast.OpStoreLong,
		Left:  ast.ValueLeaf(ast.Ident(target)),
		Right: ast.ValueLeaf(ast.Lit(v)),
	}
}

func TestCompile(t *testing.T) {
	f := &ast.File{
		Name: "main.sd",
		Funcs: []*ast.Func{
			{Name: "main", Outputs: []string{"ret"}, Tree: tree("ret", 0)},
			{Name: "pair", Outputs: []string{"a", "b"}, Tree: tree("b", 4294967295)},
			{Name: "nothing", Tree: tree("x", 3)},
		},
	}

	var b bytes.Buffer

	err := back.New().CompileFile(context.Background(), &b, f, Factory())
	require.NoError(t, err)

	out := b.String()
	t.Logf("module:\n%s", out)

	assert.Contains(t, out, "define i32 @main()")
	assert.Contains(t, out, "%ret.addr = alloca i32")
	assert.Contains(t, out, "store i32 0, ")
	assert.Contains(t, out, "ret i32")

	assert.Contains(t, out, "define { i32, i32 } @pair()")
	assert.Contains(t, out, "store i32 -1, ")
	assert.Contains(t, out, "insertvalue")

	assert.Contains(t, out, "define void @nothing()")
	assert.Contains(t, out, "ret void")
}

func TestErrors(t *testing.T) {
	a := New(&bytes.Buffer{})

	_, err := a.AllocReg("x")
	assert.ErrorIs(t, err, ErrNoFunc)

	err = a.BeginFunc(&ast.Func{Name: "f", Outputs: []string{"a", "b", "c"}})
	assert.ErrorIs(t, err, ErrOutputArity)

	require.NoError(t, a.BeginFunc(&ast.Func{Name: "f", Outputs: []string{"a"}}))

	l, err := a.AllocReg("a")
	require.NoError(t, err)

	l2, err := a.AllocReg("a")
	require.NoError(t, err)
	assert.Same(t, l, l2)

	assert.ErrorIs(t, a.StoreLong(l, ast.Ident("y")), ErrStoreOperand)
	assert.ErrorIs(t, a.StoreLong(1, ast.Lit(1)), ErrLocation)
}
