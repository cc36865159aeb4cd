package limn2k

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limnarch-extra/seadragon/compiler/ast"
)

func TestAllocReg(t *testing.T) {
	var b bytes.Buffer

	a, err := New(&b, DefaultConfig())
	require.NoError(t, err)

	err = a.BeginFunc(&ast.Func{Name: "f", Outputs: []string{"ret", "rem"}})
	require.NoError(t, err)

	r, err := a.AllocReg("ret")
	require.NoError(t, err)
	assert.Equal(t, ast.Loc(Reg(10)), r)

	r, err = a.AllocReg("rem")
	require.NoError(t, err)
	assert.Equal(t, ast.Loc(Reg(11)), r)

	x, err := a.AllocReg("x")
	require.NoError(t, err)
	assert.Equal(t, ast.Loc(Reg(1)), x)

	y, err := a.AllocReg("y")
	require.NoError(t, err)
	assert.Equal(t, ast.Loc(Reg(2)), y)

	again, err := a.AllocReg("x")
	require.NoError(t, err)
	assert.Equal(t, x, again)

	assert.Equal(t, "x", a.Binding(1))
	assert.Equal(t, "ret", a.Binding(10))
	assert.Equal(t, "", a.Binding(0))
	assert.Equal(t, "", a.Binding(27))
}

func TestNoSpill(t *testing.T) {
	a, err := New(&bytes.Buffer{}, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, a.BeginFunc(&ast.Func{Name: "f"}))

	for i := 0; i < DefaultRegisters; i++ {
		r, err := a.AllocReg(fmt.Sprintf("v%d", i))
		require.NoError(t, err)
		assert.Equal(t, ast.Loc(Reg(i+1)), r)
	}

	_, err = a.AllocReg("one_more")
	require.ErrorIs(t, err, ErrNoSpill)

	_, err = a.AllocReg("v25")
	require.NoError(t, err)
}

func TestBeginFuncResets(t *testing.T) {
	var b bytes.Buffer

	a, err := New(&b, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, a.BeginFunc(&ast.Func{Name: "a"}))

	_, err = a.AllocReg("x")
	require.NoError(t, err)

	require.NoError(t, a.BeginFunc(&ast.Func{Name: "b"}))

	r, err := a.AllocReg("y")
	require.NoError(t, err)
	assert.Equal(t, ast.Loc(Reg(1)), r)
	assert.Equal(t, "a:\nb:\n", b.String())
}

func TestEmit(t *testing.T) {
	var b bytes.Buffer

	a, err := New(&b, DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, a.BeginFunc(&ast.Func{Name: "main", Outputs: []string{"ret"}}))
	require.NoError(t, a.StoreLong(Reg(10), ast.Lit(MaxImmediate)))

	err = a.StoreLong(Reg(10), ast.Lit(MaxImmediate+1))
	assert.ErrorIs(t, err, ErrStoreOperand)

	err = a.StoreLong(Reg(10), ast.Ident("x"))
	assert.ErrorIs(t, err, ErrStoreOperand)

	err = a.StoreLong("r10", ast.Lit(1))
	assert.ErrorIs(t, err, ErrLocation)

	require.NoError(t, a.Return())

	assert.Equal(t, "main:\n\tli 10, 65535\n\tret\n", b.String())
}

func TestOutputArity(t *testing.T) {
	a, err := New(&bytes.Buffer{}, Config{Registers: 4, OutputSlots: []int{3}})
	require.NoError(t, err)

	err = a.BeginFunc(&ast.Func{Name: "f", Outputs: []string{"a", "b"}})
	assert.ErrorIs(t, err, ErrOutputArity)

	require.NoError(t, a.BeginFunc(&ast.Func{Name: "f", Outputs: []string{"a"}}))

	r, err := a.AllocReg("a")
	require.NoError(t, err)
	assert.Equal(t, ast.Loc(Reg(4)), r)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	for _, c := range []Config{
		{Registers: 0},
		{Registers: 256},
		{Registers: 4, OutputSlots: []int{4}},
		{Registers: 4, OutputSlots: []int{-1}},
		{Registers: 4, OutputSlots: []int{1, 1}},
	} {
		assert.Error(t, c.Validate(), "%+v", c)
	}

	_, err := New(&bytes.Buffer{}, Config{})
	assert.Error(t, err)
}

func TestDefaultConfigCopy(t *testing.T) {
	c := DefaultConfig()
	c.OutputSlots[0] = 0

	assert.Equal(t, 9, DefaultConfig().OutputSlots[0])
}
