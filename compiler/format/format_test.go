package format

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limnarch-extra/seadragon/compiler/analyze"
	"github.com/limnarch-extra/seadragon/compiler/ast"
	"github.com/limnarch-extra/seadragon/compiler/parse"
)

const src = `fn main { -- ret }
	auto x
	0 ret !
end

fn pair { -- a b }
	1 a ! 2 b !
end
`

func TestFormatRoundTrip(t *testing.T) {
	ctx := context.Background()

	f, err := parse.Parse(ctx, "a.sd", []byte(src))
	require.NoError(t, err)

	b, err := Format(ctx, nil, f)
	require.NoError(t, err)
	assert.Equal(t, src, string(b))

	f2, err := parse.Parse(ctx, "a.sd", b)
	require.NoError(t, err)
	assert.Equal(t, f, f2)
}

func TestFormatTree(t *testing.T) {
	ctx := context.Background()

	f, err := parse.Parse(ctx, "a.sd", []byte("fn main {-- ret} 0 ret ! end"))
	require.NoError(t, err)

	err = analyze.Analyze(ctx, f)
	require.NoError(t, err)

	b, err := Format(ctx, nil, f)
	require.NoError(t, err)
	assert.Equal(t, "fn main { -- ret }\n\t(slong ret 0)\nend\n", string(b))

	b, err = Format(ctx, []byte("> "), f.Funcs[0].Tree)
	require.NoError(t, err)
	assert.Equal(t, "> (slong ret 0)\n", string(b))
}

func TestFormatFile(t *testing.T) {
	f := &ast.File{
		Structures: []ast.Struct{{Name: "point"}},
		Constants:  []ast.Const{{Name: "size", Value: ast.Lit(8)}},
		Funcs:      []*ast.Func{{Name: "main"}},
	}

	b, err := Format(context.Background(), nil, f)
	require.NoError(t, err)
	assert.Equal(t, "# struct point\n# const size = 8\n\nfn main { -- }\nend\n", string(b))

	_, err = Format(context.Background(), nil, 1)
	assert.Error(t, err)
}
