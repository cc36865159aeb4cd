package compiler

import (
	"bytes"
	"context"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler/analyze"
	"github.com/limnarch-extra/seadragon/compiler/ast"
	"github.com/limnarch-extra/seadragon/compiler/back"
	"github.com/limnarch-extra/seadragon/compiler/back/limn2k"
	"github.com/limnarch-extra/seadragon/compiler/back/llvm"
	"github.com/limnarch-extra/seadragon/compiler/config"
	"github.com/limnarch-extra/seadragon/compiler/parse"
)

func CompileFile(ctx context.Context, name string, cfg *config.Config) (obj []byte, err error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text, cfg)
}

// Compile translates source text into target assembly.
// On a code generation failure the output produced so far is returned along with the error.
func Compile(ctx context.Context, name string, text []byte, cfg *config.Config) (obj []byte, err error) {
	if cfg == nil {
		cfg = config.Default()
	}

	newArch, err := Backend(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "backend")
	}

	f, err := Lower(ctx, name, text)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer

	err = back.New().CompileFile(ctx, &b, f, newArch)
	if err != nil {
		return b.Bytes(), errors.Wrap(err, "compile")
	}

	return b.Bytes(), nil
}

// Lower parses text and lowers every function into an expression tree.
func Lower(ctx context.Context, name string, text []byte) (*ast.File, error) {
	f, err := parse.Parse(ctx, name, text)
	if err != nil {
		return nil, errors.Wrap(err, "parse")
	}

	err = analyze.Analyze(ctx, f)
	if err != nil {
		return nil, errors.Wrap(err, "analyze")
	}

	return f, nil
}

// Backend picks the target configured in cfg.
func Backend(cfg *config.Config) (back.Factory, error) {
	switch cfg.Backend {
	case config.BackendLimn2k, "":
		return limn2k.Factory(cfg.Limn2k), nil
	case config.BackendLLVM:
		return llvm.Factory(), nil
	default:
		return nil, errors.New("unknown backend: %q", cfg.Backend)
	}
}
