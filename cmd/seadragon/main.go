package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/limnarch-extra/seadragon/compiler"
	"github.com/limnarch-extra/seadragon/compiler/config"
	"github.com/limnarch-extra/seadragon/compiler/format"
	"github.com/limnarch-extra/seadragon/compiler/parse"
	"github.com/limnarch-extra/seadragon/compiler/watch"
)

func main() {
	configFlags := func(fs ...*cli.Flag) []*cli.Flag {
		return append([]*cli.Flag{
			cli.NewFlag("config", "", "config file ("+config.FileName+" in the working directory if present)"),
			cli.NewFlag("backend", "", "target backend: limn2k or llvm"),
		}, fs...)
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "translate source files into assembly",
		Action:      compileAct,
		Args:        cli.Args{},
		Flags: configFlags(
			cli.NewFlag("output,o", "", "output file, stdout if empty"),
		),
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print instruction lists",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	lowerCmd := &cli.Command{
		Name:        "lower",
		Description: "print expression trees",
		Action:      lowerAct,
		Args:        cli.Args{},
	}

	watchCmd := &cli.Command{
		Name:        "watch",
		Description: "recompile files on change, writing assembly next to each source",
		Action:      watchAct,
		Args:        cli.Args{},
		Flags:       configFlags(),
	}

	versionCmd := &cli.Command{
		Name:   "version",
		Action: versionAct,
	}

	app := &cli.Command{
		Name:        "seadragon",
		Description: "seadragon is an ahead-of-time compiler for a stack based toy language",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("verbosity,v", "", "tlog verbosity topics"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			compileCmd,
			parseCmd,
			lowerCmd,
			watchCmd,
			versionCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func before(c *cli.Command) error {
	tlog.SetVerbosity(c.String("verbosity"))

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c)
	if err != nil {
		return errors.Wrap(err, "config")
	}

	var w io.Writer = os.Stdout

	oname := c.String("output")
	if oname != "" {
		f, err := os.Create(oname)
		if err != nil {
			return errors.Wrap(err, "create output")
		}

		defer func() {
			e := f.Close()
			if err == nil && e != nil {
				err = errors.Wrap(e, "close output")
			}
		}()

		w = f
	}

	for _, a := range c.Args {
		obj, err := compiler.CompileFile(ctx, a, cfg)

		// partial output is kept for diagnostics
		if _, e := w.Write(obj); e != nil && err == nil {
			err = errors.Wrap(e, "write output")
		}

		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}
	}

	if oname != "" {
		pterm.Success.Println(fmt.Sprintf("%d file(s) compiled into %v", len(c.Args), oname))
	}

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		f, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		b, err := format.Format(ctx, nil, f)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, _ = os.Stdout.Write(b)
	}

	return nil
}

func lowerAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		text, err := os.ReadFile(a)
		if err != nil {
			return errors.Wrap(err, "read %v", a)
		}

		f, err := compiler.Lower(ctx, a, text)
		if err != nil {
			return errors.Wrap(err, "lower %v", a)
		}

		b, err := format.Format(ctx, nil, f)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, _ = os.Stdout.Write(b)
	}

	return nil
}

func watchAct(c *cli.Command) (err error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	cfg, err := loadConfig(c)
	if err != nil {
		return errors.Wrap(err, "config")
	}

	ext := ".s"
	if cfg.Backend == config.BackendLLVM {
		ext = ".ll"
	}

	return watch.Watch(ctx, c.Args, func(ctx context.Context, name string) error {
		oname := strings.TrimSuffix(name, filepath.Ext(name)) + ext

		obj, err := compiler.CompileFile(ctx, name, cfg)

		if e := os.WriteFile(oname, obj, 0o644); e != nil && err == nil {
			err = errors.Wrap(e, "write output")
		}

		if err != nil {
			pterm.Error.Println(fmt.Sprintf("%v: %v", name, err))
			return err
		}

		pterm.Success.Println(fmt.Sprintf("%v -> %v", name, oname))

		return nil
	})
}

func versionAct(c *cli.Command) error {
	fmt.Printf("seadragon %v\n", config.Version)

	return nil
}

func loadConfig(c *cli.Command) (cfg *config.Config, err error) {
	name := c.String("config")

	if name == "" {
		if _, err := os.Stat(config.FileName); err == nil {
			name = config.FileName
		}
	}

	if name != "" {
		cfg, err = config.Load(name)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if b := c.String("backend"); b != "" {
		cfg.Backend = b

		err = cfg.Validate()
		if err != nil {
			return nil, err
		}
	}

	return cfg, nil
}
