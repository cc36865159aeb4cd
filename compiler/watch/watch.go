package watch

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

// Func is called for a file once at start and then on every change.
// Its error is logged, it doesn't stop watching.
type Func func(ctx context.Context, name string) error

// Watch runs fn for each of names and then again whenever one of them is written
// or recreated, until ctx is canceled. Calls are serialized.
//
// Parent directories are watched, not the files, so editors replacing a file
// by rename are noticed too.
func Watch(ctx context.Context, names []string, fn Func) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "watch", "files", names)
	defer tr.Finish("err", &err)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "new watcher")
	}

	defer func() {
		e := w.Close()
		if err == nil && e != nil {
			err = errors.Wrap(e, "close watcher")
		}
	}()

	files := make(map[string]string, len(names))
	dirs := make(map[string]struct{})

	for _, name := range names {
		abs, err := filepath.Abs(name)
		if err != nil {
			return errors.Wrap(err, "%v", name)
		}

		files[abs] = name
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	for dir := range dirs {
		err = w.Add(dir)
		if err != nil {
			return errors.Wrap(err, "watch %v", dir)
		}
	}

	run := func(name string) {
		err := fn(ctx, name)
		if err != nil {
			tr.Printw("rebuild failed", "name", name, "err", err)
		}
	}

	for _, name := range names {
		run(name)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			abs, err := filepath.Abs(ev.Name)
			if err != nil {
				continue
			}

			name, ok := files[abs]
			if !ok {
				continue
			}

			tr.V("watch").Printw("file changed", "name", name, "op", ev.Op.String())

			run(name)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}

			return errors.Wrap(err, "watcher")
		}
	}
}
