package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "main.sd")
	other := filepath.Join(dir, "other.sd")

	err := os.WriteFile(name, []byte("fn main {--} end"), 0o644)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := make(chan string, 16)
	done := make(chan error, 1)

	go func() {
		done <- Watch(ctx, []string{name}, func(ctx context.Context, n string) error {
			calls <- n
			return nil
		})
	}()

	wait := func() string {
		select {
		case n := <-calls:
			return n
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout")
			return ""
		}
	}

	assert.Equal(t, name, wait())

	err = os.WriteFile(other, []byte("x"), 0o644)
	require.NoError(t, err)

	err = os.WriteFile(name, []byte("fn main {-- ret} 0 ret ! end"), 0o644)
	require.NoError(t, err)

	assert.Equal(t, name, wait())

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("watch didn't stop")
	}
}

func TestWatchMissingDir(t *testing.T) {
	err := Watch(context.Background(), []string{filepath.Join(t.TempDir(), "no", "such", "file.sd")}, func(context.Context, string) error {
		return nil
	})
	assert.Error(t, err)
}
