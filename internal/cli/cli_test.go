package cli

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/config"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

func TestControlLiteral(t *testing.T) {
	cfg := config.Default()

	t.Run("literal value yields a static publisher", func(t *testing.T) {
		pub, stop, err := Control("5", param.Quantity, cfg, false, nil)
		require.NoError(t, err)
		defer stop()
		g, err := pub.Acquire(10)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), g)
	})

	t.Run("missing path is an error", func(t *testing.T) {
		_, _, err := Control(filepath.Join(t.TempDir(), "nope"), param.Quantity, cfg, false, nil)
		assert.Error(t, err)
	})

	t.Run("overflowing literal is a usage error, not a path", func(t *testing.T) {
		_, _, err := Control("999999999999Ei", param.Quantity, cfg, false, nil)
		assert.ErrorIs(t, err, param.ErrOverflow)
	})

	t.Run("terminate literal yields a terminated publisher", func(t *testing.T) {
		pub, stop, err := Control("t", param.Quantity, cfg, false, nil)
		require.NoError(t, err)
		defer stop()
		require.True(t, pub.Terminated())
		ret := make(chan error, 1)
		go func() {
			_, err := pub.Acquire(1)
			ret <- err
		}()
		select {
		case err := <-ret:
			assert.ErrorIs(t, err, publish.ErrTerminated)
		case <-time.After(time.Second):
			t.Fatal("Acquire blocked on a terminate literal")
		}
	})

	t.Run("file path becomes a live channel", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ctrl")
		require.NoError(t, os.WriteFile(path, []byte("7\n"), 0o644))
		pub, stop, err := Control(path, param.Quantity, cfg, false, nil)
		require.NoError(t, err)
		defer stop()
		g, err := pub.Acquire(100)
		require.NoError(t, err)
		assert.Equal(t, uint64(7), g)
	})
}

func TestInputs(t *testing.T) {
	t.Run("no names means stdin", func(t *testing.T) {
		r, cleanup, err := Inputs(nil)
		require.NoError(t, err)
		defer cleanup()
		assert.Equal(t, os.Stdin, r)
	})

	t.Run("files concatenate in order", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a")
		b := filepath.Join(dir, "b")
		require.NoError(t, os.WriteFile(a, []byte("one"), 0o644))
		require.NoError(t, os.WriteFile(b, []byte("two"), 0o644))

		r, cleanup, err := Inputs([]string{a, b})
		require.NoError(t, err)
		defer cleanup()
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "onetwo", string(data))
	})

	t.Run("concatenated inputs keep deadline support", func(t *testing.T) {
		dir := t.TempDir()
		a := filepath.Join(dir, "a")
		b := filepath.Join(dir, "b")
		require.NoError(t, os.WriteFile(a, []byte("one"), 0o644))
		require.NoError(t, os.WriteFile(b, []byte("two"), 0o644))

		r, cleanup, err := Inputs([]string{a, b})
		require.NoError(t, err)
		defer cleanup()
		_, ok := r.(interface{ SetReadDeadline(time.Time) error })
		assert.True(t, ok, "concatenated input must accept read deadlines")
	})

	t.Run("missing file is an error", func(t *testing.T) {
		_, _, err := Inputs([]string{filepath.Join(t.TempDir(), "nope")})
		assert.Error(t, err)
	})
}
