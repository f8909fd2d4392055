package ctrlfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

func TestClassify(t *testing.T) {
	dir := t.TempDir()

	t.Run("regular file polls", func(t *testing.T) {
		path := filepath.Join(dir, "reg")
		require.NoError(t, os.WriteFile(path, []byte("1\n"), 0o644))
		m, err := Classify(path)
		require.NoError(t, err)
		assert.Equal(t, Polled, m)
	})

	t.Run("fifo streams", func(t *testing.T) {
		path := filepath.Join(dir, "fifo")
		require.NoError(t, unix.Mkfifo(path, 0o644))
		m, err := Classify(path)
		require.NoError(t, err)
		assert.Equal(t, Streamed, m)
	})

	t.Run("directory is unsupported", func(t *testing.T) {
		_, err := Classify(dir)
		assert.ErrorIs(t, err, ErrUnsupportedType)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := Classify(filepath.Join(dir, "nope"))
		assert.Error(t, err)
	})
}

func openPolled(t *testing.T, content string, pub *publish.Publisher) (*Reader, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ctrl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	r, err := Open(path, pub, Options{
		Domain:       param.Quantity,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, err)
	require.Equal(t, Polled, r.Mode())
	return r, path
}

func TestPolledReader(t *testing.T) {
	t.Run("publishes the first line of the file", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, _ := openPolled(t, "5\nignored\n", pub)
		r.Start()
		defer r.Stop()

		g, err := pub.Acquire(10)
		require.NoError(t, err)
		assert.Equal(t, uint64(5), g)
	})

	t.Run("ignores garbage and picks up the next valid write", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, path := openPolled(t, "not a number\n", pub)
		r.Start()
		defer r.Stop()

		got := make(chan uint64, 1)
		go func() {
			g, err := pub.Acquire(10)
			if err == nil {
				got <- g
			}
		}()
		select {
		case <-got:
			t.Fatal("garbage content opened the gate")
		case <-time.After(100 * time.Millisecond):
		}

		require.NoError(t, os.WriteFile(path, []byte("3\n"), 0o644))
		select {
		case g := <-got:
			assert.Equal(t, uint64(3), g)
		case <-time.After(2 * time.Second):
			t.Fatal("valid rewrite was not picked up")
		}
	})

	t.Run("terminate sentinel stops the consumer", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, path := openPolled(t, "\n", pub)
		r.Start()
		defer r.Stop()

		ret := make(chan error, 1)
		go func() {
			_, err := pub.Acquire(1)
			ret <- err
		}()
		require.NoError(t, os.WriteFile(path, []byte("t\n"), 0o644))
		select {
		case err := <-ret:
			assert.ErrorIs(t, err, publish.ErrTerminated)
		case <-time.After(2 * time.Second):
			t.Fatal("terminate did not reach the consumer")
		}
	})

	t.Run("stop is idempotent", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, _ := openPolled(t, "1\n", pub)
		r.Start()
		assert.NoError(t, r.Stop())
		assert.NoError(t, r.Stop())
	})
}

func openFIFO(t *testing.T, pub *publish.Publisher, opts Options) (*Reader, *os.File) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fifo")
	require.NoError(t, unix.Mkfifo(path, 0o644))
	r, err := Open(path, pub, opts)
	require.NoError(t, err)
	require.Equal(t, Streamed, r.Mode())
	w, err := os.OpenFile(path, os.O_WRONLY, 0)
	require.NoError(t, err)
	return r, w
}

func TestStreamedReader(t *testing.T) {
	t.Run("partial writes concatenate before parsing", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, w := openFIFO(t, pub, Options{Domain: param.Quantity})
		defer r.Stop()
		defer w.Close()
		r.Start()

		_, err := w.WriteString("12")
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond) // let the partial sit in the accumulator
		_, err = w.WriteString("0\n")
		require.NoError(t, err)

		g, err := pub.Acquire(200)
		require.NoError(t, err)
		assert.Equal(t, uint64(120), g)
	})

	t.Run("only the last complete line wins", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, w := openFIFO(t, pub, Options{Domain: param.Quantity})
		defer r.Stop()
		defer w.Close()
		r.Start()

		_, err := w.WriteString("500\n3\n")
		require.NoError(t, err)

		g, err := pub.Acquire(1000)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), g)
	})

	t.Run("terminate on writer close", func(t *testing.T) {
		pub := publish.New(param.Value{})
		r, w := openFIFO(t, pub, Options{Domain: param.Quantity, TerminateOnClose: true})
		defer r.Stop()
		r.Start()

		ret := make(chan error, 1)
		go func() {
			_, err := pub.Acquire(1)
			ret <- err
		}()
		w.Close()
		select {
		case err := <-ret:
			assert.ErrorIs(t, err, publish.ErrTerminated)
		case <-time.After(2 * time.Second):
			t.Fatal("writer close did not terminate the consumer")
		}
	})
}
