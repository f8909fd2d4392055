package flow

import (
	"bytes"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

// syncBuffer lets the test read what a running loop has written so far.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestCopierByteGate(t *testing.T) {
	t.Run("grant releases exactly the quota then blocks again", func(t *testing.T) {
		pub := publish.New(param.Value{})
		defer pub.Close()
		pr, pw := io.Pipe()
		var out syncBuffer

		done := make(chan error, 1)
		c := &Copier{Pub: pub, Unit: Bytes}
		go func() { done <- c.Run(pr, &out) }()

		_, err := pw.Write([]byte("abcdefgh"))
		require.NoError(t, err)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, "", out.String(), "closed gate must hold everything")

		pub.Publish(param.Value{Magnitude: 5})
		require.Eventually(t, func() bool { return out.String() == "abcde" },
			time.Second, 10*time.Millisecond)

		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, "abcde", out.String(), "gate must close again after the quota")

		pw.Close()
		pub.Publish(param.Value{Magnitude: 100})
		require.NoError(t, <-done)
		assert.Equal(t, "abcdefgh", out.String())
	})

	t.Run("infinite quota copies everything", func(t *testing.T) {
		pub := publish.New(param.Value{Infinite: true})
		defer pub.Close()
		var out bytes.Buffer
		c := &Copier{Pub: pub, Unit: Bytes}
		require.NoError(t, c.Run(strings.NewReader("hello"), &out))
		assert.Equal(t, "hello", out.String())
	})
}

func TestCopierLineGate(t *testing.T) {
	pub := publish.New(param.Value{Magnitude: 2})
	defer pub.Close()
	pr, pw := io.Pipe()
	var out syncBuffer

	done := make(chan error, 1)
	c := &Copier{Pub: pub, Unit: Lines}
	go func() { done <- c.Run(pr, &out) }()

	_, err := io.WriteString(pw, "one\ntwo\nthree\n")
	require.NoError(t, err)

	require.Eventually(t, func() bool { return out.String() == "one\ntwo\n" },
		time.Second, 10*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "one\ntwo\n", out.String())

	pub.Publish(param.Value{Magnitude: 1})
	require.Eventually(t, func() bool { return out.String() == "one\ntwo\nthree\n" },
		time.Second, 10*time.Millisecond)

	pw.Close()
	require.NoError(t, <-done)
}

func TestCopierTerminate(t *testing.T) {
	t.Run("while parked on the quota", func(t *testing.T) {
		pub := publish.New(param.Value{})
		pr, pw := io.Pipe()
		defer pw.Close()
		var out syncBuffer

		done := make(chan error, 1)
		c := &Copier{Pub: pub, Unit: Bytes}
		go func() { done <- c.Run(pr, &out) }()

		_, err := pw.Write([]byte("x"))
		require.NoError(t, err)
		time.Sleep(50 * time.Millisecond)

		pub.Terminate()
		select {
		case err := <-done:
			assert.NoError(t, err, "terminate is a clean stop, not an error")
		case <-time.After(time.Second):
			t.Fatal("terminate did not stop the copier")
		}
	})

	t.Run("while blocked reading concatenated input", func(t *testing.T) {
		// Several named inputs arrive as a wrapper that forwards read
		// deadlines to each file; terminate must interrupt a read
		// blocked on any of them.
		pr, pw, err := os.Pipe()
		require.NoError(t, err)
		defer pw.Close()
		defer pr.Close()

		pub := publish.New(param.Value{Infinite: true})
		var out syncBuffer
		in := &forwardingInput{Reader: io.MultiReader(pr), files: []*os.File{pr}}

		done := make(chan error, 1)
		c := &Copier{Pub: pub, Unit: Bytes}
		go func() { done <- c.Run(in, &out) }()
		time.Sleep(50 * time.Millisecond) // let it block in Read

		pub.Terminate()
		select {
		case err := <-done:
			assert.NoError(t, err, "terminate is a clean stop, not an error")
		case <-time.After(time.Second):
			t.Fatal("terminate did not interrupt the blocked read")
		}
	})
}

// forwardingInput mirrors how the tools concatenate several input files.
type forwardingInput struct {
	io.Reader
	files []*os.File
}

func (f *forwardingInput) SetReadDeadline(t time.Time) error {
	var first error
	for _, file := range f.files {
		if err := file.SetReadDeadline(t); err != nil && first == nil {
			first = err
		}
	}
	return first
}
