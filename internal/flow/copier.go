package flow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

// ErrInternal marks a broken program invariant; the tools map it to
// exit code 255 instead of the ordinary runtime-error code.
var ErrInternal = errors.New("internal error")

// Unit selects what one grant from the publisher buys.
type Unit int

const (
	// Bytes releases data byte by byte.
	Bytes Unit = iota
	// Lines releases data a whole line at a time.
	Lines
)

// Copier is the throughput-gated copy loop: for every unit read from
// input it acquires permission from the publisher, then writes the unit
// to output. With a zero quota it parks on the publisher until a control
// update opens the gate.
type Copier struct {
	Pub   *publish.Publisher
	Unit  Unit
	Chunk int // bulk size for byte mode; 0 means a default
	Log   *logging.Logger
}

// Run copies r to w until input is exhausted or the terminate sentinel
// arrives. Termination while parked or mid-chunk stops cleanly after the
// current write; it never truncates a unit that was already granted.
func (c *Copier) Run(r io.Reader, w io.Writer) error {
	log := c.Log
	if log == nil {
		log = logging.Nop()
	}
	stopReads := watchTerminate(c.Pub, r)
	defer stopReads()

	if c.Unit == Lines {
		return c.runLines(r, w, log)
	}
	return c.runBytes(r, w, log)
}

func (c *Copier) runBytes(r io.Reader, w io.Writer, log *logging.Logger) error {
	chunk := c.Chunk
	if chunk <= 0 {
		chunk = 4096
	}
	buf := make([]byte, chunk)
	for {
		n, rerr := r.Read(buf)
		for off := 0; off < n; {
			g, err := c.Pub.Acquire(uint64(n - off))
			if err != nil {
				return c.finish(err, log)
			}
			if _, werr := w.Write(buf[off : off+int(g)]); werr != nil {
				return fmt.Errorf("write output: %w", werr)
			}
			off += int(g)
		}
		if rerr != nil {
			return c.finishRead(rerr, log)
		}
	}
}

func (c *Copier) runLines(r io.Reader, w io.Writer, log *logging.Logger) error {
	br := bufio.NewReader(r)
	var line Elastic
	for {
		rerr := line.ReadLine(br)
		if rerr != nil {
			return c.finishRead(rerr, log)
		}
		if _, err := c.Pub.Acquire(1); err != nil {
			return c.finish(err, log)
		}
		if _, werr := w.Write(line.Bytes()); werr != nil {
			return fmt.Errorf("write output: %w", werr)
		}
	}
}

func (c *Copier) finish(err error, log *logging.Logger) error {
	if errors.Is(err, publish.ErrTerminated) {
		log.Debug("terminate sentinel received")
		return nil
	}
	return err
}

func (c *Copier) finishRead(err error, log *logging.Logger) error {
	if err == io.EOF {
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) && c.Pub.Terminated() {
		log.Debug("terminate sentinel received")
		return nil
	}
	return fmt.Errorf("read input: %w", err)
}

// deadlineReader is an input whose blocked reads can be interrupted.
// *os.File satisfies it, as does cli's concatenated input.
type deadlineReader interface {
	SetReadDeadline(time.Time) error
}

// watchTerminate interrupts a blocking input read once the terminate
// sentinel arrives, when the input supports deadlines. The returned
// function stops the watcher.
func watchTerminate(pub *publish.Publisher, r io.Reader) (stop func()) {
	f, ok := r.(deadlineReader)
	if !ok {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		for {
			ch := pub.Changed()
			if pub.Terminated() {
				f.SetReadDeadline(time.Now())
				return
			}
			select {
			case <-ch:
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}
