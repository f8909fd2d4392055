package flow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

// Holder is the hold/drop valve: it keeps the newest input line and
// races the current holding time against the arrival of the next line.
// A line that survives its holding time goes to the primary output; a
// line displaced early (by a successor or by a control update) goes to
// the drain writer, or nowhere if no drain is configured.
type Holder struct {
	Pub   *publish.Publisher
	Drain io.Writer // may be nil
	Log   *logging.Logger
}

type heldLine struct {
	buf *Elastic
	at  time.Time
}

// Run processes r until input is exhausted (the final held line is still
// flushed after its holding time) or the terminate sentinel arrives, in
// which case the held line is diverted to the drain and the loop returns
// cleanly.
func (h *Holder) Run(r io.Reader, w io.Writer) error {
	log := h.Log
	if log == nil {
		log = logging.Nop()
	}
	stopReads := watchTerminate(h.Pub, r)
	defer stopReads()

	// Two line buffers rotate between the reader goroutine and this
	// loop, so steady state holds zero allocations per line.
	free := make(chan *Elastic, 2)
	free <- &Elastic{}
	free <- &Elastic{}
	lines := make(chan *Elastic)
	readErr := make(chan error, 1)
	go func() {
		br := bufio.NewReader(r)
		for {
			e := <-free
			if err := e.ReadLine(br); err != nil {
				readErr <- err
				close(lines)
				return
			}
			lines <- e
		}
	}()

	timer := time.NewTimer(time.Hour)
	stopTimer(timer)
	defer stopTimer(timer)

	var held heldLine
	open := true // lines channel still producing

	for {
		// A closed lines channel must drop out of every select, not spin.
		lineCh := lines
		if !open {
			lineCh = nil
		}

		if held.buf == nil {
			if !open {
				return h.finishRead(<-readErr, log)
			}
			changed := h.Pub.Changed()
			if h.Pub.Terminated() {
				return nil
			}
			select {
			case e, ok := <-lineCh:
				if !ok {
					open = false
					continue
				}
				held = heldLine{buf: e, at: time.Now()}
			case <-changed:
				continue
			}
		}

		// Grab the change channel before reading the value: a terminate
		// arriving in between then still closes the channel we select on.
		changed := h.Pub.Changed()
		v := h.Pub.Current()
		if v.Terminate {
			return h.toDrain(&held, free, log)
		}

		if !v.Infinite {
			armTimer(timer, held.at, v.Magnitude)
		}

		if v.Infinite {
			select {
			case e, ok := <-lineCh:
				if !ok {
					open = false
					// Held forever and no successor will ever come.
					if err := h.toDrain(&held, free, log); err != nil {
						return err
					}
					continue
				}
				if err := h.toDrain(&held, free, log); err != nil {
					return err
				}
				held = heldLine{buf: e, at: time.Now()}
			case <-changed:
				if err := h.toDrain(&held, free, log); err != nil {
					return err
				}
			}
			continue
		}

		select {
		case <-timer.C:
			if err := h.flush(&held, free, w); err != nil {
				return err
			}
		case e, ok := <-lineCh:
			stopTimer(timer)
			if !ok {
				open = false
				continue
			}
			if err := h.toDrain(&held, free, log); err != nil {
				return err
			}
			held = heldLine{buf: e, at: time.Now()}
		case <-changed:
			stopTimer(timer)
			if err := h.toDrain(&held, free, log); err != nil {
				return err
			}
		}
	}
}

// flush writes the held line to the primary output.
func (h *Holder) flush(held *heldLine, free chan *Elastic, w io.Writer) error {
	if _, err := w.Write(held.buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	free <- held.buf
	held.buf = nil
	return nil
}

// toDrain diverts a displaced line to the drain writer, or drops it.
// Drain write failures are fatal like any other data-path error.
func (h *Holder) toDrain(held *heldLine, free chan *Elastic, log *logging.Logger) error {
	if held.buf == nil {
		return nil
	}
	if h.Drain != nil {
		if _, err := h.Drain.Write(held.buf.Bytes()); err != nil {
			return fmt.Errorf("write drain: %w", err)
		}
	} else {
		log.Debug("dropping displaced line", zap.Int("len", held.buf.Len()))
	}
	free <- held.buf
	held.buf = nil
	return nil
}

func (h *Holder) finishRead(err error, log *logging.Logger) error {
	if err == io.EOF {
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) && h.Pub.Terminated() {
		log.Debug("terminate sentinel received")
		return nil
	}
	return fmt.Errorf("read input: %w", err)
}

func armTimer(t *time.Timer, heldAt time.Time, holdNS uint64) {
	stopTimer(t)
	if holdNS > math.MaxInt64 {
		holdNS = math.MaxInt64
	}
	d := time.Until(heldAt.Add(time.Duration(holdNS)))
	if d < 0 {
		d = 0
	}
	t.Reset(d)
}

func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
