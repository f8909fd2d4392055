package ctrlfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

// Options tunes a Reader. Zero fields fall back to the defaults below.
type Options struct {
	Domain param.Domain

	// PollInterval applies to Polled mode only.
	PollInterval time.Duration

	// BufSize bounds a single read from the channel.
	BufSize int

	// RetrySleep is the Streamed-mode backoff after the writer closes.
	RetrySleep time.Duration

	// TerminateOnClose makes a Streamed reader publish the terminate
	// sentinel when the writer closes, instead of waiting for a new one.
	TerminateOnClose bool

	Log *logging.Logger
}

const (
	defaultPollInterval = 100 * time.Millisecond
	defaultBufSize      = 256
	defaultRetrySleep   = 100 * time.Millisecond
)

// Reader watches one control source and feeds parsed values into a
// publisher. It owns the descriptor: nothing else reads it, and Stop
// closes it. Exactly one background goroutine runs per Reader.
type Reader struct {
	path string
	mode Mode
	f    *os.File
	pub  *publish.Publisher
	opts Options
	log  *logging.Logger

	refresh chan struct{}
	done    chan struct{}
	wg      sync.WaitGroup

	mu       sync.Mutex
	err      error
	stopOnce sync.Once
}

// Open classifies path, opens it read-only and returns a Reader ready to
// Start. The caller keeps ownership of pub.
func Open(path string, pub *publish.Publisher, opts Options) (*Reader, error) {
	mode, err := Classify(path)
	if err != nil {
		return nil, err
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}
	if opts.BufSize <= 0 {
		opts.BufSize = defaultBufSize
	}
	if opts.RetrySleep <= 0 {
		opts.RetrySleep = defaultRetrySleep
	}
	log := opts.Log
	if log == nil {
		log = logging.Nop()
	}

	var f *os.File
	if mode == Streamed {
		// Non-blocking open so a FIFO with no writer does not hang
		// startup, and so the runtime poller can interrupt reads.
		f, err = os.OpenFile(path, os.O_RDONLY|unix.O_NONBLOCK, 0)
	} else {
		f, err = os.Open(path)
	}
	if err != nil {
		return nil, fmt.Errorf("open control file: %w", err)
	}

	return &Reader{
		path:    path,
		mode:    mode,
		f:       f,
		pub:     pub,
		opts:    opts,
		log:     log,
		refresh: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}, nil
}

// Mode reports the strategy chosen at Open.
func (r *Reader) Mode() Mode { return r.mode }

// Start launches the background reading task.
func (r *Reader) Start() {
	if r.mode == Polled {
		// Pick up the current value right away instead of waiting out
		// the first tick.
		r.Refresh()
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		var err error
		if r.mode == Polled {
			err = r.runPolled()
		} else {
			err = r.runStreamed()
		}
		if err != nil {
			r.mu.Lock()
			r.err = err
			r.mu.Unlock()
			// The consumer is likely blocked; wake it so the process
			// can exit with a diagnostic instead of hanging.
			r.pub.Close()
		}
	}()
}

// Refresh forces an immediate poll of a regular-file channel. Wired to
// SIGHUP by the tools; a no-op in Streamed mode.
func (r *Reader) Refresh() {
	select {
	case r.refresh <- struct{}{}:
	default:
	}
}

// Stop cancels the background task, joins it, closes the descriptor and
// returns any fatal channel error. Safe to call more than once and from
// any exit path.
func (r *Reader) Stop() error {
	r.stopOnce.Do(func() {
		close(r.done)
		// Unblocks a read in flight. Regular files never block long
		// enough to matter, but it is harmless there.
		r.f.SetReadDeadline(time.Now())
		r.wg.Wait()
		r.f.Close()
	})
	return r.Err()
}

// Err returns the fatal control-channel error, if any.
func (r *Reader) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// runPolled implements the regular-file strategy: on every tick or
// refresh, re-read the first line of the file and hand any change to the
// publisher, then wait until the consumer has observed it. The wait
// bounds the reader to one in-flight update, so rapid rewrites cannot
// overwrite a value the consumer has not seen yet.
func (r *Reader) runPolled() error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()
	buf := make([]byte, r.opts.BufSize)

	for {
		select {
		case <-r.done:
			return nil
		case <-ticker.C:
		case <-r.refresh:
		}

		if _, err := r.f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek control file: %w", err)
		}
		n, err := r.f.Read(buf)
		if err != nil && err != io.EOF {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return nil
			}
			return fmt.Errorf("read control file: %w", err)
		}

		line := buf[:n]
		if i := bytes.IndexByte(line, '\n'); i >= 0 {
			line = line[:i]
		}
		v, perr := param.Parse(string(line), r.opts.Domain)
		if perr != nil {
			// Editors rewrite files in several steps while saving, so a
			// transiently unparsable file is expected and not an error.
			r.log.Debug("ignoring control update", zap.String("text", string(line)), zap.Error(perr))
			continue
		}
		if !r.pub.Publish(v) {
			continue
		}
		r.log.Debug("published control value", zap.Stringer("value", v))
		if v.Terminate {
			return nil
		}
		if err := r.pub.WaitObserved(); err != nil {
			return nil
		}
	}
}

// runStreamed implements the character-device/FIFO strategy: block on
// the descriptor, coalesce partial writes, and when a newline completes
// one or more lines, parse only the most recent one. There is no
// observation handshake here; under rapid writes the latest line wins.
func (r *Reader) runStreamed() error {
	buf := make([]byte, r.opts.BufSize)
	var acc []byte
	// A partial line may legitimately sit in the accumulator for a long
	// time, but an unbounded one means the writer is not sending line
	// oriented data at all.
	accLimit := 4 * param.MaxTextLen

	for {
		select {
		case <-r.done:
			return nil
		default:
		}

		n, err := r.f.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
			done, herr := r.handleAccumulated(&acc, accLimit)
			if herr != nil || done {
				return herr
			}
		}
		switch {
		case err == nil:
		case errors.Is(err, os.ErrDeadlineExceeded):
			return nil
		case err == io.EOF:
			if r.opts.TerminateOnClose {
				r.pub.Terminate()
				return nil
			}
			// A closed FIFO reads as perpetual EOF until the next
			// writer opens it; back off instead of spinning.
			select {
			case <-r.done:
				return nil
			case <-time.After(r.opts.RetrySleep):
			}
		default:
			return fmt.Errorf("read control file: %w", err)
		}
	}
}

// handleAccumulated consumes complete lines out of *acc. When several
// complete lines arrived back to back, only the final one is parsed.
// Returns done=true when the terminate sentinel was published.
func (r *Reader) handleAccumulated(acc *[]byte, limit int) (done bool, err error) {
	last := bytes.LastIndexByte(*acc, '\n')
	if last < 0 {
		if len(*acc) > limit {
			r.log.Debug("discarding oversized partial control input")
			*acc = (*acc)[:0]
		}
		return false, nil
	}

	complete := (*acc)[:last]
	tail := (*acc)[last+1:]
	if i := bytes.LastIndexByte(complete, '\n'); i >= 0 {
		complete = complete[i+1:]
	}

	v, perr := param.Parse(string(complete), r.opts.Domain)

	// Keep the unfinished tail for the next read regardless of how
	// parsing went.
	*acc = append((*acc)[:0], tail...)

	if perr != nil {
		r.log.Debug("ignoring control update", zap.String("text", string(complete)), zap.Error(perr))
		return false, nil
	}
	if r.pub.Publish(v) {
		r.log.Debug("published control value", zap.Stringer("value", v))
	}
	return v.Terminate, nil
}
