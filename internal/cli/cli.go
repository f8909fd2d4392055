// Package cli carries the scaffolding shared by the tool mains: fatal
// diagnostics in the traditional progname-colon form, exit codes, input
// concatenation, and the literal-or-control-file resolution of the
// first positional argument.
package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/config"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/ctrlfile"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

// Exit codes shared by all tools.
const (
	ExitOK       = 0
	ExitError    = 1   // runtime error: bad usage, I/O failure
	ExitInternal = 255 // broken program invariant
)

// Fatal prints "prog: message" on stderr and exits with code.
func Fatal(prog string, code int, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", prog, err)
	os.Exit(code)
}

// Control resolves a tool's first positional argument. A string that
// parses as a literal value yields a static publisher; otherwise the
// string must name a regular file, character device or FIFO, which
// becomes the live control channel. The returned stop func joins the
// reader (when there is one) and is safe on every exit path.
func Control(arg string, domain param.Domain, cfg *config.Config, terminateOnClose bool, log *logging.Logger) (*publish.Publisher, stopFunc, error) {
	if v, err := param.ParseArg(arg, domain); err == nil {
		pub := publish.New(v)
		return pub, func() error { pub.Close(); return nil }, nil
	} else if err == param.ErrOverflow {
		// A literal that overflows is a usage error, not a file name.
		return nil, nil, fmt.Errorf("%s: %w", arg, err)
	}

	pub := publish.New(param.Value{})
	rdr, err := ctrlfile.Open(arg, pub, ctrlfile.Options{
		Domain:           domain,
		PollInterval:     cfg.PollInterval,
		BufSize:          cfg.CtrlBufSize,
		RetrySleep:       cfg.RetrySleep,
		TerminateOnClose: terminateOnClose,
		Log:              log,
	})
	if err != nil {
		return nil, nil, err
	}
	rdr.Start()

	// SIGHUP forces an immediate re-read of a polled control file.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	go func() {
		for range hup {
			rdr.Refresh()
		}
	}()

	stop := func() error {
		signal.Stop(hup)
		close(hup)
		err := rdr.Stop()
		pub.Close()
		return err
	}
	return pub, stop, nil
}

type stopFunc func() error

// multiInput concatenates several inputs while keeping read deadlines
// working: a deadline is forwarded to every underlying file, so a
// blocked read is interruptible no matter which source it sits on.
type multiInput struct {
	io.Reader
	files []*os.File
}

func (m *multiInput) SetReadDeadline(t time.Time) error {
	var first error
	for _, f := range m.files {
		if err := f.SetReadDeadline(t); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Inputs opens the data sources named on a command line. No names, or
// the name "-", means stdin. A single real file is returned as is (so
// read deadlines keep working); several are concatenated.
func Inputs(names []string) (io.Reader, func(), error) {
	if len(names) == 0 {
		return os.Stdin, func() {}, nil
	}
	var files []*os.File
	cleanup := func() {
		for _, f := range files {
			if f != os.Stdin {
				f.Close()
			}
		}
	}
	readers := make([]io.Reader, 0, len(names))
	for _, name := range names {
		if name == "-" {
			files = append(files, os.Stdin)
			readers = append(readers, os.Stdin)
			continue
		}
		f, err := os.Open(name)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		files = append(files, f)
		readers = append(readers, f)
	}
	if len(readers) == 1 {
		return readers[0], cleanup, nil
	}
	return &multiInput{Reader: io.MultiReader(readers...), files: files}, cleanup, nil
}
