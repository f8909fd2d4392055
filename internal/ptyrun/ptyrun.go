// Package ptyrun runs a child command under a pseudo-terminal while
// this process sits in a pipeline. The child sees a terminal on all
// three standard descriptors; its output is relayed unmodified to our
// stdout, so line buffering and progress displays survive piping.
package ptyrun

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
)

// Result carries the child's exit status.
type Result struct {
	ExitCode int
}

// Run starts argv under a PTY, relays stdio, and waits for the child.
// When our own stdin is a terminal it is switched to raw mode for the
// duration and window-size changes are propagated to the child.
func Run(argv []string, log *logging.Logger) (Result, error) {
	if log == nil {
		log = logging.Nop()
	}
	if len(argv) == 0 {
		return Result{}, errors.New("no command given")
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	ptmx, err := pty.Start(cmd)
	if err != nil {
		return Result{}, fmt.Errorf("start pty: %w", err)
	}
	defer ptmx.Close()

	stdinFD := int(os.Stdin.Fd())
	interactive := term.IsTerminal(stdinFD)

	if interactive {
		if err := pty.InheritSize(os.Stdin, ptmx); err != nil {
			log.Debug("inherit window size failed")
		}
		winch := make(chan os.Signal, 1)
		signal.Notify(winch, syscall.SIGWINCH)
		defer signal.Stop(winch)
		go func() {
			for range winch {
				if err := pty.InheritSize(os.Stdin, ptmx); err != nil {
					log.Debug("resize propagation failed")
				}
			}
		}()

		oldState, err := term.MakeRaw(stdinFD)
		if err != nil {
			return Result{}, fmt.Errorf("raw mode: %w", err)
		}
		defer term.Restore(stdinFD, oldState)
	}

	// Writer side: our stdin feeds the child. Ends when our stdin does;
	// the child's exit closes the PTY and unblocks the read side below.
	go func() {
		io.Copy(ptmx, os.Stdin)
	}()

	if _, err := io.Copy(os.Stdout, ptmx); err != nil && !isPTYClosed(err) {
		return Result{}, fmt.Errorf("relay output: %w", err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{ExitCode: exitErr.ExitCode()}, nil
		}
		return Result{}, fmt.Errorf("wait child: %w", err)
	}
	return Result{ExitCode: 0}, nil
}

// isPTYClosed recognizes the read error a master side returns once the
// last slave descriptor is gone (EIO on Linux, EOF elsewhere).
func isPTYClosed(err error) bool {
	return errors.Is(err, syscall.EIO) || errors.Is(err, io.EOF)
}
