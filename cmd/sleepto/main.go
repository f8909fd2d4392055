package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/cli"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/timefmt"
)

const prog = "sleepto"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-r] <time>|<duration>\n", prog)
}

// wakeTime resolves the argument: a relative duration in the control
// syntax ("1.5s", "250ms"), or with -r forced; otherwise an absolute
// time ("@unixtime", "YYYYMMDDhhmmss", "YYYY-MM-DDThh:mm:ss").
func wakeTime(arg string, relative bool) (time.Time, error) {
	if !relative {
		if t, err := timefmt.ParseAbsolute(arg); err == nil {
			return t, nil
		}
	}
	v, err := param.ParseArg(arg, param.Duration)
	if err != nil || v.Infinite || v.Terminate {
		return time.Time{}, fmt.Errorf("unrecognized time %q", arg)
	}
	ns := v.Magnitude
	if ns > math.MaxInt64 {
		ns = math.MaxInt64
	}
	return time.Now().Add(time.Duration(ns)), nil
}

func main() {
	relative := flag.Bool("r", false, "argument is a duration, never a calendar time")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		usage()
		os.Exit(cli.ExitError)
	}

	deadline, err := wakeTime(args[0], *relative)
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for {
		d := time.Until(deadline)
		if d <= 0 {
			return
		}
		// Re-arm in bounded slices so a stepped wall clock cannot make
		// us oversleep an absolute deadline by more than one slice.
		if d > time.Minute {
			d = time.Minute
		}
		t := time.NewTimer(d)
		select {
		case <-t.C:
		case s := <-sig:
			t.Stop()
			cli.Fatal(prog, cli.ExitError, errors.New("interrupted by "+s.String()))
		}
	}
}
