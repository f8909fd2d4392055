package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/cli"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/config"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/flow"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
)

const prog = "qvalve"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-c|-l] [-t] [-v] <quantity>|<controlfile> [file ...]\n", prog)
}

func main() {
	byteMode := flag.Bool("c", false, "one grant releases one byte (default)")
	lineMode := flag.Bool("l", false, "one grant releases one line")
	termClose := flag.Bool("t", false, "terminate when the control channel's writer closes")
	verbose := flag.Bool("v", false, "verbose diagnostics on stderr")
	flag.Usage = usage
	flag.Parse()

	if *byteMode && *lineMode {
		usage()
		os.Exit(cli.ExitError)
	}
	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(cli.ExitError)
	}

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	log := logging.New(logging.Config{Name: prog, Verbosity: verbosity})
	defer log.Sync()
	cfg := config.LoadOrDefault()

	pub, stop, err := cli.Control(args[0], param.Quantity, cfg, *termClose, log)
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}

	in, closeIn, err := cli.Inputs(args[1:])
	if err != nil {
		stop()
		cli.Fatal(prog, cli.ExitError, err)
	}

	unit := flow.Bytes
	if *lineMode {
		unit = flow.Lines
	}
	copier := &flow.Copier{Pub: pub, Unit: unit, Chunk: cfg.ChunkSize, Log: log}
	runErr := copier.Run(in, os.Stdout)
	closeIn()
	if serr := stop(); runErr == nil {
		runErr = serr
	}
	if runErr != nil {
		code := cli.ExitError
		if errors.Is(runErr, flow.ErrInternal) {
			code = cli.ExitInternal
		}
		cli.Fatal(prog, code, runErr)
	}
}
