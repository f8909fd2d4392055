package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/cli"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/config"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/flow"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/param"
)

const prog = "oobleck"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-d drainfile] [-t] [-v] <holdingtime>|<controlfile>\n", prog)
}

func main() {
	drainPath := flag.String("d", "", "write displaced lines here instead of dropping them")
	termClose := flag.Bool("t", false, "terminate when the control channel's writer closes")
	verbose := flag.Bool("v", false, "verbose diagnostics on stderr")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
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

	pub, stop, err := cli.Control(args[0], param.Duration, cfg, *termClose, log)
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}

	var drain io.Writer
	var drainFile *os.File
	if *drainPath != "" {
		drainFile, err = os.OpenFile(*drainPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			stop()
			cli.Fatal(prog, cli.ExitError, err)
		}
		drain = drainFile
	}

	holder := &flow.Holder{Pub: pub, Drain: drain, Log: log}
	runErr := holder.Run(os.Stdin, os.Stdout)
	if drainFile != nil {
		drainFile.Close()
	}
	if serr := stop(); runErr == nil {
		runErr = serr
	}
	if runErr != nil {
		cli.Fatal(prog, cli.ExitError, runErr)
	}
}
