package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/cli"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/ptyrun"
)

const prog = "ptw"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-v] <command> [arg ...]\n", prog)
}

func main() {
	verbose := flag.Bool("v", false, "verbose diagnostics on stderr")
	flag.Usage = usage
	flag.Parse()

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

	res, err := ptyrun.Run(args, log)
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}
	os.Exit(res.ExitCode)
}
