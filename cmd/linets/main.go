package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/cli"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/timefmt"
)

const prog = "linets"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-u|-e|-i] [-3|-6|-9] [file ...]\n", prog)
}

func main() {
	unixStyle := flag.Bool("u", false, "Unix seconds instead of calendar time")
	elapsed := flag.Bool("e", false, "seconds since start")
	interval := flag.Bool("i", false, "seconds since the previous line")
	frac3 := flag.Bool("3", false, "millisecond resolution")
	frac6 := flag.Bool("6", false, "microsecond resolution")
	frac9 := flag.Bool("9", false, "nanosecond resolution")
	flag.Usage = usage
	flag.Parse()

	style := timefmt.Calendar
	styles := 0
	if *unixStyle {
		style = timefmt.Unix
		styles++
	}
	if *elapsed {
		style = timefmt.Elapsed
		styles++
	}
	if *interval {
		style = timefmt.Delta
		styles++
	}
	frac := 0
	fracs := 0
	if *frac3 {
		frac = 3
		fracs++
	}
	if *frac6 {
		frac = 6
		fracs++
	}
	if *frac9 {
		frac = 9
		fracs++
	}
	if styles > 1 || fracs > 1 {
		usage()
		os.Exit(cli.ExitError)
	}

	in, closeIn, err := cli.Inputs(flag.Args())
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}
	defer closeIn()

	out := bufio.NewWriter(os.Stdout)
	br := bufio.NewReader(in)
	start := time.Now()
	prev := start
	for {
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 {
			now := time.Now()
			var d time.Duration
			switch style {
			case timefmt.Elapsed:
				d = now.Sub(start)
			case timefmt.Delta:
				d = now.Sub(prev)
			}
			prev = now
			if _, err := out.WriteString(timefmt.Stamp(style, now, d, frac)); err != nil {
				cli.Fatal(prog, cli.ExitError, fmt.Errorf("write output: %w", err))
			}
			out.WriteByte(' ')
			if _, err := out.Write(line); err != nil {
				cli.Fatal(prog, cli.ExitError, fmt.Errorf("write output: %w", err))
			}
			// Timestamps are only useful if they leave the process the
			// moment the line does.
			if err := out.Flush(); err != nil {
				cli.Fatal(prog, cli.ExitError, fmt.Errorf("write output: %w", err))
			}
		}
		if rerr == io.EOF {
			return
		}
		if rerr != nil {
			cli.Fatal(prog, cli.ExitError, fmt.Errorf("read input: %w", rerr))
		}
	}
}
