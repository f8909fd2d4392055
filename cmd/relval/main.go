package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/cli"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/window"
)

const prog = "relval"

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-w] [-v] <count>[/<window-seconds>] [file ...]\n", prog)
}

// parseGate reads "10/1.5" as ten lines per 1.5 seconds. A bare count
// gets a one-second window.
func parseGate(s string) (int, time.Duration, error) {
	countStr, windowStr := s, ""
	if i := strings.IndexByte(s, '/'); i >= 0 {
		countStr, windowStr = s[:i], s[i+1:]
	}
	count, err := strconv.Atoi(countStr)
	if err != nil || count < 1 {
		return 0, 0, fmt.Errorf("bad admission count %q", countStr)
	}
	win := time.Second
	if windowStr != "" {
		secs, err := strconv.ParseFloat(windowStr, 64)
		if err != nil || secs <= 0 {
			return 0, 0, fmt.Errorf("bad window %q", windowStr)
		}
		win = time.Duration(secs * float64(time.Second))
	}
	return count, win, nil
}

func main() {
	wait := flag.Bool("w", false, "delay excess lines until the window frees instead of dropping them")
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

	count, win, err := parseGate(args[0])
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}

	in, closeIn, err := cli.Inputs(args[1:])
	if err != nil {
		cli.Fatal(prog, cli.ExitError, err)
	}
	defer closeIn()

	ring := window.New(count, win)
	br := bufio.NewReader(in)
	dropped := 0
	for {
		line, rerr := br.ReadBytes('\n')
		if len(line) > 0 {
			now := time.Now()
			admit := ring.Admit(now)
			if !admit && *wait {
				time.Sleep(ring.NextFree(now))
				admit = ring.Admit(time.Now())
			}
			if admit {
				if _, werr := os.Stdout.Write(line); werr != nil {
					cli.Fatal(prog, cli.ExitError, fmt.Errorf("write output: %w", werr))
				}
			} else {
				dropped++
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			cli.Fatal(prog, cli.ExitError, fmt.Errorf("read input: %w", rerr))
		}
	}
	if dropped > 0 {
		log.Info("dropped excess lines", zap.Int("count", dropped))
	}
}
