package flow

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"golang.org/x/time/rate"

	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/logging"
	"github.com/ShellShoccar-jpn/misc-tools-sub000/internal/publish"
)

// Pacer is the periodic valve: it releases one unit per period, where
// the period is the live control value. A zero period means the valve
// is fully open; an infinite period means it never releases and the
// loop parks until the next control update.
type Pacer struct {
	Pub  *publish.Publisher
	Unit Unit
	Log  *logging.Logger
}

// Run copies r to w one paced unit at a time until input is exhausted
// or the terminate sentinel arrives.
func (p *Pacer) Run(r io.Reader, w io.Writer) error {
	log := p.Log
	if log == nil {
		log = logging.Nop()
	}
	stopReads := watchTerminate(p.Pub, r)
	defer stopReads()

	lim := rate.NewLimiter(rate.Inf, 1)
	br := bufio.NewReader(r)

	if p.Unit == Lines {
		var line Elastic
		for {
			if err := line.ReadLine(br); err != nil {
				return p.finishRead(err, log)
			}
			if err := p.wait(lim); err != nil {
				return p.finish(err, log)
			}
			if _, err := w.Write(line.Bytes()); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
		}
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			return p.finishRead(err, log)
		}
		if err := p.wait(lim); err != nil {
			return p.finish(err, log)
		}
		if _, err := w.Write([]byte{b}); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
	}
}

// wait blocks until the valve opens for one unit. Control updates
// interrupt a pending reservation, so a shortened period takes effect
// immediately instead of after the old period expires.
func (p *Pacer) wait(lim *rate.Limiter) error {
	for {
		changed := p.Pub.Changed()
		v := p.Pub.Current()
		switch {
		case v.Terminate:
			return publish.ErrTerminated
		case v.Magnitude == 0 && !v.Infinite:
			return nil
		case v.Infinite:
			// Never releases; park until the parameter moves.
			<-changed
			continue
		}

		period := v.Magnitude
		if period > math.MaxInt64 {
			period = math.MaxInt64
		}
		lim.SetLimit(rate.Every(time.Duration(period)))

		rsv := lim.Reserve()
		if !rsv.OK() {
			return fmt.Errorf("%w: pacer reservation failed", ErrInternal)
		}
		d := rsv.Delay()
		if d == 0 {
			return nil
		}
		t := time.NewTimer(d)
		select {
		case <-t.C:
			return nil
		case <-changed:
			t.Stop()
			rsv.Cancel()
		}
	}
}

func (p *Pacer) finish(err error, log *logging.Logger) error {
	if errors.Is(err, publish.ErrTerminated) {
		log.Debug("terminate sentinel received")
		return nil
	}
	return err
}

func (p *Pacer) finishRead(err error, log *logging.Logger) error {
	if err == io.EOF {
		return nil
	}
	if errors.Is(err, os.ErrDeadlineExceeded) && p.Pub.Terminated() {
		log.Debug("terminate sentinel received")
		return nil
	}
	return fmt.Errorf("read input: %w", err)
}
