// Package main is the valve pipeline filter.
//
// valve releases one unit of input (a byte with -c, a line with -l) per
// period, where the period is either a literal given once on the
// command line or the live content of a control file rewritten while
// the pipeline runs.
//
// Period syntax:
//   - "1.5", "250ms", "80us", "100ns": a periodic time
//   - "9600bps", "30cps": a throughput, converted to a per-unit period
//   - "10/1.5": ten releases per 1.5 seconds
//   - "0%": fully open; "100%": closed (never releases)
//   - "t": terminate the process
//
// Usage:
//
//	# fixed 10 chars per second
//	slowsrc | valve -c 100ms > out
//
//	# live control: echo 10ms > speed  while the pipeline runs
//	slowsrc | valve -c speed > out
//
// Signals:
//   - SIGHUP: re-read a regular-file control channel immediately
package main
