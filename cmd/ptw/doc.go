// Package main is ptw, the pseudo-terminal wrapper.
//
// ptw runs a command with its standard descriptors attached to a PTY,
// so the child keeps terminal behavior (line buffering, progress bars,
// color) even though ptw itself sits in a pipeline. Output is relayed
// unmodified to stdout; the child's exit code becomes ptw's.
package main
