// Package main is relval, a relief valve for line streams: at most N
// lines pass per trailing window ("10/1.5" = ten lines per 1.5s), the
// excess is vented (dropped), or delayed with -w.
package main
