// Package main is the qvalve pipeline filter.
//
// qvalve copies stdin to stdout through a quantity gate: every byte (or
// line, with -l) consumes one unit of a quota, and a zero quota blocks
// the copy entirely. The quota is a literal command-line value or the
// live content of a control file; writing "+N" to a live channel adds N
// units instead of replacing the quota.
//
// Quantity syntax: "512", "4ki", "2M", "+100", "t" (terminate).
// SI prefixes k,M,G,T,P,E scale by powers of 1000; ki,Mi,Gi,Ti,Pi,Ei by
// powers of 1024; a legacy bare "K" means 1024.
package main
