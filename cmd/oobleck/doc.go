// Package main is the oobleck pipeline filter.
//
// oobleck smooths bursty line streams the way its namesake resists
// sudden force: each arriving line is held, and only a line that sits
// undisturbed for the holding time flows through to stdout. A line
// displaced early (by a successor, or by a control update) goes to the
// drain file (-d) or is dropped.
//
// The holding time is a literal or a live control file in the same
// syntax valve uses; "100%" holds forever, "0" passes lines through
// untouched, "t" terminates.
package main
