package ctrlfile

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Mode is the reading strategy for a control source, fixed once at
// startup from the source's file type. Regular files have no "data
// available" edge and must be polled; character devices and FIFOs
// support blocking reads and deliver updates with no polling latency.
type Mode int

const (
	// Polled re-reads the whole file on a fixed period.
	Polled Mode = iota
	// Streamed blocks on the descriptor and accumulates partial lines.
	Streamed
)

func (m Mode) String() string {
	if m == Polled {
		return "polled"
	}
	return "streamed"
}

// ErrUnsupportedType is returned for control paths that are neither
// regular files, character devices, nor FIFOs.
var ErrUnsupportedType = errors.New("unsupported control file type")

// Classify stats path and picks the reading strategy.
func Classify(path string) (Mode, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	switch st.Mode & unix.S_IFMT {
	case unix.S_IFREG:
		return Polled, nil
	case unix.S_IFCHR, unix.S_IFIFO:
		return Streamed, nil
	}
	return 0, fmt.Errorf("%s: %w", path, ErrUnsupportedType)
}
