package flow

import (
	"bufio"
	"io"
)

// Elastic is a growable byte buffer holding one not-yet-released line.
// Its storage is reset, never freed, between lines, so steady-state
// operation allocates only when a line outgrows everything seen before.
type Elastic struct {
	buf []byte
}

// Reset marks the buffer empty without releasing storage.
func (e *Elastic) Reset() { e.buf = e.buf[:0] }

// Bytes returns the held line, including its trailing newline if the
// input had one.
func (e *Elastic) Bytes() []byte { return e.buf }

// Len returns the held line's length.
func (e *Elastic) Len() int { return len(e.buf) }

// ReadLine fills e with the next line from br, newline included. At end
// of input it returns io.EOF; a final unterminated line is still
// delivered (with a nil error) and the EOF surfaces on the next call.
func (e *Elastic) ReadLine(br *bufio.Reader) error {
	e.Reset()
	for {
		frag, err := br.ReadSlice('\n')
		e.buf = append(e.buf, frag...)
		switch err {
		case nil:
			return nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			if len(e.buf) > 0 {
				return nil
			}
			return io.EOF
		default:
			return err
		}
	}
}
