// Package ctrlfile reads the live control channel of a tool: a file
// whose current content (one short line of text) is the tool's working
// parameter, rewritable at any time while the pipeline runs.
//
// The file type, inspected once at startup, decides the strategy:
//
//   - Regular file: no readability edge exists, so the reader polls.
//     Every tick (or SIGHUP-driven refresh) it re-reads the first line,
//     publishes a change, and then waits until the consumer loop has
//     observed it. At most one update is ever in flight, so rapid
//     rewrites cannot silently overwrite an unobserved value.
//
//   - Character device or FIFO: the reader blocks on the descriptor,
//     coalesces partial writes until a newline arrives, and parses only
//     the most recent complete line. No observation handshake; under
//     rapid writes the latest line wins.
//
// Unparsable or unchanged content is ignored silently in both modes:
// control files are edited interactively and transient garbage is
// normal. Real I/O errors on the channel are fatal to the process.
package ctrlfile
