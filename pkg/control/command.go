package control

// ByteSource is a non-blocking receive buffer. machine.UART satisfies it on
// the device; tests use an in-memory fake.
type ByteSource interface {
	// Buffered returns the number of bytes waiting to be read.
	Buffered() int
	// ReadByte pops one received byte.
	ReadByte() (byte, error)
}

// maxCommandLen caps the assembly buffer. Nothing longer than this before
// the terminator can be a valid command, so an oversized line is discarded
// wholesale once the terminator arrives.
const maxCommandLen = 32

// CommandReader assembles newline-terminated command lines from a ByteSource
// without ever blocking. A partial line persists across polls until its
// terminator shows up.
type CommandReader struct {
	src      ByteSource
	buf      [maxCommandLen]byte
	n        int
	overflow bool
}

// NewCommandReader wraps a byte source.
func NewCommandReader(src ByteSource) *CommandReader {
	return &CommandReader{src: src}
}

// Poll drains the bytes available right now and returns the first complete
// command line, trimmed of surrounding whitespace. ok is false when no
// complete line is available yet. Empty and oversized lines are skipped.
func (r *CommandReader) Poll() (line string, ok bool) {
	for r.src.Buffered() > 0 {
		b, err := r.src.ReadByte()
		if err != nil {
			break
		}

		if b == '\n' {
			if line := r.take(); line != "" {
				return line, true
			}
			continue
		}

		if r.overflow {
			continue
		}
		if r.n == len(r.buf) {
			r.n = 0
			r.overflow = true
			continue
		}
		r.buf[r.n] = b
		r.n++
	}
	return "", false
}

// take consumes the assembled line, trimming spaces, tabs and CR so that
// " WET \r\n" and "WET\n" yield the same token.
func (r *CommandReader) take() string {
	n, overflowed := r.n, r.overflow
	r.n, r.overflow = 0, false
	if overflowed {
		return ""
	}

	start, end := 0, n
	for start < end && isSpace(r.buf[start]) {
		start++
	}
	for end > start && isSpace(r.buf[end-1]) {
		end--
	}
	return string(r.buf[start:end])
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r'
}
