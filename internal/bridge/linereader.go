package bridge

import (
	"bufio"
	"errors"
	"io"
)

// errLineTooLong reports a device line over the size cap. The line has been
// consumed; the next call continues with the following line.
var errLineTooLong = errors.New("device line exceeds maximum size")

// headSize is how much of an overlong line is kept for error reports
const headSize = 128

// lineReader splits the device stream into newline-terminated lines. Unlike
// bufio.Scanner it survives a line longer than max by discarding it.
type lineReader struct {
	r    *bufio.Reader
	max  int
	buf  []byte
	head []byte
}

func newLineReader(r io.Reader, max int) *lineReader {
	return &lineReader{r: bufio.NewReaderSize(r, 64*1024), max: max}
}

// next returns the next line without its terminator. The slice is valid
// until the following call. A final line without a newline is returned
// before io.EOF.
func (l *lineReader) next() ([]byte, error) {
	l.buf = l.buf[:0]
	l.head = l.head[:0]
	tooLong := false

	for {
		chunk, err := l.r.ReadSlice('\n')
		terminated := err == nil
		if terminated {
			chunk = chunk[:len(chunk)-1]
		}

		if !tooLong {
			if len(l.buf)+len(chunk) > l.max {
				tooLong = true
				l.head = append(l.head, l.buf[:min(len(l.buf), headSize)]...)
				if rest := headSize - len(l.head); rest > 0 {
					l.head = append(l.head, chunk[:min(len(chunk), rest)]...)
				}
				l.buf = l.buf[:0]
			} else {
				l.buf = append(l.buf, chunk...)
			}
		}

		switch {
		case terminated:
			if tooLong {
				return nil, errLineTooLong
			}
			return l.buf, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			if tooLong {
				return nil, errLineTooLong
			}
			if len(l.buf) > 0 {
				return l.buf, nil
			}
			return nil, io.EOF
		default:
			return nil, err
		}
	}
}

// discardedHead returns the start of the last overlong line
func (l *lineReader) discardedHead() []byte {
	return l.head
}
