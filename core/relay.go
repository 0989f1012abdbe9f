package core

import (
	"bufio"
	"bytes"
	"io"
)

var contentLengthPrefix = []byte("Content-Length:")

// Relay copies src to dst one line at a time until src yields no more bytes,
// and reports the value of the last Content-Length line it saw (0 if none).
//
// There is no framing: header and body lines are treated alike, and a final
// line without a newline is copied as is. The count is for logging only and
// is not checked against the bytes actually relayed.
func Relay(dst io.Writer, src io.Reader) (int64, error) {
	var size int64
	r, ok := src.(*bufio.Reader)
	if !ok {
		r = bufio.NewReader(src)
	}
	for {
		line, rerr := r.ReadBytes('\n')
		if len(line) > 0 {
			if n, ok := contentLength(line); ok {
				size = n
			}
			if _, err := dst.Write(line); err != nil {
				return size, err
			}
		}
		if rerr != nil {
			if rerr == io.EOF {
				return size, nil
			}
			return size, rerr
		}
	}
}

// contentLength reports whether line is a Content-Length header and, if so,
// the integer after its first space, parsed leniently: leading blanks and a
// sign are accepted and parsing stops at the first non-digit.
func contentLength(line []byte) (int64, bool) {
	if len(line) < len(contentLengthPrefix) || !bytes.EqualFold(line[:len(contentLengthPrefix)], contentLengthPrefix) {
		return 0, false
	}
	sp := bytes.IndexByte(line, ' ')
	if sp < 0 {
		return 0, true
	}
	return atoi(line[sp+1:]), true
}

func atoi(b []byte) int64 {
	i := 0
	for i < len(b) && (b[i] == ' ' || b[i] == '\t') {
		i++
	}
	neg := false
	if i < len(b) && (b[i] == '+' || b[i] == '-') {
		neg = b[i] == '-'
		i++
	}
	var n int64
	for ; i < len(b) && b[i] >= '0' && b[i] <= '9'; i++ {
		n = n*10 + int64(b[i]-'0')
	}
	if neg {
		return -n
	}
	return n
}
