package core

import (
	"io"
	"net"
	"strconv"
	"sync"
	"time"
)

// LogTimeLayout renders like strftime "%a %d %b %Y %H:%M:%S %Z".
const LogTimeLayout = "Mon 02 Jan 2006 15:04:05 MST"

// FormatLogEntry renders one access-log line (without the trailing newline):
//
//	<time>: <a>.<b>.<c>.<d> <uri> <size>
func FormatLogEntry(now time.Time, ip net.IP, uri string, size int64) string {
	b := make([]byte, 0, 64+len(uri))
	b = now.AppendFormat(b, LogTimeLayout)
	b = append(b, ':', ' ')
	b = appendAddr(b, ip)
	b = append(b, ' ')
	b = append(b, uri...)
	b = append(b, ' ')
	b = strconv.AppendInt(b, size, 10)
	return string(b)
}

func appendAddr(b []byte, ip net.IP) []byte {
	v4 := ip.To4()
	if v4 == nil {
		if ip == nil {
			return append(b, "0.0.0.0"...)
		}
		return append(b, ip.String()...)
	}
	host := uint32(v4[0])<<24 | uint32(v4[1])<<16 | uint32(v4[2])<<8 | uint32(v4[3])
	for i, shift := range [4]uint{24, 16, 8, 0} {
		if i > 0 {
			b = append(b, '.')
		}
		b = strconv.AppendUint(b, uint64(host>>shift&0xff), 10)
	}
	return b
}

// AccessLog is the shared sink for access-log lines. Each line is written
// with a single Write while the lock is held, so concurrent lines never
// interleave.
type AccessLog struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

// NewAccessLog returns an AccessLog writing to w.
func NewAccessLog(w io.Writer) *AccessLog {
	return &AccessLog{out: w, now: time.Now}
}

// Log formats and writes one entry.
func (l *AccessLog) Log(ip net.IP, uri string, size int64) error {
	line := FormatLogEntry(l.now(), ip, uri, size) + "\n"
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := io.WriteString(l.out, line)
	return err
}
