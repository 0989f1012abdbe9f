package core

import (
	"bytes"
	"fmt"
	"net"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFormatLogEntry(t *testing.T) {
	now := time.Date(2024, 3, 5, 14, 7, 9, 0, time.FixedZone("CET", 3600))

	tests := []struct {
		name string
		ip   net.IP
		uri  string
		size int64
		want string
	}{
		{"ipv4", net.IPv4(192, 168, 1, 20), "http://example.com/", 13,
			"Tue 05 Mar 2024 14:07:09 CET: 192.168.1.20 http://example.com/ 13"},
		{"four byte form", net.IP{10, 0, 0, 255}, "http://h:8080/x", 0,
			"Tue 05 Mar 2024 14:07:09 CET: 10.0.0.255 http://h:8080/x 0"},
		{"ipv6", net.ParseIP("::1"), "-", 0,
			"Tue 05 Mar 2024 14:07:09 CET: ::1 - 0"},
		{"no address", nil, "-", 0,
			"Tue 05 Mar 2024 14:07:09 CET: 0.0.0.0 - 0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatLogEntry(now, tt.ip, tt.uri, tt.size); got != tt.want {
				t.Errorf("FormatLogEntry() = %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestAccessLog_ConcurrentLinesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	l := NewAccessLog(&buf)
	l.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	const writers, perWriter = 32, 25
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < perWriter; j++ {
				uri := fmt.Sprintf("http://origin-%d.example/%s", i, strings.Repeat("x", j*10))
				if err := l.Log(net.IPv4(127, 0, 0, byte(i)), uri, int64(j)); err != nil {
					t.Errorf("Log: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	if len(lines) != writers*perWriter {
		t.Fatalf("got %d lines, want %d", len(lines), writers*perWriter)
	}
	re := regexp.MustCompile(`^Mon 01 Jan 2024 00:00:00 UTC: 127\.0\.0\.\d+ http://origin-\d+\.example/x* \d+$`)
	for _, line := range lines {
		if !re.MatchString(line) {
			t.Errorf("malformed line %q", line)
		}
	}
}
