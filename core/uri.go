package core

import "strings"

const (
	httpScheme  = "http://"
	defaultPort = "80"
	// host ends at the first of these, or at end of string
	hostDelims = " :/\r\n\x00"
)

// Target is an absolute http URI split into the parts needed to reach the origin.
type Target struct {
	Host string
	Port string
	Path string // without the leading slash
}

// Addr returns host:port for dialing.
func (t Target) Addr() string {
	return t.Host + ":" + t.Port
}

// RequestPath returns the path in relative request form, always starting with "/".
func (t Target) RequestPath() string {
	return "/" + t.Path
}

// ParseURI decomposes an absolute http URI into host, port and path.
//
// The port defaults to "80" and the path to "". The path keeps any query
// string or fragment verbatim. On failure the returned Target has an empty
// host and the error is ErrNotHTTP, or ErrMalformedURI when the host is empty.
func ParseURI(uri string) (Target, error) {
	if len(uri) < len(httpScheme) || !strings.EqualFold(uri[:len(httpScheme)], httpScheme) {
		return Target{}, ErrNotHTTP
	}

	rest := uri[len(httpScheme):]
	end := strings.IndexAny(rest, hostDelims)
	if end < 0 {
		// end of string is a boundary
		end = len(rest)
	}
	if end == 0 {
		return Target{}, ErrMalformedURI
	}
	t := Target{Host: rest[:end], Port: defaultPort}

	if end < len(rest) && rest[end] == ':' {
		p := end + 1
		for p < len(rest) && rest[p] >= '0' && rest[p] <= '9' {
			p++
		}
		t.Port = rest[end+1 : p]
	}

	if slash := strings.IndexByte(rest, '/'); slash >= 0 {
		t.Path = rest[slash+1:]
	}
	return t, nil
}
