package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// written after the forwarded header lines, whatever they were
const requestTerminator = "\r\n\r\n"

// Handler runs one client connection through the proxy pipeline.
type Handler struct {
	Dialer Dialer
	Logger *zap.Logger
}

// NewHandler returns a Handler dialing origins with d. A nil d dials directly.
func NewHandler(d Dialer, logger *zap.Logger) *Handler {
	if d == nil {
		d = &DirectDialer{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Dialer: d, Logger: logger}
}

// Handle reads one GET request from client, forwards it to the origin named by
// its URI and relays the response back. It returns the requested URI and the
// response size seen in Content-Length.
//
// Nothing is ever written back to the client except origin bytes: rejected
// requests get a silent close, done by the caller.
func (h *Handler) Handle(ctx context.Context, client io.ReadWriter) (uri string, size int64, err error) {
	cr := bufio.NewReader(client)

	line, err := cr.ReadString('\n')
	if line == "" {
		if err != nil && err != io.EOF {
			return "", 0, fmt.Errorf("read request line: %w", err)
		}
		return "", 0, ErrEmptyRequest
	}
	h.Logger.Debug("request", zap.String("line", strings.TrimRight(line, "\r\n")))

	method, uri, version, ok := parseRequestLine(line)
	if !ok {
		return uri, 0, ErrMalformedRequestLine
	}
	if !strings.EqualFold(method, "GET") {
		return uri, 0, fmt.Errorf("%w: %s", ErrMethodNotAllowed, method)
	}

	// A bad URI leaves the host empty; the dial below reports it.
	target, perr := ParseURI(uri)
	if perr != nil {
		h.Logger.Debug("parse uri", zap.String("uri", uri), zap.Error(perr))
	}

	origin, err := h.Dialer.Dial(ctx, target)
	if err != nil {
		return uri, 0, fmt.Errorf("connect to origin %s: %w", target.Addr(), err)
	}
	defer origin.Close()

	ow := bufio.NewWriter(origin)
	ow.WriteString(method + " " + target.RequestPath() + " " + version + "\r\n")
	if err := forwardHeaders(ow, cr); err != nil {
		return uri, 0, err
	}
	ow.WriteString(requestTerminator)
	if err := ow.Flush(); err != nil {
		return uri, 0, fmt.Errorf("write request to origin: %w", err)
	}

	size, err = Relay(client, origin)
	if err != nil {
		return uri, size, fmt.Errorf("relay response: %w", err)
	}
	return uri, size, nil
}

// parseRequestLine splits "METHOD URI VERSION" on whitespace. Tokens after
// the third are ignored. With fewer than three, ok is false and whatever was
// found is still returned.
func parseRequestLine(line string) (method, uri, version string, ok bool) {
	fields := strings.Fields(line)
	switch len(fields) {
	case 0:
		return "", "", "", false
	case 1:
		return fields[0], "", "", false
	case 2:
		return fields[0], fields[1], "", false
	}
	return fields[0], fields[1], fields[2], true
}

// forwardHeaders copies the remaining request lines verbatim, each by its own
// length. It stops when the client has nothing more to send or right after the
// blank line ending the header block, since clients keep their side open
// while they wait for the response.
func forwardHeaders(w *bufio.Writer, r *bufio.Reader) error {
	for {
		line, err := r.ReadString('\n')
		if line != "" {
			if _, werr := w.WriteString(line); werr != nil {
				return fmt.Errorf("forward header: %w", werr)
			}
			if line == "\r\n" || line == "\n" {
				return nil
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
	}
}
