package core

import (
	"context"
	"errors"
	"net"
	"time"

	"go.uber.org/zap"
)

// Proxy accepts client connections and serves each on its own goroutine.
// There is no limit on concurrent connections and no timeout on any peer.
type Proxy struct {
	Handler   *Handler
	AccessLog *AccessLog
	Logger    *zap.Logger
}

func NewProxy(h *Handler, access *AccessLog, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{Handler: h, AccessLog: access, Logger: logger}
}

// ListenAndServe listens on addr and calls Serve. A bind failure is returned
// before any connection is accepted.
func (p *Proxy) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	defer ln.Close()
	p.Logger.Info("proxy listening", zap.String("addr", ln.Addr().String()))
	return p.Serve(ln)
}

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// Serve accepts connections on ln until ln is closed, which returns nil.
// Other accept errors are retried after a pause that doubles on each
// consecutive failure.
func (p *Proxy) Serve(ln net.Listener) error {
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			if delay == 0 {
				delay = minAcceptDelay
			} else if delay *= 2; delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			p.Logger.Warn("accept", zap.Duration("retry_in", delay), zap.Error(err))
			time.Sleep(delay)
			continue
		}
		delay = 0
		go p.serveConn(conn)
	}
}

func (p *Proxy) serveConn(conn net.Conn) {
	defer conn.Close()

	var ip net.IP
	if addr, ok := conn.RemoteAddr().(*net.TCPAddr); ok {
		ip = addr.IP
	}
	if host, port, err := net.SplitHostPort(conn.RemoteAddr().String()); err == nil {
		p.Logger.Info("connected", zap.String("host", host), zap.String("port", port))
	}

	uri, size := p.handle(conn)
	if uri == "" {
		uri = "-"
	}
	if err := p.AccessLog.Log(ip, uri, size); err != nil {
		p.Logger.Error("write access log", zap.Error(err))
	}
}

// handle runs the handler, keeping its failures inside this connection.
func (p *Proxy) handle(conn net.Conn) (uri string, size int64) {
	defer func() {
		if r := recover(); r != nil {
			p.Logger.Error("panic serving connection", zap.Any("panic", r), zap.Stack("stack"))
		}
	}()

	uri, size, err := p.Handler.Handle(context.Background(), conn)
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyRequest), errors.Is(err, ErrMalformedRequestLine), errors.Is(err, ErrMethodNotAllowed):
		p.Logger.Debug("request rejected", zap.String("uri", uri), zap.Error(err))
	default:
		p.Logger.Warn("request failed", zap.String("uri", uri), zap.Int64("size", size), zap.Error(err))
	}
	return uri, size
}
