package core

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/shadowsocks/go-shadowsocks2/core"
	"github.com/shadowsocks/go-shadowsocks2/socks"
)

const (
	Version = "1.0"
)

// Dialer opens the connection to an origin server.
type Dialer interface {
	Dial(ctx context.Context, t Target) (net.Conn, error)
}

var errNoHost = errors.New("origin host is empty")

// DirectDialer connects to the origin over plain TCP.
type DirectDialer struct {
	net.Dialer
}

func (d *DirectDialer) Dial(ctx context.Context, t Target) (net.Conn, error) {
	if t.Host == "" {
		return nil, errNoHost
	}
	return d.DialContext(ctx, "tcp", t.Addr())
}

// ShadowsocksDialer reaches origins through a shadowsocks server.
type ShadowsocksDialer struct {
	Server string // host:port of the shadowsocks server
	cipher core.Cipher
	dialer net.Dialer
}

// NewShadowsocksDialer picks the cipher by name, e.g. AEAD_CHACHA20_POLY1305.
func NewShadowsocksDialer(server, cipher, password string) (*ShadowsocksDialer, error) {
	ciph, err := core.PickCipher(cipher, nil, password)
	if err != nil {
		return nil, fmt.Errorf("shadowsocks cipher: %w", err)
	}
	return &ShadowsocksDialer{Server: server, cipher: ciph}, nil
}

func (d *ShadowsocksDialer) Dial(ctx context.Context, t Target) (net.Conn, error) {
	if t.Host == "" {
		return nil, errNoHost
	}
	// address in socks form: ATYP, host, port
	address := socks.ParseAddr(t.Addr())
	if address == nil {
		return nil, fmt.Errorf("invalid origin address %q", t.Addr())
	}

	rawConn, err := d.dialer.DialContext(ctx, "tcp", d.Server)
	if err != nil {
		return nil, err
	}
	conn := d.cipher.StreamConn(rawConn)

	// the server reads the target before any payload
	if _, err := conn.Write(address); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
