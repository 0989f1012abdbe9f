package main

import (
	"flag"
	"fmt"
	"io"
	"net"
	"os"

	"go.uber.org/zap"

	"gorelay/core"
)

const exitUsage = 2 // same as the flag package on a bad flag

func main() {
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// run parses args, then serves until the listener fails. It returns only on
// usage or startup errors, or after -version.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		debug      = fs.Bool("debug", false, "development logging on stderr")
		version    = fs.Bool("version", false, "print version and exit")
		ssServer   = fs.String("ss-server", "", "reach origins through this shadowsocks server (host:port)")
		ssCipher   = fs.String("ss-cipher", "AEAD_CHACHA20_POLY1305", "shadowsocks cipher")
		ssPassword = fs.String("ss-password", "", "shadowsocks password")
	)
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: %s [options] <port number>\n", args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return exitUsage
	}

	if *version {
		fmt.Fprintln(stdout, "gorelay", core.Version)
		return 0
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}
	port := fs.Arg(0)

	logger, err := newLogger(*debug)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer logger.Sync()

	var dialer core.Dialer = &core.DirectDialer{}
	if *ssServer != "" {
		ss, err := core.NewShadowsocksDialer(*ssServer, *ssCipher, *ssPassword)
		if err != nil {
			logger.Error("shadowsocks upstream", zap.Error(err))
			return 1
		}
		logger.Info("using shadowsocks upstream", zap.String("server", *ssServer), zap.String("cipher", *ssCipher))
		dialer = ss
	}

	p := core.NewProxy(
		core.NewHandler(dialer, logger.Named("handler")),
		core.NewAccessLog(stdout),
		logger,
	)
	if err := p.ListenAndServe(net.JoinHostPort("", port)); err != nil {
		logger.Error("listen", zap.String("port", port), zap.Error(err))
		return 1
	}
	return 0
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
