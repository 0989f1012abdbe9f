package core

import "errors"

var (
	// ErrNotHTTP is returned by ParseURI when the URI lacks the http:// scheme.
	ErrNotHTTP = errors.New("uri is not an http:// uri")
	// ErrMalformedURI is returned by ParseURI when no host boundary is found.
	ErrMalformedURI = errors.New("malformed uri")

	ErrEmptyRequest         = errors.New("client sent no request line")
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrMethodNotAllowed     = errors.New("method not implemented")
)
