package client

import "errors"

var (
	ErrClosed     = errors.New("client closed")
	ErrNotUDPConn = errors.New("dialed connection is not UDP")
)

// ServerError is an "ERROR ..." reply.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string { return e.Message }
