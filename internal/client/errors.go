package client

import "errors"

// Error kinds returned by the clients. Callers match them with errors.Is;
// the wrapped message carries the stage that failed.
var (
	// ErrTransport is a network or process I/O failure.
	ErrTransport = errors.New("transport error")
	// ErrAuth means the login response did not yield a usable session.
	ErrAuth = errors.New("auth error")
	// ErrParse means a response body did not have the expected shape.
	ErrParse = errors.New("parse error")
	// ErrProcess means the speedtest subprocess could not be started or piped.
	ErrProcess = errors.New("process error")
	// ErrLine means a speedtest output line was not a typed JSON object.
	ErrLine = errors.New("line error")
)
