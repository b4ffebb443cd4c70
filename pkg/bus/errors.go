package bus

import "errors"

// ErrClosed is returned by Publish after the bus has been closed.
var ErrClosed = errors.New("bus: closed")
