package room

import "errors"

var (
	errSendBufferFull   = errors.New("room: connection send buffer full")
	errConnectionClosed = errors.New("room: connection already closed")
)
