package ws

import "errors"

var (
	ErrClientQueueFull = errors.New("client message queue is full")
	ErrClientClosed    = errors.New("client connection is closed")
)

// Коды закрытия при отказе в подключении
const (
	CloseUnauthenticated = 4001
	CloseForbidden       = 4003
	CloseInternalError   = 4500
)
