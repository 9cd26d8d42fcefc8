package stream

import "errors"

// ErrUnavailable означает недоступность хранилища: вызвавший не должен
// считать сообщение сохраненным
var ErrUnavailable = errors.New("message log unavailable")
