package inbound

import "errors"

// ErrUnknownMethod is returned by Dispatch when msg.Method has no
// registered handler. This is a protocol error: the caller
// logs it and does not inform the sender.
var ErrUnknownMethod = errors.New("inbound: unknown method")
