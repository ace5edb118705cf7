package objectconfig

import "errors"

// ErrNotAPIManaged is returned by DeleteObject when asked to remove an
// object whose source config module isn't the "_api" module this service
// writes to.
var ErrNotAPIManaged = errors.New("objectconfig: object is not managed by the _api config module")

// ErrUnknownType is returned by CreateObject for a type the registry has no
// descriptor for.
var ErrUnknownType = errors.New("objectconfig: unknown object type")
