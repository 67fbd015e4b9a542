package query

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by every Engine operation until a snapshot has been
// installed
var ErrNotReady = errors.New("index not ready")

// InvalidParamError reports a request parameter that cannot be used, such as
// a non-numeric limit
type InvalidParamError struct {
	Param  string
	Value  string
	Reason string
}

func (e *InvalidParamError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Param, e.Value, e.Reason)
}

// NotFoundError reports a lookup for an id that is not in the snapshot
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("food %q not found", e.ID)
}

// IsInvalidParam reports whether err is or wraps an *InvalidParamError
func IsInvalidParam(err error) bool {
	var target *InvalidParamError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is or wraps a *NotFoundError
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}
