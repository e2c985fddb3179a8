package store

import "errors"

// ErrInvalidState is wrapped by every Load and Reconstruct failure.
var ErrInvalidState = errors.New("invalid store state")
