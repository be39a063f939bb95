package selection

import "errors"

var (
	// ErrDisposed is returned by Update once the selection has been disposed.
	ErrDisposed = errors.New("selsync: selection disposed")

	// ErrInvalidCapability is returned by constructors given a nil getter,
	// setter, store callback or source.
	ErrInvalidCapability = errors.New("selsync: invalid capability")
)
