package transformer

import "github.com/pkg/errors"

// ErrNoSample is returned when no transformation sample is available at the
// requested time. Consumers are expected to retry once more data arrived.
var ErrNoSample = errors.New("no transformation sample available")

// NewFrameNotReachableError returns an error indicating that no chain of
// known transformations connects the two frames.
func NewFrameNotReachableError(from, to string) error {
	return errors.Errorf("no transformation chain from frame %q to frame %q", from, to)
}
