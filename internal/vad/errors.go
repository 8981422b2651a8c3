package vad

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument is returned for configuration or input that fails
	// validation before any processing starts.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedChannelLayout is returned for signals that are neither mono
	// nor stereo. It matches ErrInvalidArgument as well.
	ErrUnsupportedChannelLayout = fmt.Errorf("%w: unsupported channel layout", ErrInvalidArgument)
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
