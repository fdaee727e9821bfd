package core

import (
	"errors"
)

var (
	// ErrResolutionMismatch is returned when a pass receives buffers whose size
	// differs from the size it was allocated for. Callers must resize first.
	ErrResolutionMismatch = errors.New("buffer resolution does not match pass resolution")
	ErrMissingInput       = errors.New("required frame input is missing")
	ErrJitterActive       = errors.New("camera view offset still active during geometry extraction")
	ErrInvalidConfig      = errors.New("invalid pipeline configuration")
	ErrAliasedSnapshot    = errors.New("history snapshot source aliases its destination")
	ErrUnsupportedFormat  = errors.New("unsupported file format")
	ErrUnknown            = errors.New("unknown")
)
