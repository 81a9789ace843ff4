package align

import (
	"errors"
	"fmt"
)

var (
	ErrSelfReference        = errors.New("a frame cannot reference itself")
	ErrWCSMismatch          = errors.New("exactly one of the frames has valid world coordinates")
	ErrNoSpectralInfo       = errors.New("frame is missing spectral information")
	ErrTransformUnavailable = errors.New("no transform between the frames")
	ErrNonFiniteTransform   = errors.New("transform has non-finite components")
	ErrNotLinked            = errors.New("frames are not linked")
	ErrChainedReference     = errors.New("references must point directly at a root frame")
	ErrUnknownFrame         = errors.New("unknown frame")
	ErrDuplicateFrame       = errors.New("frame id already in use")
	ErrChannelUnmapped      = errors.New("channel could not be mapped")
	ErrEmptyImage           = errors.New("frame has no image extent")
)

// Kind tells which relation an error is about.
type Kind string

const (
	Spatial  Kind = "spatial"
	Spectral Kind = "spectral"
)

// AlignmentError is returned when two frames cannot be linked. State is never changed when one is returned.
type AlignmentError struct {
	Kind      Kind
	Secondary FrameID
	Primary   FrameID
	Err       error
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("could not link %s reference of frame %d to frame %d: %v", e.Kind, e.Secondary, e.Primary, e.Err)
}

func (e *AlignmentError) Unwrap() error {
	return e.Err
}

func alignmentError(kind Kind, secondary, primary *Frame, err error) error {
	alignErr := &AlignmentError{Kind: kind, Err: err}
	if secondary != nil {
		alignErr.Secondary = secondary.id
	}
	if primary != nil {
		alignErr.Primary = primary.id
	}
	Logger().Warn("alignment failed", "kind", kind, "secondary", alignErr.Secondary, "primary", alignErr.Primary, "error", err)
	return alignErr
}

// PropagationFailure reports that a change on a primary frame could not be applied to one of its secondaries.
type PropagationFailure struct {
	Frame FrameID
	Err   error
}

func (f PropagationFailure) Error() string {
	return fmt.Sprintf("frame %d: %v", f.Frame, f.Err)
}
