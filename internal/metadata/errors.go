package metadata

import "errors"

var (
	// ErrMalformedMetadata indicates the payload is missing a required field
	// for which no reasonable default exists.
	ErrMalformedMetadata = errors.New("malformed metadata")
	// ErrUnresolvableID indicates a video id could not be derived from the
	// payload's url or thumbnail fields.
	ErrUnresolvableID = errors.New("unresolvable video id")
)
