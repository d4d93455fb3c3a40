package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is wrapped by every error reporting bytes that can never
	// decode, whatever follows them.
	ErrMalformed = errors.New("protocol: malformed")

	// ErrIncomplete is matched by *IncompleteError.
	ErrIncomplete = errors.New("protocol: incomplete")

	// ErrShortBuffer is returned by Format when the destination is too small
	// to hold the whole encoding. Nothing useful has been written.
	ErrShortBuffer = errors.New("protocol: output buffer too small")

	// ErrInvalidValue is wrapped by encode errors for in-memory values the
	// wire cannot carry.
	ErrInvalidValue = errors.New("protocol: invalid value")
)

// Malformed input errors. All of them match ErrMalformed.
var (
	ErrBitStringTooLong     error = malformedError("bit string exceeds maximum length")
	ErrTooManyTupleItems    error = malformedError("tuple item count exceeds maximum")
	ErrTooManyParameters    error = malformedError("parameter count exceeds maximum")
	ErrParameterTooLong     error = malformedError("parameter value exceeds maximum length")
	ErrDuplicateParameter   error = malformedError("duplicate parameter")
	ErrMissingParameters    error = malformedError("empty setup parameter list")
	ErrMissingRole          error = malformedError("setup parameters carry no role")
	ErrInvalidRole          error = malformedError("invalid role")
	ErrInvalidFilterType    error = malformedError("invalid subscribe filter type")
	ErrInvalidContentExists error = malformedError("invalid content exists flag")
	ErrInvalidTrackStatus   error = malformedError("invalid track status code")
	ErrInvalidObjectStatus  error = malformedError("invalid object status")
	ErrTooManyVersions      error = malformedError("version count exceeds maximum")
	ErrVersionOverflow      error = malformedError("version exceeds 32 bits")
	ErrUnknownMessageType   error = malformedError("unknown message type")
	ErrUnknownStreamType    error = malformedError("unknown stream frame type")
)

// Encode errors. All of them match ErrInvalidValue.
var (
	ErrValueOutOfRange      error = invalidValueError("integer exceeds varint range")
	ErrBitStringTruncated   error = invalidValueError("bit string data shorter than its bit length")
	ErrBitStringOversize    error = invalidValueError("bit string exceeds maximum length")
	ErrTooManyItems         error = invalidValueError("item count exceeds maximum")
	ErrRoleOutOfRange       error = invalidValueError("role must be publisher, subscriber or pubsub")
	ErrStatusOutOfRange     error = invalidValueError("status code out of range")
	ErrContentFlagRange     error = invalidValueError("content exists flag must be 0 or 1")
	ErrFilterTypeOutOfRange error = invalidValueError("subscribe filter type out of range")
)

type malformedError string

func (e malformedError) Error() string { return "protocol: malformed: " + string(e) }

func (e malformedError) Unwrap() error { return ErrMalformed }

type invalidValueError string

func (e invalidValueError) Error() string { return "protocol: invalid value: " + string(e) }

func (e invalidValueError) Unwrap() error { return ErrInvalidValue }

// IncompleteError reports that the input ends before the value being
// decoded. Needed is a lower bound on the number of bytes that must be
// appended before retrying; it is always at least 1.
type IncompleteError struct {
	Needed int
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("protocol: incomplete: need at least %d more bytes", e.Needed)
}

// Is reports whether target is ErrIncomplete.
func (e *IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

func incomplete(n int) error {
	return &IncompleteError{Needed: n}
}

// Needed returns the byte shortfall carried by an incomplete error, or 0 if
// err does not report one.
func Needed(err error) int {
	var ie *IncompleteError
	if errors.As(err, &ie) {
		return ie.Needed
	}
	return 0
}

// IsMalformed reports whether err rejects its input permanently.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformed)
}
