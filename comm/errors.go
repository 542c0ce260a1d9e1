package comm

import "fmt"

// FramingError means the reply did not have the shape of an answer frame.
type FramingError struct {
	Reason string
	Frame  []byte
}

func (e *FramingError) Error() string {
	return fmt.Sprintf("invalid response packet: %s: %x", e.Reason, e.Frame)
}

type ChecksumError struct {
	Got  byte
	Want byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("invalid response packet checksum: 0x%02x != 0x%02x", e.Got, e.Want)
}

// StatusError is returned when the exchange completed but the device rejected
// the request.
type StatusError struct {
	Kind   RequestKind
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s request failed: %s", e.Kind, e.Status)
}

type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("serial %s failed: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
