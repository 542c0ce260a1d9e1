package comm

import (
	"io"
)

func readFull(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, &IOError{Op: "read", Err: err}
	}
	return buf, nil
}

// ReadQueryResponse reads one answer to a query request and returns its return
// data. Abnormal answers carry no length byte: the third byte is the checksum.
func ReadQueryResponse(r io.Reader) ([]byte, error) {
	res, err := readFull(r, 3)
	if err != nil {
		return nil, err
	}
	if res[0] != headerAnswer {
		return nil, &FramingError{Reason: "unexpected header", Frame: res}
	}

	if status := decodeStatus(Query, res[1]); status.Code != Completed {
		if want := Checksum(res[:2]); res[2] != want {
			return nil, &ChecksumError{Got: res[2], Want: want}
		}
		return nil, &StatusError{Kind: Query, Status: status}
	}

	size := int(res[2])
	if size == 0 {
		return nil, &FramingError{Reason: "zero return data size", Frame: res}
	}
	rest, err := readFull(r, size)
	if err != nil {
		return nil, err
	}
	res = append(res, rest...)

	last := len(res) - 1
	if want := Checksum(res[:last]); res[last] != want {
		return nil, &ChecksumError{Got: res[last], Want: want}
	}
	return res[3:last], nil
}

// ReadControlResponse reads the fixed three byte answer to a control request.
// The checksum is verified before the status so a corrupted frame is never
// reported as a device rejection.
func ReadControlResponse(r io.Reader) error {
	res, err := readFull(r, 3)
	if err != nil {
		return err
	}
	if res[0] != headerAnswer {
		return &FramingError{Reason: "unexpected header", Frame: res}
	}
	if want := Checksum(res[:2]); res[2] != want {
		return &ChecksumError{Got: res[2], Want: want}
	}
	if status := decodeStatus(Control, res[1]); status.Code != Completed {
		return &StatusError{Kind: Control, Status: status}
	}
	return nil
}
