package comm

// Checksum returns the low byte of the sum of b.
func Checksum(b []byte) byte {
	var sum byte
	for _, c := range b {
		sum += c
	}
	return sum
}

// BuildQuery returns a read request frame for the given function code.
func BuildQuery(function, data1, data2 byte) []byte {
	frame := []byte{headerQuery, category, function, data1, data2}
	return append(frame, Checksum(frame))
}

// BuildControl returns a write request frame. The length byte counts the data
// bytes plus the trailing checksum.
func BuildControl(function byte, data ...byte) []byte {
	frame := make([]byte, 0, len(data)+5)
	frame = append(frame, headerControl, category, function, byte(len(data)+1))
	frame = append(frame, data...)
	return append(frame, Checksum(frame))
}
