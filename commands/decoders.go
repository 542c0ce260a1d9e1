package commands

import (
	"encoding/hex"
	"fmt"

	"github.com/thiefmaster/braviactl/comm"
)

func shortPayload(data []byte, need int) error {
	return &comm.FramingError{Reason: fmt.Sprintf("return data has %d bytes, need %d", len(data), need), Frame: data}
}

func byteAt(i int) Decoder {
	return func(data []byte) (interface{}, error) {
		if len(data) <= i {
			return nil, shortPayload(data, i+1)
		}
		return int(data[i]), nil
	}
}

func boolAt(i int) Decoder {
	return func(data []byte) (interface{}, error) {
		if len(data) <= i {
			return nil, shortPayload(data, i+1)
		}
		return data[i] != 0, nil
	}
}

func hexPayload(data []byte) (interface{}, error) {
	return hex.EncodeToString(data), nil
}

var inputLabels = map[byte]func(index byte) string{
	0x02: func(i byte) string { return fmt.Sprintf("SCART%d", i) },
	0x03: func(i byte) string { return fmt.Sprintf("Component%d", i) },
	0x04: func(i byte) string { return fmt.Sprintf("HDMI%d", i) },
	0x05: func(byte) string { return "PC" },
	0x06: func(byte) string { return "Shared" },
}

// InputLabel names an input from its source type and index. Unmapped source
// types produce "Unknown(0xNN)".
func InputLabel(source, index byte) string {
	label, ok := inputLabels[source]
	if !ok {
		return fmt.Sprintf("Unknown(0x%02x)", source)
	}
	return label(index)
}

func decodeInput(data []byte) (interface{}, error) {
	if len(data) < 2 {
		return nil, shortPayload(data, 2)
	}
	return InputLabel(data[0], data[1]), nil
}
