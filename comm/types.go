package comm

import "fmt"

const (
	headerQuery   = 0x83
	headerControl = 0x8C
	headerAnswer  = 0x70
	category      = 0x00

	// NoFilter is sent in unused query data bytes.
	NoFilter = 0xFF
)

type RequestKind int

// RequestKind values
const (
	Query RequestKind = iota
	Control
)

func (k RequestKind) String() string {
	switch k {
	case Query:
		return "query"
	case Control:
		return "control"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

type StatusCode int

// StatusCode values
const (
	Completed StatusCode = iota
	LimitOverMax
	LimitUnderMin
	CommandCanceled
	ParseError
	Unknown
)

// Status is the decoded answer byte of a response. Raw always holds the byte the
// device sent, so Unknown statuses can still be reported precisely.
type Status struct {
	Code StatusCode
	Raw  byte
}

// decodeStatus maps an answer byte using the table for the given request kind.
// 0x01 and 0x02 are only defined for control replies; query replies treat them
// as reserved.
func decodeStatus(kind RequestKind, raw byte) Status {
	switch {
	case raw == 0x00:
		return Status{Code: Completed, Raw: raw}
	case raw == 0x01 && kind == Control:
		return Status{Code: LimitOverMax, Raw: raw}
	case raw == 0x02 && kind == Control:
		return Status{Code: LimitUnderMin, Raw: raw}
	case raw == 0x03:
		return Status{Code: CommandCanceled, Raw: raw}
	case raw == 0x04:
		return Status{Code: ParseError, Raw: raw}
	default:
		return Status{Code: Unknown, Raw: raw}
	}
}

func (s Status) String() string {
	var text string
	switch s.Code {
	case Completed:
		text = "completed"
	case LimitOverMax:
		text = "control value exceeds upper limit"
	case LimitUnderMin:
		text = "control value exceeds lower limit"
	case CommandCanceled:
		text = "command canceled"
	case ParseError:
		text = "data format error"
	default:
		text = "unknown error"
	}
	return fmt.Sprintf("%s (0x%02x)", text, s.Raw)
}
