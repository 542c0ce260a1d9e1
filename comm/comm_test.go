package comm

import (
	"bytes"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
)

// fakePort replays a canned reply and records what was written.
type fakePort struct {
	reply   *bytes.Reader
	written bytes.Buffer
	failW   error
}

func newFakePort(reply ...byte) *fakePort {
	return &fakePort{reply: bytes.NewReader(reply)}
}

func (p *fakePort) Read(b []byte) (int, error) {
	return p.reply.Read(b)
}

func (p *fakePort) Write(b []byte) (int, error) {
	if p.failW != nil {
		return 0, p.failW
	}
	return p.written.Write(b)
}

func withChecksum(b ...byte) []byte {
	return append(b, Checksum(b))
}

func queryAnswer(payload ...byte) []byte {
	frame := append([]byte{headerAnswer, 0x00, byte(len(payload) + 1)}, payload...)
	return append(frame, Checksum(frame))
}

func TestChecksum(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want byte
	}{
		{name: "empty", in: nil, want: 0x00},
		{name: "single", in: []byte{0x83}, want: 0x83},
		{name: "wraps", in: []byte{0xFF, 0x02}, want: 0x01},
		{name: "query header", in: []byte{0x83, 0x00, 0x00, 0xFF, 0xFF}, want: 0x81},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Checksum(tt.in); got != tt.want {
				t.Fatalf("expected 0x%02x, got 0x%02x", tt.want, got)
			}
		})
	}
}

func TestChecksumConcatenation(t *testing.T) {
	a := []byte{0x90, 0xA0, 0x33}
	b := []byte{0xF0, 0x0F, 0x81}
	if got, want := Checksum(append(append([]byte{}, a...), b...)), Checksum(a)+Checksum(b); got != want {
		t.Fatalf("expected 0x%02x, got 0x%02x", want, got)
	}
}

func TestBuildQuery(t *testing.T) {
	frame := BuildQuery(0x02, NoFilter, NoFilter)
	want := []byte{0x83, 0x00, 0x02, 0xFF, 0xFF, 0x83}
	if !bytes.Equal(frame, want) {
		t.Fatalf("expected %x, got %x", want, frame)
	}
}

func TestBuildControlPowerOn(t *testing.T) {
	frame := BuildControl(0x00, 0x01)
	want := []byte{0x8C, 0x00, 0x00, 0x02, 0x01, 0x8F}
	if !bytes.Equal(frame, want) {
		t.Fatalf("expected %x, got %x", want, frame)
	}
}

func TestBuildControlNoData(t *testing.T) {
	frame := BuildControl(0x06)
	want := []byte{0x8C, 0x00, 0x06, 0x01, 0x93}
	if !bytes.Equal(frame, want) {
		t.Fatalf("expected %x, got %x", want, frame)
	}
}

func TestBuiltFramesEndWithChecksum(t *testing.T) {
	frames := [][]byte{
		BuildQuery(0x00, NoFilter, NoFilter),
		BuildQuery(0x50, 0x01, NoFilter),
		BuildControl(0x05, 0x01, 0xFF),
		BuildControl(0x0C, 0x01, 120),
		BuildControl(0x0D),
	}
	for _, frame := range frames {
		last := len(frame) - 1
		if frame[last] != Checksum(frame[:last]) {
			t.Fatalf("frame %x does not end with its checksum", frame)
		}
	}
}

func TestReadQueryResponseRoundTrip(t *testing.T) {
	payloads := [][]byte{
		{0x01},
		{0x01, 0x0C},
		{0x04, 0x01},
		{0xFF, 0xFF, 0xFF, 0xFF},
	}
	for _, payload := range payloads {
		got, err := ReadQueryResponse(bytes.NewReader(queryAnswer(payload...)))
		if err != nil {
			t.Fatalf("read %x: %v", payload, err)
		}
		if !bytes.Equal(got, payload) {
			t.Fatalf("expected %x, got %x", payload, got)
		}
	}
}

func TestReadQueryResponseAbnormal(t *testing.T) {
	tests := []struct {
		name string
		raw  byte
		want StatusCode
	}{
		{name: "canceled", raw: 0x03, want: CommandCanceled},
		{name: "parse error", raw: 0x04, want: ParseError},
		{name: "reserved upper", raw: 0x01, want: Unknown},
		{name: "reserved lower", raw: 0x02, want: Unknown},
		{name: "undefined", raw: 0x2A, want: Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadQueryResponse(bytes.NewReader(withChecksum(0x70, tt.raw)))
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.Kind != Query || statusErr.Status.Code != tt.want || statusErr.Status.Raw != tt.raw {
				t.Fatalf("unexpected status: %+v", statusErr)
			}
		})
	}
}

func TestReadQueryResponseAbnormalBadChecksum(t *testing.T) {
	_, err := ReadQueryResponse(bytes.NewReader([]byte{0x70, 0x03, 0x00}))
	var sumErr *ChecksumError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	if sumErr.Got != 0x00 || sumErr.Want != 0x73 {
		t.Fatalf("unexpected checksum error: %+v", sumErr)
	}
}

func TestReadQueryResponseBadChecksum(t *testing.T) {
	frame := queryAnswer(0x01)
	frame[len(frame)-1]++
	_, err := ReadQueryResponse(bytes.NewReader(frame))
	var sumErr *ChecksumError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
}

func TestReadQueryResponseZeroSize(t *testing.T) {
	_, err := ReadQueryResponse(bytes.NewReader([]byte{0x70, 0x00, 0x00}))
	var frameErr *FramingError
	if !errors.As(err, &frameErr) {
		t.Fatalf("expected FramingError, got %v", err)
	}
}

func TestReadQueryResponseShort(t *testing.T) {
	_, err := ReadQueryResponse(bytes.NewReader([]byte{0x70, 0x00, 0x03, 0x01}))
	var ioErr *IOError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IOError, got %v", err)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected wrapped ErrUnexpectedEOF, got %v", err)
	}
}

func TestReadResponseBadHeader(t *testing.T) {
	// 0x71 + 0x00 sums to 0x71, so the checksum byte would be valid if checked.
	frame := []byte{0x71, 0x00, 0x71}
	_, err := ReadQueryResponse(bytes.NewReader(frame))
	var frameErr *FramingError
	if !errors.As(err, &frameErr) {
		t.Fatalf("query: expected FramingError, got %v", err)
	}
	err = ReadControlResponse(bytes.NewReader([]byte{0x71, 0x00, 0x00}))
	if !errors.As(err, &frameErr) {
		t.Fatalf("control: expected FramingError, got %v", err)
	}
}

func TestReadControlResponse(t *testing.T) {
	if err := ReadControlResponse(bytes.NewReader(withChecksum(0x70, 0x00))); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
}

func TestReadControlResponseStatus(t *testing.T) {
	tests := []struct {
		name string
		raw  byte
		want StatusCode
	}{
		{name: "over max", raw: 0x01, want: LimitOverMax},
		{name: "under min", raw: 0x02, want: LimitUnderMin},
		{name: "canceled", raw: 0x03, want: CommandCanceled},
		{name: "parse error", raw: 0x04, want: ParseError},
		{name: "unknown", raw: 0x99, want: Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadControlResponse(bytes.NewReader(withChecksum(0x70, tt.raw)))
			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("expected StatusError, got %v", err)
			}
			if statusErr.Kind != Control || statusErr.Status.Code != tt.want || statusErr.Status.Raw != tt.raw {
				t.Fatalf("unexpected status: %+v", statusErr)
			}
		})
	}
}

func TestReadControlResponseChecksumBeforeStatus(t *testing.T) {
	err := ReadControlResponse(bytes.NewReader([]byte{0x70, 0x02, 0x00}))
	var sumErr *ChecksumError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Fatalf("checksum failure reported as status: %v", err)
	}
}

func TestStatusErrorMessage(t *testing.T) {
	err := &StatusError{Kind: Control, Status: decodeStatus(Control, 0x02)}
	want := "control request failed: control value exceeds lower limit (0x02)"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestLinkControl(t *testing.T) {
	port := newFakePort(withChecksum(0x70, 0x00)...)
	link := NewLink(port)
	if err := link.Control(0x05, 0x01, 0x0C); err != nil {
		t.Fatalf("control: %v", err)
	}
	if want := BuildControl(0x05, 0x01, 0x0C); !bytes.Equal(port.written.Bytes(), want) {
		t.Fatalf("expected %x written, got %x", want, port.written.Bytes())
	}
}

func TestLinkQueryTrace(t *testing.T) {
	port := newFakePort(queryAnswer(0x01)...)
	var out strings.Builder
	link := NewLink(port, WithTrace(log.New(&out, "", 0)))
	data, err := link.Query(0x00, NoFilter, NoFilter)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if !bytes.Equal(data, []byte{0x01}) {
		t.Fatalf("expected 01, got %x", data)
	}
	if !strings.Contains(out.String(), "sending query packet: 830000ffff81") {
		t.Fatalf("missing send trace: %q", out.String())
	}
}

func TestLinkWriteFailure(t *testing.T) {
	port := newFakePort()
	port.failW = errors.New("device gone")
	err := NewLink(port).Control(0x00, 0x01)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || ioErr.Op != "write" {
		t.Fatalf("expected write IOError, got %v", err)
	}
}

var errTimeout = errors.New("timeout")

// exchangeStep is what the device sends after one request: reply arrives at
// once, late arrives only after the reader has timed out.
type exchangeStep struct {
	reply []byte
	late  []byte
}

// stepPort releases one exchangeStep per write and supports Flush like
// *serial.Port.
type stepPort struct {
	steps   []exchangeStep
	cur     int
	pending []byte
	flushes int
}

func (p *stepPort) Write(b []byte) (int, error) {
	if p.cur < len(p.steps) {
		p.pending = append(p.pending, p.steps[p.cur].reply...)
	}
	p.cur++
	return len(b), nil
}

func (p *stepPort) Read(b []byte) (int, error) {
	if len(p.pending) == 0 {
		if i := p.cur - 1; i >= 0 && i < len(p.steps) && p.steps[i].late != nil {
			p.pending = append(p.pending, p.steps[i].late...)
			p.steps[i].late = nil
		}
		return 0, errTimeout
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

func (p *stepPort) Flush() error {
	p.flushes++
	p.pending = nil
	return nil
}

func TestLinkResyncsAfterLateReply(t *testing.T) {
	ok := withChecksum(0x70, 0x00)
	port := &stepPort{steps: []exchangeStep{
		{reply: []byte{0x70, 0x00}, late: []byte{0x70}},
		{reply: ok},
		{reply: ok},
	}}
	link := NewLink(port)

	err := link.Control(0x06, 0x00)
	var ioErr *IOError
	if !errors.As(err, &ioErr) || !errors.Is(err, errTimeout) {
		t.Fatalf("exchange 0: expected timeout IOError, got %v", err)
	}
	for i := 1; i <= 2; i++ {
		if err := link.Control(0x06, 0x00); err != nil {
			t.Fatalf("exchange %d: expected success, got %v", i, err)
		}
	}
}

func TestLinkResyncsAfterChecksumError(t *testing.T) {
	port := &stepPort{steps: []exchangeStep{
		{reply: []byte{0x70, 0x00, 0x03, 0x01, 0x00, 0x00, 0x55, 0x55}},
		{reply: queryAnswer(0x01, 0x14)},
	}}
	link := NewLink(port)

	_, err := link.Query(0x05, NoFilter, NoFilter)
	var sumErr *ChecksumError
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected ChecksumError, got %v", err)
	}
	data, err := link.Query(0x05, NoFilter, NoFilter)
	if err != nil {
		t.Fatalf("second query: %v", err)
	}
	if !bytes.Equal(data, []byte{0x01, 0x14}) {
		t.Fatalf("expected 0114, got %x", data)
	}
}

func TestLinkKeepsInputAfterStatusError(t *testing.T) {
	port := &stepPort{steps: []exchangeStep{{reply: withChecksum(0x70, 0x03)}}}
	err := NewLink(port).Control(0x00, 0x01)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if port.flushes != 1 {
		t.Fatalf("expected only the pre-write flush, got %d", port.flushes)
	}
}
