package comm

import (
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/tarm/serial"
)

const (
	DefaultBaud        = 9600
	DefaultReadTimeout = 2 * time.Second
)

type PortConfig struct {
	Name        string
	Baud        int
	ReadTimeout time.Duration
}

// OpenSerial opens the display's RS-232C port: 8 data bits, no parity, one
// stop bit, no flow control.
func OpenSerial(cfg PortConfig) (io.ReadWriteCloser, error) {
	if cfg.Baud == 0 {
		cfg.Baud = DefaultBaud
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	conn, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Name,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
		Size:        8,
		Parity:      serial.ParityNone,
		StopBits:    serial.Stop1,
	})
	if err != nil {
		return nil, fmt.Errorf("could not open serial port %s: %w", cfg.Name, err)
	}
	return conn, nil
}

// Link performs request/response exchanges over one duplex byte stream. It
// never opens, closes or configures the stream.
type Link struct {
	rw    io.ReadWriter
	trace *log.Logger
}

type LinkOption func(*Link)

// WithTrace logs every frame sent and received in hex.
func WithTrace(logger *log.Logger) LinkOption {
	return func(l *Link) {
		l.trace = logger
	}
}

func NewLink(rw io.ReadWriter, opts ...LinkOption) *Link {
	l := &Link{rw: rw}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Link) tracef(format string, args ...interface{}) {
	if l.trace != nil {
		l.trace.Printf(format, args...)
	}
}

// flusher is implemented by *serial.Port.
type flusher interface {
	Flush() error
}

// discard drops unread input so a late or partial reply cannot shift the
// next exchange out of alignment.
func (l *Link) discard() {
	f, ok := l.rw.(flusher)
	if !ok {
		return
	}
	if err := f.Flush(); err != nil {
		l.tracef("could not flush serial input: %v\n", err)
	}
}

// resync discards input after errors that leave the stream in an unknown
// position. A StatusError is a complete frame and needs nothing.
func (l *Link) resync(err error) {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		l.discard()
	}
}

func (l *Link) send(kind RequestKind, frame []byte) error {
	l.discard()
	l.tracef("sending %s packet: %x\n", kind, frame)
	if _, err := l.rw.Write(frame); err != nil {
		return &IOError{Op: "write", Err: err}
	}
	return nil
}

// Query sends a query request and returns the return data of the answer.
func (l *Link) Query(function, data1, data2 byte) ([]byte, error) {
	if err := l.send(Query, BuildQuery(function, data1, data2)); err != nil {
		return nil, err
	}
	data, err := ReadQueryResponse(l.rw)
	if err != nil {
		l.resync(err)
		l.tracef("query 0x%02x failed: %v\n", function, err)
		return nil, err
	}
	l.tracef("received return data: %x\n", data)
	return data, nil
}

// Control sends a control request and waits for the device to accept it.
func (l *Link) Control(function byte, data ...byte) error {
	if err := l.send(Control, BuildControl(function, data...)); err != nil {
		return err
	}
	if err := ReadControlResponse(l.rw); err != nil {
		l.resync(err)
		l.tracef("control 0x%02x failed: %v\n", function, err)
		return err
	}
	l.tracef("control 0x%02x completed\n", function)
	return nil
}
