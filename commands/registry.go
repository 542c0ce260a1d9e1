// Package commands maps command names to protocol exchanges with the display.
//
// Every argument is validated when a call is prepared, so a command either fails
// before any byte is written or runs exactly one request/response exchange.
package commands

import (
	"fmt"
	"sort"
	"strings"

	"github.com/thiefmaster/braviactl/comm"
)

// Exchanger runs a single request/response exchange. *comm.Link implements it.
type Exchanger interface {
	Query(function, data1, data2 byte) ([]byte, error)
	Control(function byte, data ...byte) error
}

type Kind int

// Kind values
const (
	KindQuery Kind = iota
	KindControl
	KindList
)

// ArgParser turns raw string arguments into data bytes appended to
// Descriptor.Data.
type ArgParser func(args []string) ([]byte, error)

// Decoder turns the return data of a query into a printable value.
type Decoder func(data []byte) (interface{}, error)

type Descriptor struct {
	Name     string
	Help     string
	Kind     Kind
	Function byte
	// Data is sent ahead of any bytes produced by Args.
	Data   []byte
	Args   ArgParser
	Decode Decoder
	// Raw marks query commands whose function code and filters come from Args.
	Raw bool
}

// Profile carries device specific limits that are not part of the protocol.
type Profile struct {
	// SleepTimerValues lists the durations in minutes the unit accepts.
	SleepTimerValues []int
}

func DefaultProfile() Profile {
	return Profile{SleepTimerValues: []int{0, 15, 30, 45, 60, 90, 120}}
}

type Registry struct {
	byName map[string]*Descriptor
	names  []string
}

// New builds the fixed command table for the given device profile.
func New(profile Profile) *Registry {
	r := &Registry{byName: make(map[string]*Descriptor)}
	for _, d := range builtin(profile) {
		d := d
		if _, ok := r.byName[d.Name]; ok {
			panic(fmt.Sprintf("duplicate command %q", d.Name))
		}
		r.byName[d.Name] = &d
		r.names = append(r.names, d.Name)
	}
	sort.Strings(r.names)
	// older scripts call it "commands"
	r.byName["commands"] = r.byName["list_commands"]
	return r
}

func (r *Registry) Lookup(name string) (*Descriptor, bool) {
	d, ok := r.byName[strings.ToLower(name)]
	return d, ok
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// Call is a validated command ready to run.
type Call struct {
	desc     *Descriptor
	registry *Registry
	data     []byte
}

func (c Call) Name() string {
	return c.desc.Name
}

// NeedsLink reports whether running the call talks to the display.
func (c Call) NeedsLink() bool {
	return c.desc.Kind != KindList
}

// Prepare validates args for the named command without performing any I/O.
func (r *Registry) Prepare(name string, args []string) (Call, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return Call{}, &UnknownCommandError{Name: name}
	}
	data := append([]byte(nil), d.Data...)
	if d.Args == nil && len(args) > 0 {
		return Call{}, &ArgumentError{Command: d.Name, Reason: "takes no arguments"}
	}
	if d.Args != nil {
		extra, err := d.Args(args)
		if err != nil {
			return Call{}, err
		}
		data = append(data, extra...)
	}
	return Call{desc: d, registry: r, data: data}, nil
}

// Run performs the exchange. A nil value means the command has nothing to print.
func (c Call) Run(x Exchanger) (interface{}, error) {
	switch c.desc.Kind {
	case KindList:
		return c.registry.Names(), nil
	case KindControl:
		if err := x.Control(c.desc.Function, c.data...); err != nil {
			return nil, fmt.Errorf("%s: %w", c.desc.Name, err)
		}
		return nil, nil
	case KindQuery:
		function, data1, data2 := c.desc.Function, byte(comm.NoFilter), byte(comm.NoFilter)
		if c.desc.Raw {
			function, data1, data2 = c.data[0], c.data[1], c.data[2]
		} else if len(c.data) > 0 {
			data1 = c.data[0]
		}
		data, err := x.Query(function, data1, data2)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.desc.Name, err)
		}
		value, err := c.desc.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.desc.Name, err)
		}
		return value, nil
	default:
		panic(fmt.Sprintf("command %s has unhandled kind %d", c.desc.Name, c.desc.Kind))
	}
}

// Execute prepares and runs the named command.
func (r *Registry) Execute(x Exchanger, name string, args []string) (interface{}, error) {
	call, err := r.Prepare(name, args)
	if err != nil {
		return nil, err
	}
	return call.Run(x)
}

type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command: %s", e.Name)
}

// ArgumentError is returned when an argument fails its type, range or
// allow-list check. Nothing has been sent when it is returned.
type ArgumentError struct {
	Command string
	Reason  string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Reason)
}
