package commands

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseByte accepts a decimal number in the range 0-255.
func ParseByte(s string) (byte, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number between 0 and 255", s)
	}
	return byte(n), nil
}

// ParseSwitch accepts the usual spellings of on and off.
func ParseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "1", "true", "yes":
		return true, nil
	case "off", "0", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("%q is not one of on, off, 1, 0, true, false, yes, no", s)
}

func requireArgs(command, what string, args []string, n int) error {
	if len(args) < n {
		return &ArgumentError{Command: command, Reason: "no " + what + " provided"}
	}
	if len(args) > n {
		return &ArgumentError{Command: command, Reason: fmt.Sprintf("too many arguments: %s", strings.Join(args[n:], " "))}
	}
	return nil
}

// byteArg takes exactly one 0-255 argument.
func byteArg(command, what string) ArgParser {
	return func(args []string) ([]byte, error) {
		if err := requireArgs(command, what, args, 1); err != nil {
			return nil, err
		}
		v, err := ParseByte(args[0])
		if err != nil {
			return nil, &ArgumentError{Command: command, Reason: fmt.Sprintf("invalid value provided for %s: %v", what, err)}
		}
		return []byte{v}, nil
	}
}

func switchArg(command, what string) ArgParser {
	return func(args []string) ([]byte, error) {
		if err := requireArgs(command, what, args, 1); err != nil {
			return nil, err
		}
		on, err := ParseSwitch(args[0])
		if err != nil {
			return nil, &ArgumentError{Command: command, Reason: fmt.Sprintf("invalid value provided for %s: %v", what, err)}
		}
		if on {
			return []byte{0x01}, nil
		}
		return []byte{0x00}, nil
	}
}

// allowedArg takes one 0-255 argument that must be in allowed.
func allowedArg(command, what string, allowed []int) ArgParser {
	allowed = append([]int(nil), allowed...)
	parse := byteArg(command, what)
	return func(args []string) ([]byte, error) {
		data, err := parse(args)
		if err != nil {
			return nil, err
		}
		for _, v := range allowed {
			if int(data[0]) == v {
				return data, nil
			}
		}
		return nil, &ArgumentError{
			Command: command,
			Reason:  fmt.Sprintf("invalid value provided for %s; must be one of: %v", what, allowed),
		}
	}
}

// rawQueryArgs takes a function code and up to two filter bytes, returning
// exactly three bytes with missing filters set to 0xFF.
func rawQueryArgs(command string) ArgParser {
	return func(args []string) ([]byte, error) {
		if len(args) == 0 {
			return nil, &ArgumentError{Command: command, Reason: "no function code provided"}
		}
		if len(args) > 3 {
			return nil, &ArgumentError{Command: command, Reason: fmt.Sprintf("too many arguments: %s", strings.Join(args[3:], " "))}
		}
		data := []byte{0x00, 0xFF, 0xFF}
		for i, arg := range args {
			v, err := ParseByte(arg)
			if err != nil {
				return nil, &ArgumentError{Command: command, Reason: fmt.Sprintf("invalid value provided for byte %d: %v", i+1, err)}
			}
			data[i] = v
		}
		return data, nil
	}
}
