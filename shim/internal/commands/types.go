package commands

import (
	"strings"
	"time"

	"github.com/ugorji/go/codec"

	"github.com/bluetuith-org/avrcp-controller/api/errorkinds"
	"github.com/bluetuith-org/avrcp-controller/shim/internal/serde"
)

// CommandReplyTimeout is the default timeout to stop waiting for a
// command's response from the daemon.
const CommandReplyTimeout = 10 * time.Second

type (
	// ExecuteFunc describes an external function that is used to
	// execute the command.
	ExecuteFunc func(params []string) (chan CommandResponse, error)

	// OptionMap describes a map of options to a command.
	OptionMap = map[Option]string

	// NoResult describes an empty result.
	NoResult = struct{}

	// RequestID describes a unique ID that is attached to a request
	// by the client to track the status of the invoked command.
	RequestID int64
)

// Command describes an entire command and its options. T is the
// return value type of the command; a Command[NoResult] only ever
// returns errors.
type Command[T any] struct {
	cmd    string
	optmap OptionMap
}

// CommandResponse is the raw response for an invoked command sent
// from the daemon.
type CommandResponse struct {
	Status string `json:"status"`

	RequestId RequestID    `json:"request_id,omitempty"`
	Error     CommandError `json:"error"`
	Data      codec.Raw    `json:"data"`
}

// CommandError describes an error that occurred while invoking the
// command, as sent from the daemon.
type CommandError struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Error returns a string representation of the underlying error.
func (c CommandError) Error() string {
	if c.Description == "" {
		return c.Name + ": no information is provided for this error"
	}

	return c.Name + ": " + c.Description
}

// String returns a string representation of a command and its options.
func (c *Command[T]) String() string {
	sb := strings.Builder{}
	sb.Grow(len(c.cmd) + (len(c.optmap) * 2))

	sb.WriteString(c.cmd)
	for param, value := range c.optmap {
		sb.WriteString(" ")
		sb.WriteString(string(param))
		sb.WriteString(" ")
		sb.WriteString(value)
	}

	return sb.String()
}

// Slice returns the command words followed by its option-value pairs.
// Option values are kept as single elements, so values with spaces
// survive the wire encoding.
func (c *Command[T]) Slice() []string {
	parts := strings.Split(c.cmd, " ")
	for param, value := range c.optmap {
		parts = append(parts, string(param), value)
	}

	return parts
}

// WithOption appends a single option type and value to the command's
// option map.
func (c *Command[T]) WithOption(opt Option, value string) *Command[T] {
	if c.optmap == nil {
		c.optmap = make(OptionMap)
	}

	c.optmap[opt] = value

	return c
}

// WithOptions provides a function to append multiple option-value
// types to the command's option map.
func (c *Command[T]) WithOptions(fn func(OptionMap)) *Command[T] {
	if c.optmap == nil {
		c.optmap = make(OptionMap)
	}

	fn(c.optmap)

	return c
}

// ExecuteWith invokes a command on the daemon, and listens for and
// returns the result of the command invocation.
func (c *Command[T]) ExecuteWith(fn ExecuteFunc) (T, error) {
	var result T

	responseChan, commandErr := fn(c.Slice())
	if commandErr != nil {
		return result, commandErr
	}

	select {
	case response, ok := <-responseChan:
		if !ok {
			return result, errorkinds.ErrSessionStop
		}

		if response.Status == "error" {
			return result, response.Error
		}

		switch any(result).(type) {
		case NoResult:
			return result, nil
		}

		return result, serde.Unmarshal(response.Data, &result)

	case <-time.After(CommandReplyTimeout):
		return result, errorkinds.ErrMethodTimeout
	}
}
