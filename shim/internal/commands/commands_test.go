package commands

import (
	"errors"
	"testing"

	"github.com/ugorji/go/codec"

	"github.com/bluetuith-org/avrcp-controller/api/errorkinds"
	"github.com/bluetuith-org/avrcp-controller/native"
)

func TestCommandSlice(t *testing.T) {
	cmd := Search("AA:BB:CC:DD:EE:FF", native.CharsetUTF8, "led zeppelin")

	parts := cmd.Slice()
	if len(parts) < 2 || parts[0] != "browse" || parts[1] != "search" {
		t.Fatalf("expected the command words first, got %v", parts)
	}

	// Option values stay single elements, so patterns with spaces
	// survive the wire encoding.
	var pattern string
	for i := 2; i < len(parts)-1; i++ {
		if parts[i] == PatternOption.String() {
			pattern = parts[i+1]
		}
	}
	if pattern != "led zeppelin" {
		t.Errorf("expected the pattern as one element, got %q", pattern)
	}
}

func TestCommandString(t *testing.T) {
	cmd := GetTotalItems("AA:BB:CC:DD:EE:FF", 1)

	str := cmd.String()
	if len(str) < len("browse total-items") || str[:len("browse total-items")] != "browse total-items" {
		t.Errorf("expected the command words first, got %q", str)
	}
}

func TestExecuteWith(t *testing.T) {
	respond := func(response CommandResponse) ExecuteFunc {
		return func([]string) (chan CommandResponse, error) {
			ch := make(chan CommandResponse, 1)
			ch <- response

			return ch, nil
		}
	}

	t.Run("Success", func(t *testing.T) {
		cmd := InformBatteryStatus("AA:BB:CC:DD:EE:FF", 2)

		if _, err := cmd.ExecuteWith(respond(CommandResponse{Status: "ok"})); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
	})

	t.Run("DaemonError", func(t *testing.T) {
		cmd := InformBatteryStatus("AA:BB:CC:DD:EE:FF", 2)

		_, err := cmd.ExecuteWith(respond(CommandResponse{
			Status: "error",
			Error:  CommandError{Name: "InvalidAddress", Description: "no such device"},
		}))

		var cmdErr CommandError
		if !errors.As(err, &cmdErr) || cmdErr.Name != "InvalidAddress" {
			t.Fatalf("expected the daemon error, got %v", err)
		}
	})

	t.Run("Result", func(t *testing.T) {
		cmd := OpenCoverArtSocket("AA:BB:CC:DD:EE:FF", 0x1005)

		socket, err := cmd.ExecuteWith(respond(CommandResponse{
			Status: "ok",
			Data:   codec.Raw(`{"path":"/run/coverart.sock"}`),
		}))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if socket.Path != "/run/coverart.sock" {
			t.Errorf("expected the socket path, got %q", socket.Path)
		}
	})

	t.Run("SessionStopped", func(t *testing.T) {
		cmd := GetDaemonVersion()

		_, err := cmd.ExecuteWith(func([]string) (chan CommandResponse, error) {
			ch := make(chan CommandResponse)
			close(ch)

			return ch, nil
		})
		if !errors.Is(err, errorkinds.ErrSessionStop) {
			t.Fatalf("expected the session stop error, got %v", err)
		}
	})
}
