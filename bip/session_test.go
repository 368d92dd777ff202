package bip

import (
	"bytes"
	"context"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/google/uuid"
)

// fakeClient is a scriptable OBEX client.
type fakeClient struct {
	mu          sync.Mutex
	connectCode ResponseCode
	gets        []GetHeaders
	getFunc     func(GetHeaders) (io.ReadCloser, ResponseCode, error)
	closed      bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connectCode: CodeSuccess,
		getFunc: func(GetHeaders) (io.ReadCloser, ResponseCode, error) {
			return io.NopCloser(bytes.NewReader([]byte("payload"))), CodeSuccess, nil
		},
	}
}

func (c *fakeClient) Connect(context.Context, uuid.UUID) (ResponseCode, error) {
	return c.connectCode, nil
}

func (c *fakeClient) Get(headers GetHeaders) (io.ReadCloser, ResponseCode, error) {
	c.mu.Lock()
	c.gets = append(c.gets, headers)
	fn := c.getFunc
	c.mu.Unlock()

	return fn(headers)
}

func (c *fakeClient) Disconnect() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	return nil
}

func (c *fakeClient) getRequests() []GetHeaders {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]GetHeaders(nil), c.gets...)
}

// waitEvent receives one session event or fails the test.
func waitEvent(t *testing.T, events <-chan SessionEvent) SessionEvent {
	t.Helper()

	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for a session event")
		return SessionEvent{}
	}
}

func TestSessionServesRequests(t *testing.T) {
	client := newFakeClient()
	events := make(chan SessionEvent, 16)

	session := NewSession(client, t.TempDir(), zap.NewNop(), func(ev SessionEvent) {
		events <- ev
	})
	session.Start()

	if ev := waitEvent(t, events); ev.Kind != SessionConnected {
		t.Fatalf("expected a connected event, got %d", ev.Kind)
	}
	if session.State() != StateIdle {
		t.Fatalf("expected an idle session, got %s", session.State())
	}

	if !session.Schedule(Request{Kind: RequestProperties, Handle: "1000001"}) {
		t.Fatal("expected the request to be scheduled")
	}

	ev := waitEvent(t, events)
	if ev.Kind != SessionRequestDone {
		t.Fatalf("expected a request-done event, got %d", ev.Kind)
	}
	if !ev.Result.Code.Succeeded() || string(ev.Result.Payload) != "payload" {
		t.Errorf("expected a drained payload, got %+v", ev.Result)
	}

	gets := client.getRequests()
	if len(gets) != 1 || gets[0].Type != TypeImageProperties || gets[0].Handle != "1000001" {
		t.Errorf("expected one properties request, got %+v", gets)
	}

	session.Stop()
	<-session.Done()

	if session.State() != StateDisconnected {
		t.Errorf("expected a disconnected session, got %s", session.State())
	}
}

func TestSessionConnectFailure(t *testing.T) {
	client := newFakeClient()
	client.connectCode = CodeForbidden

	events := make(chan SessionEvent, 16)
	session := NewSession(client, t.TempDir(), zap.NewNop(), func(ev SessionEvent) {
		events <- ev
	})
	session.Start()

	if ev := waitEvent(t, events); ev.Kind != SessionDisconnected {
		t.Fatalf("expected a disconnected event, got %d", ev.Kind)
	}

	<-session.Done()

	if session.Schedule(Request{Kind: RequestThumbnail, Handle: "1"}) {
		t.Error("expected scheduling on a dead session to fail")
	}
}

func TestSessionSingleInFlight(t *testing.T) {
	client := newFakeClient()
	release := make(chan struct{})
	entered := make(chan struct{}, 1)

	client.getFunc = func(GetHeaders) (io.ReadCloser, ResponseCode, error) {
		entered <- struct{}{}
		<-release

		return io.NopCloser(bytes.NewReader(nil)), CodeSuccess, nil
	}

	events := make(chan SessionEvent, 16)
	session := NewSession(client, t.TempDir(), zap.NewNop(), func(ev SessionEvent) {
		events <- ev
	})
	session.Start()

	waitEvent(t, events)

	if !session.Schedule(Request{Kind: RequestProperties, Handle: "1"}) {
		t.Fatal("expected the first request to be scheduled")
	}

	<-entered
	if session.Schedule(Request{Kind: RequestProperties, Handle: "2"}) {
		t.Error("expected scheduling during an in-flight request to fail")
	}
	if session.State() != StateBusy {
		t.Errorf("expected a busy session, got %s", session.State())
	}

	close(release)
	waitEvent(t, events)

	if !session.Schedule(Request{Kind: RequestProperties, Handle: "3"}) {
		t.Error("expected scheduling after completion to succeed")
	}

	waitEvent(t, events)
	session.Stop()
	<-session.Done()
}

func TestSessionStreamsThumbnail(t *testing.T) {
	dir := t.TempDir()

	client := newFakeClient()
	client.getFunc = func(GetHeaders) (io.ReadCloser, ResponseCode, error) {
		return io.NopCloser(bytes.NewReader([]byte("jpeg-bytes"))), CodeSuccess, nil
	}

	events := make(chan SessionEvent, 16)
	session := NewSession(client, dir, zap.NewNop(), func(ev SessionEvent) {
		events <- ev
	})
	session.Start()
	waitEvent(t, events)

	session.Schedule(Request{Kind: RequestThumbnail, Handle: "2000007"})

	ev := waitEvent(t, events)
	if ev.Result.Location != avrcp.ArtLocation(ThumbnailPath(dir, "2000007")) {
		t.Fatalf("expected the thumbnail cache path, got %q", ev.Result.Location)
	}

	data, err := os.ReadFile(string(ev.Result.Location))
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("expected the streamed file contents, got %q (%v)", data, err)
	}

	session.Stop()
	<-session.Done()
}
