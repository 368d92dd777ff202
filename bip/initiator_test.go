package bip

import (
	"bytes"
	"io"
	"os"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

func waitInitiatorEvent(t *testing.T, events <-chan Event) Event {
	t.Helper()

	select {
	case ev := <-events:
		return ev
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for an initiator event")
		return Event{}
	}
}

func TestInitiatorThumbnailFetch(t *testing.T) {
	dir := t.TempDir()

	client := newFakeClient()
	client.getFunc = func(headers GetHeaders) (io.ReadCloser, ResponseCode, error) {
		if headers.Type != TypeLinkedThumbnail {
			t.Errorf("expected a linked thumbnail request, got %q", headers.Type)
		}

		return io.NopCloser(bytes.NewReader([]byte("thumb"))), CodeSuccess, nil
	}

	events := make(chan Event, 16)
	initiator := NewInitiator(client, dir, zap.NewNop(), func(ev Event) {
		events <- ev
	})
	initiator.Connect()

	if ev := waitInitiatorEvent(t, events); ev.Kind != EventConnected {
		t.Fatalf("expected a connected event, got %d", ev.Kind)
	}
	if !initiator.Connected() {
		t.Fatal("expected a usable session")
	}

	initiator.FetchLinkedThumbnail("1000001")

	ev := waitInitiatorEvent(t, events)
	if ev.Kind != EventThumbnailFetched || ev.Handle != "1000001" {
		t.Fatalf("expected a thumbnail event for 1000001, got %+v", ev)
	}
	if !ev.Location.Exists() {
		t.Fatal("expected a cached thumbnail location")
	}

	initiator.Disconnect()
	<-initiator.Done()
}

func TestInitiatorThumbnailCacheHit(t *testing.T) {
	dir := t.TempDir()

	cached := ThumbnailPath(dir, "1000001")
	if err := os.WriteFile(cached, []byte("thumb"), 0o644); err != nil {
		t.Fatal(err)
	}

	events := make(chan Event, 16)
	initiator := NewInitiator(newFakeClient(), dir, zap.NewNop(), func(ev Event) {
		events <- ev
	})

	// The session is never connected; the cache serves the fetch.
	initiator.FetchLinkedThumbnail("1000001")

	ev := waitInitiatorEvent(t, events)
	if ev.Kind != EventThumbnailFetched || ev.Location != avrcp.ArtLocation(cached) {
		t.Errorf("expected the cached location, got %+v", ev)
	}
}

func TestInitiatorImageFetchNegotiation(t *testing.T) {
	dir := t.TempDir()

	client := newFakeClient()
	client.getFunc = func(headers GetHeaders) (io.ReadCloser, ResponseCode, error) {
		switch headers.Type {
		case TypeImageProperties:
			return io.NopCloser(bytes.NewReader([]byte(propertiesPayload))), CodeSuccess, nil

		case TypeImage:
			if !bytes.Contains(headers.Descriptor, []byte(`encoding="JPEG"`)) {
				t.Errorf("expected a JPEG descriptor, got %s", headers.Descriptor)
			}

			return io.NopCloser(bytes.NewReader([]byte("image"))), CodeSuccess, nil
		}

		t.Errorf("unexpected request type %q", headers.Type)
		return nil, CodeBadRequest, nil
	}

	events := make(chan Event, 16)
	initiator := NewInitiator(client, dir, zap.NewNop(), func(ev Event) {
		events <- ev
	})
	initiator.Connect()
	waitInitiatorEvent(t, events)

	initiator.FetchImage("1000001", "JPEG", 500, 500, 200000)

	ev := waitInitiatorEvent(t, events)
	if ev.Kind != EventImageFetched || !ev.Location.Exists() {
		t.Fatalf("expected a fetched image, got %+v", ev)
	}

	data, err := os.ReadFile(string(ev.Location))
	if err != nil || string(data) != "image" {
		t.Errorf("expected the streamed image contents, got %q (%v)", data, err)
	}

	gets := client.getRequests()
	if len(gets) != 2 {
		t.Fatalf("expected a properties and an image request, got %d", len(gets))
	}

	initiator.Disconnect()
	<-initiator.Done()
}

func TestInitiatorNewestPendingWins(t *testing.T) {
	dir := t.TempDir()

	client := newFakeClient()
	release := make(chan struct{})
	entered := make(chan struct{}, 4)

	client.getFunc = func(GetHeaders) (io.ReadCloser, ResponseCode, error) {
		entered <- struct{}{}
		<-release

		return io.NopCloser(bytes.NewReader([]byte("thumb"))), CodeSuccess, nil
	}

	events := make(chan Event, 16)
	initiator := NewInitiator(client, dir, zap.NewNop(), func(ev Event) {
		events <- ev
	})
	initiator.Connect()
	waitInitiatorEvent(t, events)

	initiator.FetchLinkedThumbnail("1000001")
	<-entered

	// Both arrive while the first fetch is active; only the newest
	// survives in the pending slot.
	initiator.FetchLinkedThumbnail("2000002")
	initiator.FetchLinkedThumbnail("3000003")

	close(release)

	first := waitInitiatorEvent(t, events)
	if first.Handle != "1000001" {
		t.Fatalf("expected the active fetch to complete first, got %+v", first)
	}

	second := waitInitiatorEvent(t, events)
	if second.Handle != "3000003" {
		t.Fatalf("expected the newest pending fetch to run, got %+v", second)
	}

	initiator.Disconnect()
	<-initiator.Done()

	// Only the dropped fetch never produced an event.
	select {
	case ev := <-events:
		if ev.Kind == EventThumbnailFetched && ev.Handle == "2000002" {
			t.Errorf("expected the replaced fetch to be dropped, got %+v", ev)
		}
	default:
	}
}
