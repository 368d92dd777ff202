package bip

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// EventKind describes the kind of an initiator notification.
type EventKind int

// The different initiator notification kinds.
const (
	EventConnected EventKind = iota
	EventDisconnected
	EventThumbnailFetched
	EventImageFetched
)

// Event is an asynchronous notification delivered to the controller.
// A fetch event with an empty location is a failed fetch.
type Event struct {
	Kind     EventKind
	Handle   avrcp.CoverArtHandle
	Location avrcp.ArtLocation
}

// fetch is one application-level cover art request.
type fetch struct {
	thumbnail bool
	handle    avrcp.CoverArtHandle
	encoding  string
	pixel     string
	maxSize   int64
}

// Initiator is the per-device cover art façade over one OBEX session.
// At most one fetch is processed at a time; a newer fetch arriving
// while one is active replaces any waiting fetch, it never queues.
type Initiator struct {
	session  *Session
	cacheDir string
	log      *zap.Logger
	notify   func(Event)

	mu         sync.Mutex
	processing bool
	active     *fetch
	pending    *fetch
}

// NewInitiator returns a new Initiator over the provided OBEX client.
// Initiator events are delivered through notify from the session
// worker goroutine.
func NewInitiator(client Client, cacheDir string, log *zap.Logger, notify func(Event)) *Initiator {
	i := &Initiator{
		cacheDir: cacheDir,
		log:      log.Named("bip"),
		notify:   notify,
	}
	i.session = NewSession(client, cacheDir, log, i.onSessionEvent)

	return i
}

// Connect starts the OBEX session worker.
func (i *Initiator) Connect() {
	i.session.Start()
}

// Disconnect stops the OBEX session worker without blocking the
// caller.
func (i *Initiator) Disconnect() {
	i.session.Stop()
}

// Done is closed once the session worker has fully exited.
func (i *Initiator) Done() <-chan struct{} {
	return i.session.Done()
}

// State returns the state of the underlying OBEX session.
func (i *Initiator) State() SessionState {
	return i.session.State()
}

// Connected reports whether the OBEX session is usable.
func (i *Initiator) Connected() bool {
	state := i.session.State()

	return state == StateIdle || state == StateBusy
}

// FetchLinkedThumbnail fetches the linked thumbnail for a handle,
// serving it from the disk cache when possible.
func (i *Initiator) FetchLinkedThumbnail(handle avrcp.CoverArtHandle) {
	if location, ok := lookupCached(i.cacheDir, thumbPrefix, handle); ok {
		i.notify(Event{Kind: EventThumbnailFetched, Handle: handle, Location: location})
		return
	}

	i.submit(fetch{thumbnail: true, handle: handle})
}

// FetchImage fetches a full image for a handle with the provided
// negotiation parameters, serving it from the disk cache when
// possible. The encoding and dimensions are resolved against the
// remote's image properties before the binary fetch.
func (i *Initiator) FetchImage(handle avrcp.CoverArtHandle, encoding string, width, height int, maxSize int64) {
	if location, ok := lookupCached(i.cacheDir, imagePrefix, handle); ok {
		i.notify(Event{Kind: EventImageFetched, Handle: handle, Location: location})
		return
	}

	i.submit(fetch{
		handle:   handle,
		encoding: encoding,
		pixel:    fmt.Sprintf("%d*%d", width, height),
		maxSize:  maxSize,
	})
}

// submit starts a fetch, or parks it in the single pending slot if one
// is already being processed. A newer fetch overwrites the slot.
func (i *Initiator) submit(f fetch) {
	i.mu.Lock()

	if i.processing {
		i.pending = &f
		i.mu.Unlock()

		return
	}

	i.processing = true
	i.active = &f
	i.mu.Unlock()

	i.start(f)
}

// start issues the first session request of a fetch.
func (i *Initiator) start(f fetch) {
	state := i.session.State()
	if state == StateDisconnected || state == StateDisconnecting {
		i.finish(f, avrcp.LocationEmpty)
		return
	}

	req := Request{Kind: RequestThumbnail, Handle: f.handle}
	if !f.thumbnail {
		req.Kind = RequestProperties
	}

	if !i.session.Schedule(req) {
		i.finish(f, avrcp.LocationEmpty)
	}
}

// finish completes the active fetch, notifies its outcome and starts
// any parked fetch.
func (i *Initiator) finish(f fetch, location avrcp.ArtLocation) {
	i.mu.Lock()
	i.active = nil
	i.processing = false

	next := i.pending
	i.pending = nil
	if next != nil {
		i.processing = true
		i.active = next
	}
	i.mu.Unlock()

	kind := EventImageFetched
	if f.thumbnail {
		kind = EventThumbnailFetched
	}
	i.notify(Event{Kind: kind, Handle: f.handle, Location: location})

	if next != nil {
		i.start(*next)
	}
}

// onSessionEvent advances the fetch pipeline on session notifications.
func (i *Initiator) onSessionEvent(ev SessionEvent) {
	switch ev.Kind {
	case SessionConnected:
		i.notify(Event{Kind: EventConnected})

	case SessionDisconnected:
		i.failAll()
		i.notify(Event{Kind: EventDisconnected})

	case SessionRequestDone:
		i.onRequestDone(ev.Result)
	}
}

// onRequestDone handles the completion of one session request for the
// active fetch.
func (i *Initiator) onRequestDone(result Result) {
	i.mu.Lock()
	active := i.active
	i.mu.Unlock()

	if active == nil {
		return
	}

	switch result.Kind {
	case RequestProperties:
		if !result.Code.Succeeded() {
			i.finish(*active, avrcp.LocationEmpty)
			return
		}

		i.resolveAndFetch(*active, result.Payload)

	case RequestThumbnail, RequestImage:
		i.finish(*active, result.Location)
	}
}

// resolveAndFetch resolves the remote image properties against the
// active fetch's negotiation parameters and issues the binary GET.
// Resolution failure surfaces as a failed fetch, never as a retry.
func (i *Initiator) resolveAndFetch(f fetch, payload []byte) {
	props, err := ParseImageProperties(payload)
	if err != nil {
		i.log.Warn("bad image-properties payload",
			zap.String("handle", string(f.handle)), zap.Error(err))
		i.finish(f, avrcp.LocationEmpty)

		return
	}

	descriptor, err := ResolveDescriptor(f.encoding, f.pixel, props)
	if err != nil {
		i.log.Warn("image descriptor resolution failed",
			zap.String("handle", string(f.handle)), zap.Error(err))
		i.finish(f, avrcp.LocationEmpty)

		return
	}

	if f.maxSize > 0 && (descriptor.Image.MaxSize == 0 || descriptor.Image.MaxSize > f.maxSize) {
		descriptor.Image.MaxSize = f.maxSize
	}

	encoded, err := descriptor.Encode()
	if err != nil {
		i.finish(f, avrcp.LocationEmpty)
		return
	}

	ok := i.session.Schedule(Request{
		Kind:       RequestImage,
		Handle:     f.handle,
		Encoding:   descriptor.Image.Encoding,
		Descriptor: encoded,
	})
	if !ok {
		i.finish(f, avrcp.LocationEmpty)
	}
}

// failAll fails the active and parked fetches after a session loss.
func (i *Initiator) failAll() {
	i.mu.Lock()
	active, pending := i.active, i.pending
	i.active, i.pending = nil, nil
	i.processing = false
	i.mu.Unlock()

	for _, f := range []*fetch{active, pending} {
		if f == nil {
			continue
		}

		kind := EventImageFetched
		if f.thumbnail {
			kind = EventThumbnailFetched
		}
		i.notify(Event{Kind: kind, Handle: f.handle, Location: avrcp.LocationEmpty})
	}
}
