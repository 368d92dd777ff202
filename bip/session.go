package bip

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// SessionState describes the connection state of an OBEX session.
type SessionState int32

// The different session states.
const (
	StateDisconnected SessionState = iota
	StateConnecting
	StateIdle
	StateBusy
	StateDisconnecting
)

// stateNames holds names of the different session states.
var stateNames = map[SessionState]string{
	StateDisconnected:  "disconnected",
	StateConnecting:    "connecting",
	StateIdle:          "idle",
	StateBusy:          "busy",
	StateDisconnecting: "disconnecting",
}

// String returns the name of the session state.
func (s SessionState) String() string {
	return stateNames[s]
}

// RequestKind describes the kind of a BIP request.
type RequestKind int

// The different request kinds.
const (
	RequestProperties RequestKind = iota
	RequestThumbnail
	RequestImage
)

// Request is one scheduled BIP GET operation.
type Request struct {
	// Kind holds the request kind.
	Kind RequestKind

	// Handle holds the remote image handle.
	Handle avrcp.CoverArtHandle

	// Encoding holds the negotiated encoding for RequestImage,
	// used to derive the output file extension.
	Encoding string

	// Descriptor holds the resolved image-descriptor document for
	// RequestImage.
	Descriptor []byte
}

// Result is the outcome of an executed request.
type Result struct {
	Request

	// Code holds the final OBEX response code.
	Code ResponseCode

	// Location holds the output file location for image and
	// thumbnail requests, empty on failure.
	Location avrcp.ArtLocation

	// Payload holds the response body for properties requests.
	Payload []byte
}

// SessionEventKind describes the kind of a session notification.
type SessionEventKind int

// The different session notification kinds.
const (
	SessionConnected SessionEventKind = iota
	SessionDisconnected
	SessionRequestDone
)

// SessionEvent is an asynchronous notification from the session worker.
type SessionEvent struct {
	Kind   SessionEventKind
	Result Result
}

// readBufferSize is the fixed buffer size used to drain GET responses.
const readBufferSize = 4096

// defaultConnectTimeout bounds the OBEX CONNECT handshake.
const defaultConnectTimeout = 10 * time.Second

// Session owns one OBEX client connection and serializes all requests
// through a single worker. At most one request is ever in flight.
type Session struct {
	client   Client
	cacheDir string
	log      *zap.Logger
	notify   func(SessionEvent)

	state       atomic.Int32
	interrupted atomic.Bool

	gate *semaphore.Weighted

	mu      sync.Mutex
	cond    *sync.Cond
	pending *Request
	stopped bool

	done chan struct{}
}

// NewSession returns a new Session over the provided OBEX client.
// Session events are delivered through notify from the worker
// goroutine.
func NewSession(client Client, cacheDir string, log *zap.Logger, notify func(SessionEvent)) *Session {
	s := &Session{
		client:   client,
		cacheDir: cacheDir,
		log:      log.Named("bip-session"),
		notify:   notify,
		gate:     semaphore.NewWeighted(1),
		done:     make(chan struct{}),
	}
	s.cond = sync.NewCond(&s.mu)

	return s
}

// Start spawns the session worker, which connects the OBEX session and
// then serves scheduled requests until stopped.
func (s *Session) Start() {
	go s.run()
}

// State returns the current session state.
func (s *Session) State() SessionState {
	return SessionState(s.state.Load())
}

// Schedule stores a request for the worker and wakes it. It returns
// false if a request is already in flight.
func (s *Session) Schedule(req Request) bool {
	if !s.gate.TryAcquire(1) {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		s.gate.Release(1)
		return false
	}

	s.pending = &req
	s.cond.Signal()

	return true
}

// Stop signals shutdown and interrupts the worker. It does not block;
// Done reports worker exit.
func (s *Session) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	s.cond.Signal()
	s.mu.Unlock()

	s.interrupted.Store(true)

	// Closing the transport aborts any in-flight GET; there is no
	// finer-grained cancellation.
	s.client.Disconnect()
}

// Done is closed once the worker has fully exited.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// run is the session worker loop.
func (s *Session) run() {
	defer close(s.done)

	// Once the worker exits, nothing consumes scheduled requests.
	defer func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
	}()

	if !s.connect() {
		return
	}

	for {
		req, ok := s.nextRequest()
		if !ok {
			break
		}

		s.state.Store(int32(StateBusy))
		result := s.execute(*req)
		s.state.Store(int32(StateIdle))
		s.gate.Release(1)

		s.notify(SessionEvent{Kind: SessionRequestDone, Result: result})

		if s.interrupted.Load() {
			break
		}
	}

	s.state.Store(int32(StateDisconnecting))
	s.client.Disconnect()
	s.state.Store(int32(StateDisconnected))

	s.notify(SessionEvent{Kind: SessionDisconnected})
}

// connect performs the OBEX handshake with the cover art responder
// target. Any failure falls back to the disconnected state.
func (s *Session) connect() bool {
	s.state.Store(int32(StateConnecting))

	ctx, cancel := context.WithTimeout(context.Background(), defaultConnectTimeout)
	defer cancel()

	code, err := s.client.Connect(ctx, CoverArtResponderUUID)
	if err != nil || !code.Succeeded() {
		s.log.Warn("obex connect failed",
			zap.Uint8("code", uint8(code)), zap.Error(err))

		s.state.Store(int32(StateDisconnected))
		s.notify(SessionEvent{Kind: SessionDisconnected})

		return false
	}

	s.state.Store(int32(StateIdle))
	s.notify(SessionEvent{Kind: SessionConnected})

	return true
}

// nextRequest blocks until a request is scheduled or the session is
// stopped.
func (s *Session) nextRequest() (*Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.pending == nil && !s.stopped {
		s.cond.Wait()
	}

	if s.stopped {
		return nil, false
	}

	req := s.pending
	s.pending = nil

	return req, true
}

// execute performs one GET operation. Any I/O error is fatal to the
// session: the interrupted flag is raised and the worker disconnects
// after delivering the failed result.
func (s *Session) execute(req Request) Result {
	result := Result{Request: req, Location: avrcp.LocationEmpty}

	headers := GetHeaders{Handle: string(req.Handle)}
	switch req.Kind {
	case RequestProperties:
		headers.Type = TypeImageProperties
	case RequestThumbnail:
		headers.Type = TypeLinkedThumbnail
	case RequestImage:
		headers.Type = TypeImage
		headers.Descriptor = req.Descriptor
	}

	body, code, err := s.client.Get(headers)
	result.Code = code
	if err != nil {
		s.log.Warn("obex get failed", zap.String("handle", string(req.Handle)), zap.Error(err))
		s.interrupted.Store(true)

		return result
	}

	// Failure responses carry no body reader. An interim continue
	// response carries one; the reader pulls the remaining chunks.
	if body == nil {
		return result
	}
	defer body.Close()

	switch req.Kind {
	case RequestProperties:
		payload, err := s.drain(body)
		if err != nil {
			s.interrupted.Store(true)
			result.Code = CodeNone

			return result
		}
		result.Payload = payload
		result.Code = CodeSuccess

	case RequestThumbnail, RequestImage:
		path := ThumbnailPath(s.cacheDir, req.Handle)
		if req.Kind == RequestImage {
			path = ImagePath(s.cacheDir, req.Handle, req.Encoding)
		}

		if err := s.stream(body, path); err != nil {
			s.log.Warn("obex response stream failed",
				zap.String("path", path), zap.Error(err))
			s.interrupted.Store(true)
			result.Code = CodeNone

			return result
		}
		result.Location = avrcp.ArtLocation(path)
		result.Code = CodeSuccess
	}

	return result
}

// drain reads the whole response body through the fixed-size buffer.
func (s *Session) drain(body io.Reader) ([]byte, error) {
	var payload []byte

	buf := make([]byte, readBufferSize)
	for {
		n, err := body.Read(buf)
		payload = append(payload, buf[:n]...)

		if err == io.EOF {
			return payload, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// stream copies the response body to the output file. Partial files
// are removed on failure.
func (s *Session) stream(body io.Reader, path string) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}

	out, err := os.Create(path)
	if err != nil {
		return err
	}

	buf := make([]byte, readBufferSize)
	if _, err := io.CopyBuffer(out, body, buf); err != nil {
		out.Close()
		os.Remove(path)

		return err
	}

	return out.Close()
}
