// Package shim connects to the native AVRCP daemon over its JSON-lines
// unix socket. It implements the controller's native transport surface
// and feeds decoded daemon events back into the controller.
package shim

import (
	"bufio"
	"context"
	"net"
	"os"
	"path"
	"sync"
	"sync/atomic"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fctx"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/puzpuzpuz/xsync/v3"
	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/api/errorkinds"
	"github.com/bluetuith-org/avrcp-controller/bip"
	"github.com/bluetuith-org/avrcp-controller/native"
	"github.com/bluetuith-org/avrcp-controller/shim/internal/commands"
	"github.com/bluetuith-org/avrcp-controller/shim/internal/events"
	"github.com/bluetuith-org/avrcp-controller/shim/internal/serde"
)

const socketName = "avrcpd.sock"

// Session describes a connected session with a running AVRCP daemon.
// It implements native.Transport; daemon events are posted to the
// provided sink in arrival order.
type Session struct {
	sink native.EventSink
	log  *zap.Logger

	conn net.Conn

	sessionClosed atomic.Bool
	cancel        context.CancelFunc

	id         *xsync.Counter
	requestMap *xsync.MapOf[int64, chan commands.CommandResponse]

	sync.Mutex
}

// NewSession returns an unstarted daemon session. Callbacks are
// delivered to the sink once Start succeeds.
func NewSession(sink native.EventSink, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}

	return &Session{
		sink: sink,
		log:  log.Named("shim"),
	}
}

// Start connects to the daemon's socket and starts the listener. With
// an empty socket path the daemon's default socket under the user
// cache directory is used.
func (s *Session) Start(socketPath string) error {
	if socketPath == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			return fault.Wrap(err,
				fctx.With(context.Background(), "error_at", "socket-dir"),
				ftag.With(ftag.Internal),
				fmsg.With("Cannot find socket directory"),
			)
		}

		socketPath = path.Join(dir, "avrcpd", socketName)
	}

	ctx := s.reset()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		s.sessionClosed.Store(true)
		s.cancel()

		return fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "listener-shim"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot connect to the daemon socket"),
		)
	}
	s.conn = conn

	go s.listen(ctx)

	version, err := commands.GetDaemonVersion().ExecuteWith(s.executor)
	if err != nil {
		s.Stop()

		return fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "shim-version"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot get the daemon version"),
		)
	}

	s.log.Info("daemon session started", zap.String("version", version))

	return nil
}

// Stop closes the socket and stops the listener.
func (s *Session) Stop() error {
	if s.sessionClosed.Swap(true) {
		return errorkinds.ErrSessionNotExist
	}

	s.Lock()
	defer s.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	var err error
	if s.conn != nil {
		err = s.conn.Close()
	}

	if s.requestMap != nil {
		s.requestMap.Range(func(id int64, replyChan chan commands.CommandResponse) bool {
			s.requestMap.Delete(id)
			close(replyChan)

			return true
		})
	}

	return err
}

// reset initializes all session internals for a new connection.
func (s *Session) reset() context.Context {
	s.Lock()
	defer s.Unlock()

	s.sessionClosed.Store(false)

	s.id = xsync.NewCounter()
	s.requestMap = xsync.NewMapOf[int64, chan commands.CommandResponse]()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	return ctx
}

// listen reads JSON lines off the socket, replying to tracked requests
// and decoding server events. Events are posted to the sink from this
// goroutine only, which preserves their arrival order.
func (s *Session) listen(ctx context.Context) {
	sendData := func(c chan commands.CommandResponse, m commands.CommandResponse) {
		select {
		case <-ctx.Done():
			close(c)
		case c <- m:
			close(c)
		default:
		}
	}

	scanner := bufio.NewScanner(s.conn)
	scanner.Split(bufio.ScanLines)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var response struct {
			commands.CommandResponse
			events.ServerEvent
		}

		if err := serde.Unmarshal(scanner.Bytes(), &response); err != nil {
			s.log.Warn("cannot decode daemon message", zap.Error(err))
			continue
		}

		if response.EventId > 0 {
			s.handleListenerEvent(response.ServerEvent)
			continue
		}

		replyChan, ok := s.requestMap.LoadAndDelete(int64(response.RequestId))
		if ok {
			sendData(replyChan, response.CommandResponse)
		}
	}

	s.handleListenerError(scanner.Err())
}

// handleListenerEvent decodes one server event and posts it.
func (s *Session) handleListenerEvent(ev events.ServerEvent) {
	callback, err := events.Decode(ev)
	if err != nil {
		s.log.Warn("cannot decode daemon event",
			zap.Uint("event_id", uint(ev.EventId)), zap.Error(err))
		return
	}

	s.sink.Post(ev.Address, callback)
}

// handleListenerError tears the session down after an unrecoverable
// listener error.
func (s *Session) handleListenerError(err error) {
	if s.sessionClosed.Load() {
		return
	}

	if err != nil {
		s.log.Error("daemon socket listener failed", zap.Error(err))
	}

	s.Stop()
}

// executor forms a request using the provided parameters, generates a
// unique request ID, and sends the request to the daemon. Responses to
// the request are routed back by the listener.
func (s *Session) executor(params []string) (chan commands.CommandResponse, error) {
	if s.sessionClosed.Load() {
		return nil, errorkinds.ErrSessionNotExist
	}

	s.Lock()
	defer s.Unlock()

	s.id.Inc()
	replyChan := make(chan commands.CommandResponse, 1)
	s.requestMap.Store(s.id.Value(), replyChan)

	command := map[string]any{
		"command":    params,
		"request_id": s.id.Value(),
	}

	commandBytes, err := serde.Marshal(command)
	if err != nil {
		return nil, err
	}

	if _, err = s.conn.Write(commandBytes); err != nil {
		return nil, err
	}
	if _, err = s.conn.Write([]byte("\n")); err != nil {
		return nil, err
	}

	return replyChan, nil
}

// DialObex asks the daemon to bridge the device's cover art OBEX
// channel onto a local socket and returns an OBEX client over it.
func (s *Session) DialObex(address string, psm uint16) (bip.Client, error) {
	socket, err := commands.OpenCoverArtSocket(address, psm).ExecuteWith(s.executor)
	if err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "coverart-socket"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot open the cover art transport socket"),
		)
	}

	conn, err := net.Dial("unix", socket.Path)
	if err != nil {
		return nil, fault.Wrap(err,
			fctx.With(context.Background(), "error_at", "coverart-socket"),
			ftag.With(ftag.Internal),
			fmsg.With("Cannot connect to the cover art transport socket"),
		)
	}

	return bip.NewClient(conn), nil
}

// The native.Transport surface.

// SendPassThroughCommand sends an AV/C pass-through key action.
func (s *Session) SendPassThroughCommand(address string, key avrcp.PassThroughKey, state avrcp.KeyState) error {
	_, err := commands.SendKey(address, key, state).ExecuteWith(s.executor)

	return err
}

// SendGroupNavigationCommand sends a group navigation key action.
func (s *Session) SendGroupNavigationCommand(address string, group avrcp.GroupNavigation, state avrcp.KeyState) error {
	_, err := commands.SendGroupNavigation(address, group, state).ExecuteWith(s.executor)

	return err
}

// SetPlayerApplicationSettingValues issues a player setting change.
func (s *Session) SetPlayerApplicationSettingValues(address string, attrs []avrcp.SettingAttribute, values []byte) error {
	_, err := commands.SetPlayerSettings(address, attrs, values).ExecuteWith(s.executor)

	return err
}

// InformBatteryStatus reports the local battery status.
func (s *Session) InformBatteryStatus(address string, status avrcp.BatteryStatus) error {
	_, err := commands.InformBatteryStatus(address, status).ExecuteWith(s.executor)

	return err
}

// SendAbsVolRsp acknowledges a set absolute volume command.
func (s *Session) SendAbsVolRsp(address string, volume byte, label byte) error {
	_, err := commands.AbsVolumeResponse(address, volume, label).ExecuteWith(s.executor)

	return err
}

// SendRegisterAbsVolRsp completes a volume notification registration.
func (s *Session) SendRegisterAbsVolRsp(address string, volume byte, label byte) error {
	_, err := commands.AbsVolumeNotification(address, volume, label).ExecuteWith(s.executor)

	return err
}

// GetElementAttributes requests the playing track's attributes.
func (s *Session) GetElementAttributes(address string, attrs []avrcp.MediaAttribute) error {
	_, err := commands.GetElementAttributes(address, attrs).ExecuteWith(s.executor)

	return err
}

// GetTotalNumberOfItems requests the item count of a scope.
func (s *Session) GetTotalNumberOfItems(address string, scope avrcp.Scope) error {
	_, err := commands.GetTotalItems(address, scope).ExecuteWith(s.executor)

	return err
}

// BrowseFolder requests one page of a scope listing.
func (s *Session) BrowseFolder(address string, scope avrcp.Scope, start, end uint32, attrs []avrcp.MediaAttribute) error {
	_, err := commands.BrowseFolder(address, scope, start, end, attrs).ExecuteWith(s.executor)

	return err
}

// SetBrowsedPlayer requests a browsed player change.
func (s *Session) SetBrowsedPlayer(address string, id avrcp.PlayerID) error {
	_, err := commands.SetBrowsedPlayer(address, id).ExecuteWith(s.executor)

	return err
}

// SetAddressedPlayer requests an addressed player change.
func (s *Session) SetAddressedPlayer(address string, id avrcp.PlayerID) error {
	_, err := commands.SetAddressedPlayer(address, id).ExecuteWith(s.executor)

	return err
}

// ChangePath navigates the VFS one level up or down.
func (s *Session) ChangePath(address string, uidCounter uint16, direction native.ChangeDirection, uid avrcp.ItemUID) error {
	_, err := commands.ChangePath(address, uidCounter, direction, uid).ExecuteWith(s.executor)

	return err
}

// AddToNowPlayingList appends an item to the now playing list.
func (s *Session) AddToNowPlayingList(address string, scope avrcp.Scope, uid avrcp.ItemUID, uidCounter uint16) error {
	_, err := commands.AddToNowPlaying(address, scope, uid, uidCounter).ExecuteWith(s.executor)

	return err
}

// PlayItem plays an item of a scope.
func (s *Session) PlayItem(address string, scope avrcp.Scope, uid avrcp.ItemUID, uidCounter uint16) error {
	_, err := commands.PlayItem(address, scope, uid, uidCounter).ExecuteWith(s.executor)

	return err
}

// Search issues a search on the browsed player.
func (s *Session) Search(address string, charset uint16, pattern string) error {
	_, err := commands.Search(address, charset, pattern).ExecuteWith(s.executor)

	return err
}
