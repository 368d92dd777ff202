package controller

import (
	"strconv"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/api/eventbus"
	"github.com/bluetuith-org/avrcp-controller/bip"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// DefaultBrowseEndIndex is the default inclusive end index of a
// listing fetch.
const DefaultBrowseEndIndex uint32 = 0xFF

// ObexDialer opens an OBEX transport to a device's cover art responder
// on the provided L2CAP PSM.
type ObexDialer func(address string, psm uint16) (bip.Client, error)

// Config wires the state machine to its collaborators. All
// collaborators are injected; the state machine never looks anything
// up through process-wide state.
type Config struct {
	// Transport is the native AVRCP command surface.
	Transport native.Transport

	// Adapter is the external media browser collaborator.
	Adapter avrcp.BrowseServiceAdapter

	// Audio is the local system volume port, used by the absolute
	// volume handshake.
	Audio AudioPort

	// DialObex opens cover art OBEX transports. Optional; without
	// it cover art support is ignored.
	DialObex ObexDialer

	// Bus receives published controller events. Optional.
	Bus *eventbus.Bus

	// CacheDir is the cover art cache directory.
	CacheDir string

	Logger *zap.Logger
}

// StateMachine is the AVRCP controller orchestrator: one goroutine
// consumes all application requests, native callbacks and BIP
// notifications in strict arrival order, drives the per-device command
// queue and mutates the device model. No other goroutine ever touches
// the model.
type StateMachine struct {
	transport native.Transport
	adapter   avrcp.BrowseServiceAdapter
	audio     AudioPort
	dialObex  ObexDialer
	bus       *eventbus.Bus
	cacheDir  string
	log       *zap.Logger

	props avrcp.AppProperties

	devices map[string]*RemoteDevice

	inbox   chan event
	stop    chan struct{}
	done    chan struct{}
	started atomic.Bool
	stopped atomic.Bool
}

// New returns a new state machine. Call Start to begin processing.
func New(cfg Config) *StateMachine {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	return &StateMachine{
		transport: cfg.Transport,
		adapter:   cfg.Adapter,
		audio:     cfg.Audio,
		dialObex:  cfg.DialObex,
		bus:       cfg.Bus,
		cacheDir:  cfg.CacheDir,
		log:       log.Named("avrcp-controller"),
		devices:   make(map[string]*RemoteDevice),
		inbox:     make(chan event, 128),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start spawns the run loop.
func (s *StateMachine) Start() {
	if s.started.CompareAndSwap(false, true) {
		go s.run()
	}
}

// Stop shuts the run loop down, tearing down all connected devices.
// Stopping a machine that was never started returns immediately.
func (s *StateMachine) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stop)
	}

	if !s.started.Load() {
		return
	}

	<-s.done
}

// Post delivers one native stack callback. Implements
// native.EventSink.
func (s *StateMachine) Post(address string, callback native.Callback) {
	s.post(callbackEvent{address: address, callback: callback})
}

// post enqueues an event for the run loop.
func (s *StateMachine) post(ev event) {
	if s.stopped.Load() {
		return
	}

	select {
	case s.inbox <- ev:
	case <-s.stop:
	}
}

// run is the single-threaded event loop.
func (s *StateMachine) run() {
	defer close(s.done)

	for {
		select {
		case <-s.stop:
			for address := range s.devices {
				s.teardownDevice(address)
			}

			return

		case ev := <-s.inbox:
			s.handle(ev)
		}
	}
}

// handle dispatches one event variant.
func (s *StateMachine) handle(ev event) {
	switch ev := ev.(type) {
	case callbackEvent:
		s.handleCallback(ev.address, ev.callback)

	case bipEvent:
		s.handleBipEvent(ev.address, ev.ev)

	case localVolumeChanged:
		s.handleLocalVolumeChanged(ev.address, ev.volume)

	case reqSetAppProperties:
		s.props = ev.props

	case reqPassThrough:
		s.transport.SendPassThroughCommand(ev.address, ev.key, ev.state)

	case reqGroupNavigation:
		s.transport.SendGroupNavigationCommand(ev.address, ev.group, ev.state)

	case reqSetPlayerSetting:
		s.handleSetPlayerSetting(ev)

	case reqBatteryStatus:
		if dev, ok := s.device(ev.address); ok {
			dev.Battery = ev.status
			s.transport.InformBatteryStatus(ev.address, ev.status)
		}

	case reqBrowseToRoot:
		s.handleBrowseToRoot(ev.address)

	case reqRefreshCurrentFolder:
		s.handleRefreshCurrentFolder(ev.address, ev.folderUID)

	case reqLoadFolderUp:
		s.handleLoadFolderUp(ev.address, ev.folderUID)

	case reqLoadFolderDown:
		s.handleLoadFolderDown(ev.address, ev.folderUID)

	case reqFetchNowPlayingList:
		s.handleFetchNowPlayingList(ev.address)

	case reqFetchBySearchString:
		s.handleFetchBySearchString(ev.address, ev.pattern)

	case reqSetBrowsedPlayer:
		s.enqueuePlayerCommand(ev.address, CmdSetBrowsedPlayer, ev.id)

	case reqSetAddressedPlayer:
		s.enqueuePlayerCommand(ev.address, CmdSetAddressedPlayer, ev.id)

	case reqPlayItem:
		s.enqueueItemCommand(ev.address, CmdPlayItem, ev.uid)

	case reqAddToNowPlaying:
		s.enqueueItemCommand(ev.address, CmdAddToNowPlaying, ev.uid)

	case reqFetchThumbnail:
		s.handleFetchThumbnail(ev.address, ev.handle)

	case reqFetchImage:
		s.handleFetchImage(ev.address, ev.handle)
	}
}

// device returns the model of a connected device.
func (s *StateMachine) device(address string) (*RemoteDevice, bool) {
	dev, ok := s.devices[address]
	if !ok {
		s.log.Debug("event for unknown device", zap.String("address", address))
	}

	return dev, ok
}

// handleCallback dispatches one native stack callback.
func (s *StateMachine) handleCallback(address string, callback native.Callback) {
	if cb, ok := callback.(native.ConnectionStateChanged); ok {
		s.handleConnectionStateChanged(address, cb.Connected)
		return
	}

	dev, ok := s.device(address)
	if !ok {
		return
	}

	switch cb := callback.(type) {
	case native.RCFeatures:
		s.handleRCFeatures(dev, cb)

	case native.TrackChanged:
		s.handleTrackChanged(dev, cb)

	case native.PlayPositionChanged:
		player := dev.Players.AddressedPlayer()
		player.Position = cb.Position
		s.adapter.PlayPositionChanged(address, cb.SongLen, cb.Position)
		s.publishPlayback(dev, cb.SongLen)

	case native.PlayStatusChanged:
		player := dev.Players.AddressedPlayer()
		player.Status = cb.Status
		s.adapter.PlayStatusChanged(address, cb.Status)
		s.publishPlayback(dev, 0)

	case native.SupportedPlayerSettings:
		player := dev.Players.AddressedPlayer()
		for _, setting := range cb.Settings {
			copied := setting
			player.Settings[setting.Attribute] = &copied
		}

	case native.PlayerSettingChanged:
		player := dev.Players.AddressedPlayer()
		for i, attr := range cb.Attrs {
			if i < len(cb.Values) {
				player.UpdateSetting(attr, cb.Values[i])
			}
		}
		s.publishPlayer(dev)

	case native.SetAbsVolumeCommand:
		s.handleSetAbsVolume(dev, cb)

	case native.RegisterAbsVolNotification:
		s.handleRegisterAbsVolNotification(dev, cb)

	case native.AvailablePlayersList:
		dev.UIDCounter = cb.UIDCounter
		dev.Players.Update(cb.Players)
		s.publishPlayer(dev)

	case native.AddressedPlayerChanged:
		s.handleAddressedPlayerChanged(dev, cb)

	case native.UIDsChanged:
		s.handleUIDsChanged(dev, cb)

	case native.NowPlayingListUpdate:
		s.handleNowPlayingListUpdate(dev)

	case native.TotalItems:
		s.handleTotalItems(dev, cb)

	case native.BrowseFolderResponse:
		s.handleBrowseFolderResponse(dev, cb)

	case native.SearchResponse:
		s.handleSearchResponse(dev, cb)

	case native.ChangePathResponse:
		s.handleChangePathResponse(dev, cb)

	case native.SetBrowsedPlayerResponse:
		s.handleSetBrowsedPlayerResponse(dev, cb)

	case native.SetAddressedPlayerResponse:
		s.handleSetAddressedPlayerResponse(dev, cb)

	case native.PlayItemResponse:
		s.handleCommandStatus(dev, CmdPlayItem, cb.Status)

	case native.AddToNowPlayingResponse:
		s.handleCommandStatus(dev, CmdAddToNowPlaying, cb.Status)
	}
}

// handleConnectionStateChanged creates the device model on connect and
// tears everything down on disconnect. No partial state survives a
// disconnect.
func (s *StateMachine) handleConnectionStateChanged(address string, connected bool) {
	if connected {
		if _, ok := s.devices[address]; ok {
			return
		}

		s.log.Info("device connected", zap.String("address", address))
		s.devices[address] = newRemoteDevice(address)

		avrcp.ConnectionEvents(s.bus).Publish(avrcp.ConnectionEvent{
			Address:   address,
			Connected: true,
		})

		return
	}

	if _, ok := s.devices[address]; !ok {
		return
	}

	s.log.Info("device disconnected", zap.String("address", address))
	s.teardownDevice(address)

	avrcp.ConnectionEvents(s.bus).Publish(avrcp.ConnectionEvent{Address: address})
}

// teardownDevice discards all model state of a device, deregisters the
// volume observer and stops the device's BIP worker without blocking
// the run loop.
func (s *StateMachine) teardownDevice(address string) {
	dev, ok := s.devices[address]
	if !ok {
		return
	}

	dev.Queue.Clear()

	if dev.volObserverSet && s.audio != nil {
		s.audio.UnregisterObserver()
	}

	if dev.Bip != nil {
		dev.Bip.Disconnect()
	}

	delete(s.devices, address)
}

// handleRCFeatures gates the browsing model on the discovered features
// and proactively connects BIP when cover art is supported, hiding the
// OBEX connect latency behind the first application fetch.
func (s *StateMachine) handleRCFeatures(dev *RemoteDevice, cb native.RCFeatures) {
	dev.Features = cb.Features
	dev.CaPsm = cb.CaPsm

	if cb.Features.Has(avrcp.FeatureMetadata) && dev.NowPlaying == nil {
		dev.NowPlaying = NewNowPlaying()
	}
	if cb.Features.Has(avrcp.FeatureBrowsing) && dev.FileSystem == nil {
		dev.FileSystem = NewRemoteFileSystem()
	}

	if cb.Features.Has(avrcp.FeatureCoverArt) {
		s.connectBip(dev)
	}

	avrcp.ConnectionEvents(s.bus).Publish(avrcp.ConnectionEvent{
		Address:   dev.Address,
		Connected: true,
		Features:  cb.Features,
	})
}

// handleTrackChanged merges element attributes into the current track
// and starts a thumbnail fetch for its cover art.
func (s *StateMachine) handleTrackChanged(dev *RemoteDevice, cb native.TrackChanged) {
	track := trackFromAttrs(avrcp.UIDCurrentTrack, cb.Attrs)

	if dev.NowPlaying != nil {
		dev.NowPlaying.SetCurrent(track)
	}

	s.adapter.TrackChanged(dev.Address, track)
	s.publishPlayback(dev, track.Length)

	if s.props.CoverArtRequested && track.ArtHandle.Valid() && dev.bipConnected() {
		dev.Bip.FetchLinkedThumbnail(track.ArtHandle)
	}
}

// handleSetPlayerSetting validates a setting change against the
// addressed player's supported values before issuing it.
func (s *StateMachine) handleSetPlayerSetting(ev reqSetPlayerSetting) {
	dev, ok := s.device(ev.address)
	if !ok {
		return
	}

	player := dev.Players.AddressedPlayer()
	if !player.SupportsSetting(ev.attr, ev.value) {
		s.log.Debug("unsupported player setting",
			zap.String("attribute", ev.attr.String()), zap.Uint8("value", ev.value))
		return
	}

	s.transport.SetPlayerApplicationSettingValues(ev.address,
		[]avrcp.SettingAttribute{ev.attr}, []byte{ev.value})
}

// publishPlayback publishes the current playback state.
func (s *StateMachine) publishPlayback(dev *RemoteDevice, length uint32) {
	player := dev.Players.AddressedPlayer()

	event := avrcp.TrackEvent{
		Address:  dev.Address,
		Status:   player.Status,
		Position: player.Position,
		Length:   length,
	}
	if dev.NowPlaying != nil {
		if current, ok := dev.NowPlaying.Current(); ok {
			event.Track = current
		}
	}

	avrcp.TrackEvents(s.bus).Publish(event)
}

// publishPlayer publishes the addressed player and the player list.
func (s *StateMachine) publishPlayer(dev *RemoteDevice) {
	player := dev.Players.AddressedPlayer()

	avrcp.PlayerEvents(s.bus).Publish(avrcp.PlayerEvent{
		Address:   dev.Address,
		Player:    *player,
		Available: dev.Players.List(),
	})
}

// trackFromAttrs builds a TrackInfo from raw element attributes.
// Absent cover art is marked with the typed sentinel handle.
func trackFromAttrs(uid avrcp.ItemUID, attrs []native.AttrEntry) avrcp.TrackInfo {
	track := avrcp.TrackInfo{
		UID:           uid,
		ArtHandle:     avrcp.HandleNotSupported,
		ThumbLocation: avrcp.LocationEmpty,
		ImageLocation: avrcp.LocationEmpty,
	}

	for _, attr := range attrs {
		switch attr.ID {
		case avrcp.AttrTitle:
			track.Title = attr.Value
		case avrcp.AttrArtist:
			track.Artist = attr.Value
		case avrcp.AttrAlbum:
			track.Album = attr.Value
		case avrcp.AttrGenre:
			track.Genre = attr.Value
		case avrcp.AttrTrackNumber:
			track.TrackNumber = parseUint32(attr.Value)
		case avrcp.AttrTotalTracks:
			track.TotalTracks = parseUint32(attr.Value)
		case avrcp.AttrLength:
			track.Length = parseUint32(attr.Value)
		case avrcp.AttrCoverArt:
			if attr.Value != "" {
				track.ArtHandle = avrcp.CoverArtHandle(attr.Value)
			}
		}
	}

	return track
}

// parseUint32 parses a numeric attribute value, treating malformed
// values as zero.
func parseUint32(s string) uint32 {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0
	}

	return uint32(v)
}
