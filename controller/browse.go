package controller

import (
	"strings"

	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/bip"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// enterScope switches the device's current scope, discarding the
// other scopes' listings and any thumbnail backlog. Responses of
// commands enqueued under the previous scope are stale from this point
// on and are purged by the queue on arrival.
func (s *StateMachine) enterScope(dev *RemoteDevice, scope avrcp.Scope) {
	if dev.Scope == scope {
		return
	}

	dev.Scope = scope
	dev.pendingThumbs = nil

	switch scope {
	case avrcp.ScopeVFS:
		if dev.NowPlaying != nil {
			dev.NowPlaying.ClearList()
		}
		if dev.FileSystem != nil {
			dev.FileSystem.ClearSearch()
		}

	case avrcp.ScopeNowPlaying:
		if dev.FileSystem != nil {
			dev.FileSystem.ClearVFSListing()
			dev.FileSystem.ClearSearch()
		}

	case avrcp.ScopeSearch:
		if dev.FileSystem != nil {
			dev.FileSystem.ClearVFSListing()
		}
		if dev.NowPlaying != nil {
			dev.NowPlaying.ClearList()
		}
	}
}

// connectBip dials a fresh OBEX transport to the device's cover art
// responder and starts the session worker. Returns false when cover
// art is unsupported, a session is already up, or the dial failed.
func (s *StateMachine) connectBip(dev *RemoteDevice) bool {
	if s.dialObex == nil || !dev.Features.Has(avrcp.FeatureCoverArt) {
		return false
	}

	if dev.Bip != nil {
		switch dev.Bip.State() {
		case bip.StateConnecting, bip.StateIdle, bip.StateBusy:
			return false
		}
	}

	client, err := s.dialObex(dev.Address, dev.CaPsm)
	if err != nil {
		s.log.Warn("cannot open cover art transport",
			zap.String("address", dev.Address), zap.Error(err))
		return false
	}

	address := dev.Address
	dev.Bip = bip.NewInitiator(client, s.cacheDir, s.log, func(ev bip.Event) {
		s.post(bipEvent{address: address, ev: ev})
	})
	dev.Bip.Connect()

	return true
}

// maybeEnqueueBipConnect enqueues an OBEX connect ahead of an upcoming
// listing fetch, so art handles of the delivered listing can be
// resolved immediately. A connect already queued or a usable session
// makes this a no-op.
func (s *StateMachine) maybeEnqueueBipConnect(dev *RemoteDevice) {
	if s.dialObex == nil || !dev.Features.Has(avrcp.FeatureCoverArt) || dev.bipConnected() {
		return
	}
	if dev.Queue.FindFirstIndex(CmdConnectObex, dev.Scope) >= 0 {
		return
	}

	dev.Queue.Push(Command{ID: CmdConnectObex, Scope: dev.Scope, Params: NoParams{}})
}

// processQueue issues the next eligible queued command. Commands
// enqueued under a scope that is no longer current are dropped without
// being sent, unless the command is scope-agnostic.
func (s *StateMachine) processQueue(dev *RemoteDevice) {
	if dev.commandInFlight {
		return
	}

	for {
		cmd, ok := dev.Queue.PeekFront()
		if !ok {
			return
		}

		if !cmd.ID.bypassesScopeCheck() && cmd.Scope != dev.Scope {
			s.log.Debug("dropping stale queued command",
				zap.String("command", cmd.ID.String()),
				zap.String("scope", cmd.Scope.String()))
			dev.Queue.PopFront()
			continue
		}

		if s.dispatch(dev, cmd) {
			dev.commandInFlight = true
			return
		}

		dev.Queue.PopFront()
	}
}

// dispatch sends one command to the native stack or the BIP session.
// A true return means a response is now owed for the queue head.
func (s *StateMachine) dispatch(dev *RemoteDevice, cmd Command) bool {
	var err error

	switch cmd.ID {
	case CmdBrowseFolder:
		p := cmd.Params.(BrowseParams)
		err = s.transport.BrowseFolder(dev.Address, cmd.Scope, p.Start, p.End, p.Attrs)

	case CmdChangePath:
		p := cmd.Params.(ChangePathParams)
		err = s.transport.ChangePath(dev.Address, dev.UIDCounter, p.Direction, p.UID)

	case CmdSetBrowsedPlayer:
		p := cmd.Params.(PlayerParams)
		err = s.transport.SetBrowsedPlayer(dev.Address, p.ID)

	case CmdSetAddressedPlayer:
		p := cmd.Params.(PlayerParams)
		err = s.transport.SetAddressedPlayer(dev.Address, p.ID)

	case CmdSearch:
		p := cmd.Params.(SearchParams)
		err = s.transport.Search(dev.Address, native.CharsetUTF8, p.Pattern)

	case CmdPlayItem:
		p := cmd.Params.(ItemParams)
		err = s.transport.PlayItem(dev.Address, cmd.Scope, p.UID, dev.UIDCounter)

	case CmdAddToNowPlaying:
		p := cmd.Params.(ItemParams)
		err = s.transport.AddToNowPlayingList(dev.Address, cmd.Scope, p.UID, dev.UIDCounter)

	case CmdGetTotalItems:
		err = s.transport.GetTotalNumberOfItems(dev.Address, cmd.Scope)

	case CmdConnectObex:
		if dev.bipConnected() {
			return false
		}
		if dev.Bip != nil && dev.Bip.State() == bip.StateConnecting {
			return true
		}
		return s.connectBip(dev)

	case CmdDisconnectObex:
		if dev.Bip == nil || !dev.Bip.Connected() {
			return false
		}
		dev.Bip.Disconnect()
		return true

	default:
		return false
	}

	if err != nil {
		s.log.Warn("cannot send browsing command",
			zap.String("command", cmd.ID.String()), zap.Error(err))
		return false
	}

	return true
}

// handleBrowseToRoot switches to the VFS scope and positions the
// folder stack at the root folder, navigating up level by level when
// the device is already inside a subfolder.
func (s *StateMachine) handleBrowseToRoot(address string) {
	dev, ok := s.device(address)
	if !ok || !dev.Browsable() {
		return
	}

	fs := dev.FileSystem
	s.enterScope(dev, avrcp.ScopeVFS)

	switch {
	case fs.Depth() == 0:
		fs.ResetStackToRoot()
		dev.Queue.Push(Command{ID: CmdGetTotalItems, Scope: avrcp.ScopeVFS, Params: NoParams{}})

	case fs.Depth() > 1:
		dev.changePathDelta = -(fs.Depth() - 1)
		dev.Queue.Push(Command{
			ID:     CmdChangePath,
			Scope:  avrcp.ScopeVFS,
			Params: ChangePathParams{Direction: native.DirectionUp},
		})
	}

	s.adapter.UpdateFolderStackDepth(address, fs.Depth())
	s.processQueue(dev)
}

// handleRefreshCurrentFolder fetches the listing of the folder at the
// top of the stack. The folder id passed by the application must match
// the top frame; a mismatch means the application's view of the stack
// is outdated and the refresh is ignored.
func (s *StateMachine) handleRefreshCurrentFolder(address string, folderUID string) {
	dev, ok := s.device(address)
	if !ok || !dev.Browsable() {
		return
	}

	fs := dev.FileSystem
	s.enterScope(dev, avrcp.ScopeVFS)

	top, ok := fs.Top()
	if !ok {
		fs.ResetStackToRoot()
		top, _ = fs.Top()
	}

	if folderUID != "" && folderUID != top.UIDString {
		s.log.Debug("refresh does not match current folder",
			zap.String("requested", folderUID), zap.String("current", top.UIDString))
		return
	}

	fs.ClearVFSListing()
	dev.pendingThumbs = nil

	s.maybeEnqueueBipConnect(dev)
	dev.Queue.Push(Command{
		ID:     CmdBrowseFolder,
		Scope:  avrcp.ScopeVFS,
		Params: BrowseParams{Start: 0, End: DefaultBrowseEndIndex},
	})
	s.processQueue(dev)
}

// handleFetchNowPlayingList switches to the now playing scope and
// fetches the full now playing list.
func (s *StateMachine) handleFetchNowPlayingList(address string) {
	dev, ok := s.device(address)
	if !ok || dev.NowPlaying == nil {
		return
	}

	s.enterScope(dev, avrcp.ScopeNowPlaying)
	dev.NowPlaying.ClearList()
	dev.pendingThumbs = nil

	s.maybeEnqueueBipConnect(dev)
	dev.Queue.Push(Command{
		ID:     CmdBrowseFolder,
		Scope:  avrcp.ScopeNowPlaying,
		Params: BrowseParams{Start: 0, End: DefaultBrowseEndIndex},
	})
	s.processQueue(dev)
}

// handleFetchBySearchString switches to the search scope and issues a
// search; the result listing is fetched once the search response
// reports the result count.
func (s *StateMachine) handleFetchBySearchString(address string, pattern string) {
	dev, ok := s.device(address)
	if !ok || !dev.Browsable() {
		return
	}

	s.enterScope(dev, avrcp.ScopeSearch)
	dev.FileSystem.ClearSearch()
	dev.pendingThumbs = nil

	s.maybeEnqueueBipConnect(dev)
	dev.Queue.Push(Command{
		ID:     CmdSearch,
		Scope:  avrcp.ScopeSearch,
		Params: SearchParams{Pattern: pattern},
	})
	s.processQueue(dev)
}

// handleLoadFolderUp navigates up the stack to a folder below the
// current one, one change path command per level.
func (s *StateMachine) handleLoadFolderUp(address string, folderUID string) {
	dev, ok := s.device(address)
	if !ok || !dev.Browsable() {
		return
	}

	fs := dev.FileSystem
	idx := fs.FindInStack(folderUID)
	if idx < 0 {
		s.log.Debug("folder not on stack", zap.String("folder", folderUID))
		return
	}

	s.enterScope(dev, avrcp.ScopeVFS)
	dev.changePathDelta = -(fs.Depth() - 1 - idx)

	s.maybeEnqueueBipConnect(dev)
	dev.Queue.Push(Command{
		ID:     CmdChangePath,
		Scope:  avrcp.ScopeVFS,
		Params: ChangePathParams{Direction: native.DirectionUp},
	})
	s.processQueue(dev)
}

// handleLoadFolderDown navigates one level into a folder of the
// current VFS listing.
func (s *StateMachine) handleLoadFolderDown(address string, folderUID string) {
	dev, ok := s.device(address)
	if !ok || !dev.Browsable() {
		return
	}

	folder, ok := dev.FileSystem.FolderInListing(folderUID)
	if !ok {
		s.log.Debug("folder not in current listing", zap.String("folder", folderUID))
		return
	}

	s.enterScope(dev, avrcp.ScopeVFS)
	dev.changePathDelta = 1
	dev.pendingDown = FolderStackInfo{UIDString: folderUID, UID: folder.UID}

	s.maybeEnqueueBipConnect(dev)
	dev.Queue.Push(Command{
		ID:     CmdChangePath,
		Scope:  avrcp.ScopeVFS,
		Params: ChangePathParams{Direction: native.DirectionDown, UID: folder.UID},
	})
	s.processQueue(dev)
}

// enqueuePlayerCommand enqueues a browsed or addressed player change.
func (s *StateMachine) enqueuePlayerCommand(address string, id CommandID, playerID avrcp.PlayerID) {
	dev, ok := s.device(address)
	if !ok {
		return
	}

	dev.Queue.Push(Command{ID: id, Scope: dev.Scope, Params: PlayerParams{ID: playerID}})
	s.processQueue(dev)
}

// enqueueItemCommand enqueues a play item or add to now playing
// command addressed to an item of the current scope.
func (s *StateMachine) enqueueItemCommand(address string, id CommandID, uid avrcp.ItemUID) {
	dev, ok := s.device(address)
	if !ok {
		return
	}

	if dev.Scope == avrcp.ScopeNone {
		s.log.Debug("item command outside a browsing scope",
			zap.String("command", id.String()))
		return
	}

	dev.Queue.Push(Command{ID: id, Scope: dev.Scope, Params: ItemParams{UID: uid}})
	s.processQueue(dev)
}

// handleBrowseFolderResponse accumulates one page of a listing fetch
// and advances the pagination cursor in place. The fetch terminates
// when a page ends past the requested range or the remote reports a
// range error: whatever accumulated by then is the complete listing.
func (s *StateMachine) handleBrowseFolderResponse(dev *RemoteDevice, cb native.BrowseFolderResponse) {
	dev.commandInFlight = false

	front, ok := dev.Queue.PeekFront()
	if !ok || front.ID != CmdBrowseFolder || front.Scope != dev.Scope {
		dev.Queue.CheckAndClearFront(CmdBrowseFolder, dev.Scope)
		s.processQueue(dev)
		return
	}
	params := front.Params.(BrowseParams)

	if !cb.Status.Succeeded() {
		dev.Queue.PopFront()
		if cb.Status != avrcp.StatusBadRange {
			s.log.Warn("browse folder failed",
				zap.String("scope", dev.Scope.String()), zap.Uint8("status", uint8(cb.Status)))
		}
		s.deliverListing(dev)
		s.processQueue(dev)
		return
	}

	dev.UIDCounter = cb.UIDCounter

	tracks, folders := convertBrowseItems(cb.Items)
	switch dev.Scope {
	case avrcp.ScopeVFS:
		dev.FileSystem.AppendListing(tracks, folders)
	case avrcp.ScopeNowPlaying:
		dev.NowPlaying.Append(tracks)
	case avrcp.ScopeSearch:
		dev.FileSystem.AppendSearch(tracks)
	}

	next := params.Start + 1
	if returned := uint32(len(cb.Items)); returned > next {
		next = returned
	}

	if len(cb.Items) == 0 || next > params.End {
		dev.Queue.PopFront()
		s.deliverListing(dev)
	} else {
		dev.Queue.UpdateFront(CmdBrowseFolder, dev.Scope,
			BrowseParams{Start: next, End: params.End, Attrs: params.Attrs})
	}

	s.processQueue(dev)
}

// deliverListing hands the accumulated listing of the current scope to
// the adapter, publishes it and kicks off the thumbnail backlog.
func (s *StateMachine) deliverListing(dev *RemoteDevice) {
	event := avrcp.BrowseEvent{Address: dev.Address, Scope: dev.Scope}

	switch dev.Scope {
	case avrcp.ScopeVFS:
		event.Depth = dev.FileSystem.Depth()
		event.Tracks = dev.FileSystem.Media()
		event.Folders = dev.FileSystem.Folders()
		s.adapter.UpdateVFSList(dev.Address, event.Tracks, event.Folders)

	case avrcp.ScopeNowPlaying:
		event.Tracks = dev.NowPlaying.List()
		s.adapter.UpdateNowPlayingList(dev.Address, event.Tracks)

	case avrcp.ScopeSearch:
		event.Tracks = dev.FileSystem.Search()
		s.adapter.UpdateSearchList(dev.Address, event.Tracks)

	default:
		return
	}

	avrcp.BrowseEvents(s.bus).Publish(event)
	s.startThumbnailBacklog(dev, event.Tracks)
}

// startThumbnailBacklog records the distinct unresolved art handles of
// a delivered listing and fetches the first one. The remaining handles
// are fetched one at a time as fetch notifications arrive, so the BIP
// session's single waiting slot is never overrun.
func (s *StateMachine) startThumbnailBacklog(dev *RemoteDevice, tracks []avrcp.TrackInfo) {
	if !s.props.CoverArtRequested || !dev.bipConnected() {
		return
	}

	seen := make(map[avrcp.CoverArtHandle]struct{}, len(tracks))
	var handles []avrcp.CoverArtHandle
	for _, track := range tracks {
		if !track.ArtHandle.Valid() || track.ThumbLocation.Exists() {
			continue
		}
		if _, ok := seen[track.ArtHandle]; ok {
			continue
		}

		seen[track.ArtHandle] = struct{}{}
		handles = append(handles, track.ArtHandle)
	}

	dev.pendingThumbs = handles
	s.fetchNextThumbnail(dev)
}

// fetchNextThumbnail pops and fetches the next backlog handle.
func (s *StateMachine) fetchNextThumbnail(dev *RemoteDevice) {
	if len(dev.pendingThumbs) == 0 || !dev.bipConnected() {
		return
	}

	handle := dev.pendingThumbs[0]
	dev.pendingThumbs = dev.pendingThumbs[1:]
	dev.Bip.FetchLinkedThumbnail(handle)
}

// handleSearchResponse turns a successful search into a listing fetch
// over the search results scope.
func (s *StateMachine) handleSearchResponse(dev *RemoteDevice, cb native.SearchResponse) {
	dev.commandInFlight = false

	if !dev.Queue.CheckAndClearFront(CmdSearch, dev.Scope) {
		s.processQueue(dev)
		return
	}

	if cb.Status.Succeeded() && cb.NumItems > 0 {
		dev.UIDCounter = cb.UIDCounter

		end := DefaultBrowseEndIndex
		if cb.NumItems-1 < end {
			end = cb.NumItems - 1
		}
		dev.Queue.Push(Command{
			ID:     CmdBrowseFolder,
			Scope:  avrcp.ScopeSearch,
			Params: BrowseParams{Start: 0, End: end},
		})
	} else {
		s.deliverListing(dev)
	}

	s.processQueue(dev)
}

// handleChangePathResponse applies one completed navigation step to
// the folder stack and either issues the next step or, once the depth
// delta is consumed, fetches the landed folder's listing.
func (s *StateMachine) handleChangePathResponse(dev *RemoteDevice, cb native.ChangePathResponse) {
	dev.commandInFlight = false

	if !dev.Queue.CheckAndClearFront(CmdChangePath, dev.Scope) {
		dev.changePathDelta = 0
		s.processQueue(dev)
		return
	}

	fs := dev.FileSystem
	if fs == nil {
		s.processQueue(dev)
		return
	}

	if !cb.Status.Succeeded() {
		s.log.Warn("change path failed", zap.Uint8("status", uint8(cb.Status)))
		dev.changePathDelta = 0
		s.adapter.UpdateFolderStackDepth(dev.Address, fs.Depth())
		s.processQueue(dev)
		return
	}

	switch {
	case dev.changePathDelta > 0:
		fs.PushFolder(dev.pendingDown)
		dev.pendingDown = FolderStackInfo{}
		dev.changePathDelta--

	case dev.changePathDelta < 0:
		fs.PopFolder()
		dev.changePathDelta++
	}

	fs.ClearVFSListing()
	dev.pendingThumbs = nil

	if dev.changePathDelta != 0 {
		dev.Queue.PushFront(Command{
			ID:     CmdChangePath,
			Scope:  avrcp.ScopeVFS,
			Params: ChangePathParams{Direction: native.DirectionUp},
		})
	} else {
		fs.SetTopNumItems(cb.NumItems)
		s.adapter.UpdateFolderStackDepth(dev.Address, fs.Depth())
		dev.Queue.PushFront(Command{
			ID:     CmdBrowseFolder,
			Scope:  avrcp.ScopeVFS,
			Params: BrowseParams{Start: 0, End: DefaultBrowseEndIndex},
		})
	}

	s.processQueue(dev)
}

// handleSetBrowsedPlayerResponse resets the folder stack to the new
// browsed player's root.
func (s *StateMachine) handleSetBrowsedPlayerResponse(dev *RemoteDevice, cb native.SetBrowsedPlayerResponse) {
	dev.commandInFlight = false

	front, ok := dev.Queue.PeekFront()
	if !ok || front.ID != CmdSetBrowsedPlayer {
		dev.Queue.CheckAndClearFront(CmdSetBrowsedPlayer, dev.Scope)
		s.processQueue(dev)
		return
	}
	params := front.Params.(PlayerParams)
	dev.Queue.PopFront()

	if cb.Status.Succeeded() {
		dev.UIDCounter = cb.UIDCounter
		dev.Players.SetBrowsed(params.ID)
		dev.pendingThumbs = nil

		if fs := dev.FileSystem; fs != nil {
			fs.ClearAll()
			fs.ResetStackToRoot()
			fs.SetTopNumItems(cb.NumItems)
			s.adapter.UpdateFolderStackDepth(dev.Address, fs.Depth())
		}
	} else {
		s.log.Warn("set browsed player failed",
			zap.Uint16("player", uint16(params.ID)), zap.Uint8("status", uint8(cb.Status)))
	}

	s.processQueue(dev)
}

// handleSetAddressedPlayerResponse applies a requested addressed
// player change. All listings are tied to the addressed player and are
// discarded.
func (s *StateMachine) handleSetAddressedPlayerResponse(dev *RemoteDevice, cb native.SetAddressedPlayerResponse) {
	dev.commandInFlight = false

	front, ok := dev.Queue.PeekFront()
	if !ok || front.ID != CmdSetAddressedPlayer {
		dev.Queue.CheckAndClearFront(CmdSetAddressedPlayer, dev.Scope)
		s.processQueue(dev)
		return
	}
	params := front.Params.(PlayerParams)
	dev.Queue.PopFront()

	if cb.Status.Succeeded() {
		player := dev.Players.SetAddressed(params.ID)
		dev.clearTransientLists()
		s.adapter.PlayerChanged(dev.Address, *player)
		s.publishPlayer(dev)
	} else {
		s.log.Warn("set addressed player failed",
			zap.Uint16("player", uint16(params.ID)), zap.Uint8("status", uint8(cb.Status)))
	}

	s.processQueue(dev)
}

// handleAddressedPlayerChanged applies a remote-initiated addressed
// player change.
func (s *StateMachine) handleAddressedPlayerChanged(dev *RemoteDevice, cb native.AddressedPlayerChanged) {
	dev.UIDCounter = cb.UIDCounter

	player := dev.Players.SetAddressed(cb.PlayerID)
	dev.clearTransientLists()

	s.adapter.PlayerChanged(dev.Address, *player)
	s.publishPlayer(dev)
}

// handleUIDsChanged starts a new UID epoch: every cached item UID and
// art handle is invalid. All listings are discarded, commands pending
// under the current scope are purged, and the OBEX session is cycled
// ahead of whatever remains queued.
func (s *StateMachine) handleUIDsChanged(dev *RemoteDevice, cb native.UIDsChanged) {
	dev.UIDCounter = cb.UIDCounter
	dev.clearTransientLists()

	if front, ok := dev.Queue.PeekFront(); ok && dev.commandInFlight &&
		front.Scope == dev.Scope && !front.ID.bypassesScopeCheck() {
		dev.commandInFlight = false
	}
	dev.Queue.PurgeScope(dev.Scope)

	if dev.bipConnected() {
		dev.Queue.PushFront(Command{ID: CmdConnectObex, Scope: dev.Scope, Params: NoParams{}})
		dev.Queue.PushFront(Command{ID: CmdDisconnectObex, Scope: dev.Scope, Params: NoParams{}})
	}

	s.processQueue(dev)
}

// handleNowPlayingListUpdate refetches the now playing list when it is
// the scope being displayed.
func (s *StateMachine) handleNowPlayingListUpdate(dev *RemoteDevice) {
	if dev.NowPlaying == nil || dev.Scope != avrcp.ScopeNowPlaying {
		return
	}

	dev.NowPlaying.ClearList()
	dev.pendingThumbs = nil

	if dev.Queue.FindFirstIndex(CmdBrowseFolder, avrcp.ScopeNowPlaying) < 0 {
		dev.Queue.Push(Command{
			ID:     CmdBrowseFolder,
			Scope:  avrcp.ScopeNowPlaying,
			Params: BrowseParams{Start: 0, End: DefaultBrowseEndIndex},
		})
	}

	s.processQueue(dev)
}

// handleTotalItems records the item count of the current folder.
func (s *StateMachine) handleTotalItems(dev *RemoteDevice, cb native.TotalItems) {
	dev.commandInFlight = false
	dev.Queue.CheckAndClearFront(CmdGetTotalItems, dev.Scope)

	if cb.Status.Succeeded() {
		dev.UIDCounter = cb.UIDCounter

		if dev.Scope == avrcp.ScopeVFS && dev.FileSystem != nil {
			dev.FileSystem.SetTopNumItems(cb.NumItems)
		}
	}

	s.processQueue(dev)
}

// handleCommandStatus completes a fire-and-forget browsing command.
func (s *StateMachine) handleCommandStatus(dev *RemoteDevice, id CommandID, status avrcp.Status) {
	dev.commandInFlight = false
	dev.Queue.CheckAndClearFront(id, dev.Scope)

	if !status.Succeeded() {
		s.log.Warn("browsing command failed",
			zap.String("command", id.String()), zap.Uint8("status", uint8(status)))
	}

	s.processQueue(dev)
}

// handleBipEvent consumes a cover art session notification.
func (s *StateMachine) handleBipEvent(address string, ev bip.Event) {
	dev, ok := s.device(address)
	if !ok {
		return
	}

	switch ev.Kind {
	case bip.EventConnected:
		s.log.Debug("cover art session connected", zap.String("address", address))
		if front, ok := dev.Queue.PeekFront(); ok && front.ID == CmdConnectObex {
			dev.Queue.PopFront()
			dev.commandInFlight = false
		}
		s.processQueue(dev)
		s.fetchNextThumbnail(dev)

	case bip.EventDisconnected:
		s.log.Debug("cover art session disconnected", zap.String("address", address))
		for _, handle := range dev.pendingThumbs {
			s.adapter.ImageFetched(address, handle, avrcp.LocationEmpty)
		}
		dev.pendingThumbs = nil

		// A refused connect reports only a disconnect, so a connect
		// command in flight is owed this response too.
		if front, ok := dev.Queue.PeekFront(); ok && dev.commandInFlight &&
			(front.ID == CmdDisconnectObex || front.ID == CmdConnectObex) {
			dev.Queue.PopFront()
			dev.commandInFlight = false
		}
		s.processQueue(dev)

	case bip.EventThumbnailFetched, bip.EventImageFetched:
		s.handleImageFetched(dev, ev)
	}
}

// handleImageFetched merges a completed fetch back into the listing
// models and advances the thumbnail backlog.
func (s *StateMachine) handleImageFetched(dev *RemoteDevice, ev bip.Event) {
	thumbnail := ev.Kind == bip.EventThumbnailFetched

	if ev.Location.Exists() {
		if dev.FileSystem != nil {
			dev.FileSystem.UpdateMediaArt(ev.Handle, ev.Location, thumbnail)
		}
		if dev.NowPlaying != nil {
			dev.NowPlaying.UpdateArt(ev.Handle, ev.Location, thumbnail)
		}

		s.adapter.ImageFetched(dev.Address, ev.Handle, ev.Location)
		avrcp.ImageEvents(s.bus).Publish(avrcp.ImageEvent{
			Address:  dev.Address,
			Handle:   ev.Handle,
			Location: ev.Location,
		})
	} else {
		s.log.Debug("cover art fetch failed", zap.String("handle", string(ev.Handle)))
	}

	if thumbnail {
		s.fetchNextThumbnail(dev)
	}
}

// handleFetchThumbnail fetches one linked thumbnail on application
// request. With no usable session yet the handle is parked on the
// backlog behind a queued OBEX connect.
func (s *StateMachine) handleFetchThumbnail(address string, handle avrcp.CoverArtHandle) {
	dev, ok := s.device(address)
	if !ok {
		return
	}

	if s.dialObex == nil || !dev.Features.Has(avrcp.FeatureCoverArt) || !handle.Valid() {
		s.adapter.ImageFetched(address, handle, avrcp.LocationEmpty)
		return
	}

	if !dev.bipConnected() {
		dev.pendingThumbs = append(dev.pendingThumbs, handle)
		s.maybeEnqueueBipConnect(dev)
		s.processQueue(dev)
		return
	}

	dev.Bip.FetchLinkedThumbnail(handle)
}

// handleFetchImage fetches one full image on application request,
// negotiated against the session's application properties.
func (s *StateMachine) handleFetchImage(address string, handle avrcp.CoverArtHandle) {
	dev, ok := s.device(address)
	if !ok {
		return
	}

	if dev.Bip == nil || !handle.Valid() {
		s.adapter.ImageFetched(address, handle, avrcp.LocationEmpty)
		return
	}

	encoding := bipEncoding(s.props.MimeType)

	width, height := s.props.MaxWidth, s.props.MaxHeight
	if width <= 0 {
		width = 500
	}
	if height <= 0 {
		height = 500
	}

	dev.Bip.FetchImage(handle, encoding, width, height, s.props.MaxSize)
}

// bipEncoding maps a preferred mime type to a BIP encoding name.
func bipEncoding(mime string) string {
	name := strings.TrimPrefix(strings.ToLower(mime), "image/")
	switch name {
	case "", "jpeg", "jpg":
		return "JPEG"
	}

	return strings.ToUpper(name)
}

// convertBrowseItems splits a browse response page into media and
// folder entries.
func convertBrowseItems(items []native.BrowseItem) ([]avrcp.TrackInfo, []avrcp.FolderItems) {
	var tracks []avrcp.TrackInfo
	var folders []avrcp.FolderItems

	for _, item := range items {
		switch item.ItemType {
		case native.BrowseItemMedia:
			track := trackFromAttrs(item.UID, item.Attrs)
			if track.Title == "" {
				track.Title = item.Name
			}
			track.Type = avrcp.MediaType(item.Type)
			tracks = append(tracks, track)

		case native.BrowseItemFolder:
			folders = append(folders, avrcp.FolderItems{
				UID:      item.UID,
				Name:     item.Name,
				Playable: item.Playable,
				Type:     avrcp.FolderType(item.Type),
			})
		}
	}

	return tracks, folders
}
