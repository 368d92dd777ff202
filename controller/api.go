package controller

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// nativeConnection wraps a connection state change callback.
func nativeConnection(connected bool) native.Callback {
	return native.ConnectionStateChanged{Connected: connected}
}

// The avrcp.Controller surface. Every call is turned into one event
// variant and processed on the run loop; none of these methods block
// on protocol work.

// Connected notifies the controller that the remote control channel
// to a device was established.
func (s *StateMachine) Connected(address string) {
	s.Post(address, nativeConnection(true))
}

// Disconnected notifies the controller that the remote control channel
// to a device was torn down.
func (s *StateMachine) Disconnected(address string) {
	s.Post(address, nativeConnection(false))
}

// SendPassThrough sends an AV/C pass-through key action.
func (s *StateMachine) SendPassThrough(address string, key avrcp.PassThroughKey, state avrcp.KeyState) {
	s.post(reqPassThrough{address: address, key: key, state: state})
}

// SendGroupNavigation sends a group navigation command.
func (s *StateMachine) SendGroupNavigation(address string, group avrcp.GroupNavigation, state avrcp.KeyState) {
	s.post(reqGroupNavigation{address: address, group: group, state: state})
}

// SetPlayerApplicationSetting requests a player application setting
// change on the addressed player.
func (s *StateMachine) SetPlayerApplicationSetting(address string, attr avrcp.SettingAttribute, value byte) {
	s.post(reqSetPlayerSetting{address: address, attr: attr, value: value})
}

// InformBatteryStatus reports the local battery status to the remote
// device.
func (s *StateMachine) InformBatteryStatus(address string, status avrcp.BatteryStatus) {
	s.post(reqBatteryStatus{address: address, status: status})
}

// BrowseToRoot switches to the VFS scope and resets the folder stack
// to the root folder.
func (s *StateMachine) BrowseToRoot(address string) {
	s.post(reqBrowseToRoot{address: address})
}

// RefreshCurrentFolder fetches the listing of the current VFS folder.
func (s *StateMachine) RefreshCurrentFolder(address string, folderUID string) {
	s.post(reqRefreshCurrentFolder{address: address, folderUID: folderUID})
}

// LoadFolderUp navigates up the folder stack to the folder with the
// provided id.
func (s *StateMachine) LoadFolderUp(address string, folderUID string) {
	s.post(reqLoadFolderUp{address: address, folderUID: folderUID})
}

// LoadFolderDown navigates one level down into a folder present in the
// current VFS listing.
func (s *StateMachine) LoadFolderDown(address string, folderUID string) {
	s.post(reqLoadFolderDown{address: address, folderUID: folderUID})
}

// FetchNowPlayingList switches to the now playing scope and fetches
// the now playing list.
func (s *StateMachine) FetchNowPlayingList(address string) {
	s.post(reqFetchNowPlayingList{address: address})
}

// FetchBySearchString switches to the search scope, issues a search
// and fetches its results.
func (s *StateMachine) FetchBySearchString(address string, pattern string) {
	s.post(reqFetchBySearchString{address: address, pattern: pattern})
}

// SetBrowsedPlayer requests a browsed player change.
func (s *StateMachine) SetBrowsedPlayer(address string, id avrcp.PlayerID) {
	s.post(reqSetBrowsedPlayer{address: address, id: id})
}

// SetAddressedPlayer requests an addressed player change.
func (s *StateMachine) SetAddressedPlayer(address string, id avrcp.PlayerID) {
	s.post(reqSetAddressedPlayer{address: address, id: id})
}

// PlayItem plays the item with the provided UID in the current scope.
func (s *StateMachine) PlayItem(address string, uid avrcp.ItemUID) {
	s.post(reqPlayItem{address: address, uid: uid})
}

// AddToNowPlaying appends the item with the provided UID in the
// current scope to the now playing list.
func (s *StateMachine) AddToNowPlaying(address string, uid avrcp.ItemUID) {
	s.post(reqAddToNowPlaying{address: address, uid: uid})
}

// FetchThumbnail fetches the linked thumbnail for a cover art handle.
func (s *StateMachine) FetchThumbnail(address string, handle avrcp.CoverArtHandle) {
	s.post(reqFetchThumbnail{address: address, handle: handle})
}

// FetchImage fetches a full image for a cover art handle, negotiated
// against the session AppProperties.
func (s *StateMachine) FetchImage(address string, handle avrcp.CoverArtHandle) {
	s.post(reqFetchImage{address: address, handle: handle})
}

// SetAppProperties sets the session wide cover art negotiation
// parameters.
func (s *StateMachine) SetAppProperties(props avrcp.AppProperties) {
	s.post(reqSetAppProperties{props: props})
}
