package native

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// Callback is the tagged union of all native stack callback payloads.
type Callback interface {
	callback()
}

// ConnectionStateChanged reports a remote control channel state change.
type ConnectionStateChanged struct {
	Connected bool `json:"connected"`
}

// RCFeatures reports the discovered remote control features and the
// cover art L2CAP PSM.
type RCFeatures struct {
	Features avrcp.Features `json:"features"`
	CaPsm    uint16         `json:"ca_psm,omitempty"`
}

// AttrEntry is one (attribute id, value) pair of a track metadata
// response.
type AttrEntry struct {
	ID    avrcp.MediaAttribute `json:"id"`
	Value string               `json:"value"`
}

// TrackChanged reports new element attributes for the playing track.
type TrackChanged struct {
	Attrs []AttrEntry `json:"attrs"`
}

// PlayPositionChanged reports a playback position change.
type PlayPositionChanged struct {
	SongLen  uint32 `json:"song_len"`
	Position uint32 `json:"position"`
}

// PlayStatusChanged reports a playback status change.
type PlayStatusChanged struct {
	Status avrcp.PlayStatus `json:"status"`
}

// SupportedPlayerSettings reports the supported player application
// settings of the addressed player.
type SupportedPlayerSettings struct {
	Settings []avrcp.PlayerSetting `json:"settings"`
}

// PlayerSettingChanged reports changed player application setting
// values as raw attribute/value pairs.
type PlayerSettingChanged struct {
	Attrs  []avrcp.SettingAttribute `json:"attrs"`
	Values []byte                   `json:"values"`
}

// SetAbsVolumeCommand is the remote's request to set the local volume.
type SetAbsVolumeCommand struct {
	Volume byte `json:"volume"`
	Label  byte `json:"label"`
}

// RegisterAbsVolNotification is the remote's request to be notified of
// local volume changes.
type RegisterAbsVolNotification struct {
	Label byte `json:"label"`
}

// PlayerEntry is one player record of an available players response.
type PlayerEntry struct {
	ID          avrcp.PlayerID        `json:"id"`
	Subtype     avrcp.PlayerSubtype   `json:"subtype,omitempty"`
	MajorType   avrcp.PlayerMajorType `json:"major_type,omitempty"`
	PlayStatus  avrcp.PlayStatus      `json:"play_status,omitempty"`
	FeatureMask []byte                `json:"feature_mask,omitempty"`
	Name        string                `json:"name,omitempty"`
}

// AvailablePlayersList reports the remote's media player list.
type AvailablePlayersList struct {
	UIDCounter uint16        `json:"uid_counter"`
	Players    []PlayerEntry `json:"players"`
}

// TotalItems reports a get total number of items response.
type TotalItems struct {
	Status     avrcp.Status `json:"status"`
	UIDCounter uint16       `json:"uid_counter"`
	NumItems   uint32       `json:"num_items"`
}

// BrowseItemType discriminates folder and media entries of a browse
// folder response.
type BrowseItemType byte

// The browse item types.
const (
	BrowseItemPlayer BrowseItemType = 0x01
	BrowseItemFolder BrowseItemType = 0x02
	BrowseItemMedia  BrowseItemType = 0x03
)

// BrowseItem is one entry of a browse folder response.
type BrowseItem struct {
	ItemType BrowseItemType `json:"item_type"`
	UID      avrcp.ItemUID  `json:"uid"`
	Type     byte           `json:"type,omitempty"`
	Playable bool           `json:"playable,omitempty"`
	Name     string         `json:"name,omitempty"`
	Attrs    []AttrEntry    `json:"attrs,omitempty"`
}

// BrowseFolderResponse reports one page of a browse folder exchange.
type BrowseFolderResponse struct {
	Status     avrcp.Status `json:"status"`
	UIDCounter uint16       `json:"uid_counter"`
	NumItems   uint32       `json:"num_items"`
	Items      []BrowseItem `json:"items,omitempty"`
}

// AddressedPlayerChanged reports an addressed player change initiated
// by the remote device.
type AddressedPlayerChanged struct {
	PlayerID   avrcp.PlayerID `json:"player_id"`
	UIDCounter uint16         `json:"uid_counter"`
}

// SetBrowsedPlayerResponse reports a set browsed player response.
type SetBrowsedPlayerResponse struct {
	Status     avrcp.Status `json:"status"`
	UIDCounter uint16       `json:"uid_counter"`
	NumItems   uint32       `json:"num_items"`
	Depth      uint8        `json:"depth"`
}

// SetAddressedPlayerResponse reports a set addressed player response.
type SetAddressedPlayerResponse struct {
	Status avrcp.Status `json:"status"`
}

// ChangePathResponse reports a change path response.
type ChangePathResponse struct {
	Status   avrcp.Status `json:"status"`
	NumItems uint32       `json:"num_items"`
}

// SearchResponse reports a search response.
type SearchResponse struct {
	Status     avrcp.Status `json:"status"`
	UIDCounter uint16       `json:"uid_counter"`
	NumItems   uint32       `json:"num_items"`
}

// NowPlayingListUpdate signals that the now playing list changed on
// the remote device.
type NowPlayingListUpdate struct{}

// AddToNowPlayingResponse reports an add to now playing list response.
type AddToNowPlayingResponse struct {
	Status avrcp.Status `json:"status"`
}

// PlayItemResponse reports a play item response.
type PlayItemResponse struct {
	Status avrcp.Status `json:"status"`
}

// UIDsChanged reports a UID counter change: all browsable item UIDs of
// previous epochs are invalid.
type UIDsChanged struct {
	UIDCounter uint16 `json:"uid_counter"`
}

func (ConnectionStateChanged) callback()     {}
func (RCFeatures) callback()                 {}
func (TrackChanged) callback()               {}
func (PlayPositionChanged) callback()        {}
func (PlayStatusChanged) callback()          {}
func (SupportedPlayerSettings) callback()    {}
func (PlayerSettingChanged) callback()       {}
func (SetAbsVolumeCommand) callback()        {}
func (RegisterAbsVolNotification) callback() {}
func (AvailablePlayersList) callback()       {}
func (TotalItems) callback()                 {}
func (BrowseFolderResponse) callback()       {}
func (AddressedPlayerChanged) callback()     {}
func (SetBrowsedPlayerResponse) callback()   {}
func (SetAddressedPlayerResponse) callback() {}
func (ChangePathResponse) callback()         {}
func (SearchResponse) callback()             {}
func (NowPlayingListUpdate) callback()       {}
func (AddToNowPlayingResponse) callback()    {}
func (PlayItemResponse) callback()           {}
func (UIDsChanged) callback()                {}
