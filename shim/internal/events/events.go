// Package events decodes server events of the shim wire protocol into
// native callback payloads.
package events

import (
	"fmt"

	"github.com/ugorji/go/codec"

	"github.com/bluetuith-org/avrcp-controller/native"
	"github.com/bluetuith-org/avrcp-controller/shim/internal/serde"
)

// EventID identifies the kind of a server event.
type EventID uint

// The server event identifiers.
const (
	EventNone EventID = iota
	EventConnection
	EventFeatures
	EventTrack
	EventPlayPosition
	EventPlayStatus
	EventSupportedSettings
	EventSettingChanged
	EventSetAbsVolume
	EventRegisterAbsVol
	EventAvailablePlayers
	EventAddressedPlayerChanged
	EventUIDsChanged
	EventNowPlayingChanged
	EventTotalItems
	EventBrowseFolder
	EventSearch
	EventChangePath
	EventSetBrowsedPlayer
	EventSetAddressedPlayer
	EventPlayItem
	EventAddToNowPlaying
)

// ServerEvent describes a raw event that was sent from the daemon.
type ServerEvent struct {
	EventId EventID   `json:"event_id,omitempty"`
	Address string    `json:"address,omitempty"`
	Event   codec.Raw `json:"event"`
}

// Decode decodes a server event into its native callback payload.
func Decode(ev ServerEvent) (native.Callback, error) {
	switch ev.EventId {
	case EventConnection:
		return unmarshal[native.ConnectionStateChanged](ev)
	case EventFeatures:
		return unmarshal[native.RCFeatures](ev)
	case EventTrack:
		return unmarshal[native.TrackChanged](ev)
	case EventPlayPosition:
		return unmarshal[native.PlayPositionChanged](ev)
	case EventPlayStatus:
		return unmarshal[native.PlayStatusChanged](ev)
	case EventSupportedSettings:
		return unmarshal[native.SupportedPlayerSettings](ev)
	case EventSettingChanged:
		return unmarshal[native.PlayerSettingChanged](ev)
	case EventSetAbsVolume:
		return unmarshal[native.SetAbsVolumeCommand](ev)
	case EventRegisterAbsVol:
		return unmarshal[native.RegisterAbsVolNotification](ev)
	case EventAvailablePlayers:
		return unmarshal[native.AvailablePlayersList](ev)
	case EventAddressedPlayerChanged:
		return unmarshal[native.AddressedPlayerChanged](ev)
	case EventUIDsChanged:
		return unmarshal[native.UIDsChanged](ev)
	case EventNowPlayingChanged:
		return unmarshal[native.NowPlayingListUpdate](ev)
	case EventTotalItems:
		return unmarshal[native.TotalItems](ev)
	case EventBrowseFolder:
		return unmarshal[native.BrowseFolderResponse](ev)
	case EventSearch:
		return unmarshal[native.SearchResponse](ev)
	case EventChangePath:
		return unmarshal[native.ChangePathResponse](ev)
	case EventSetBrowsedPlayer:
		return unmarshal[native.SetBrowsedPlayerResponse](ev)
	case EventSetAddressedPlayer:
		return unmarshal[native.SetAddressedPlayerResponse](ev)
	case EventPlayItem:
		return unmarshal[native.PlayItemResponse](ev)
	case EventAddToNowPlaying:
		return unmarshal[native.AddToNowPlayingResponse](ev)
	}

	return nil, fmt.Errorf("unknown server event id %d", ev.EventId)
}

// unmarshal decodes a server event payload into one callback variant.
func unmarshal[T native.Callback](ev ServerEvent) (native.Callback, error) {
	var event T

	if len(ev.Event) == 0 {
		return event, nil
	}

	return event, serde.Unmarshal(ev.Event, &event)
}
