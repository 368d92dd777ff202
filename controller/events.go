package controller

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/bip"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// event is the tagged union consumed by the state machine run loop.
// Every application request, native callback and BIP notification is
// one variant; all variants are processed in strict arrival order on
// one goroutine.
type event interface {
	event()
}

// callbackEvent wraps a native stack callback.
type callbackEvent struct {
	address  string
	callback native.Callback
}

// bipEvent wraps a BIP initiator notification.
type bipEvent struct {
	address string
	ev      bip.Event
}

// localVolumeChanged reports a local system volume change observed
// while registered for absolute volume notifications.
type localVolumeChanged struct {
	address string
	volume  byte
}

// The application request variants.
type (
	reqPassThrough struct {
		address string
		key     avrcp.PassThroughKey
		state   avrcp.KeyState
	}

	reqGroupNavigation struct {
		address string
		group   avrcp.GroupNavigation
		state   avrcp.KeyState
	}

	reqSetPlayerSetting struct {
		address string
		attr    avrcp.SettingAttribute
		value   byte
	}

	reqBatteryStatus struct {
		address string
		status  avrcp.BatteryStatus
	}

	reqBrowseToRoot struct {
		address string
	}

	reqRefreshCurrentFolder struct {
		address   string
		folderUID string
	}

	reqLoadFolderUp struct {
		address   string
		folderUID string
	}

	reqLoadFolderDown struct {
		address   string
		folderUID string
	}

	reqFetchNowPlayingList struct {
		address string
	}

	reqFetchBySearchString struct {
		address string
		pattern string
	}

	reqSetBrowsedPlayer struct {
		address string
		id      avrcp.PlayerID
	}

	reqSetAddressedPlayer struct {
		address string
		id      avrcp.PlayerID
	}

	reqPlayItem struct {
		address string
		uid     avrcp.ItemUID
	}

	reqAddToNowPlaying struct {
		address string
		uid     avrcp.ItemUID
	}

	reqFetchThumbnail struct {
		address string
		handle  avrcp.CoverArtHandle
	}

	reqFetchImage struct {
		address string
		handle  avrcp.CoverArtHandle
	}

	reqSetAppProperties struct {
		props avrcp.AppProperties
	}
)

func (callbackEvent) event()           {}
func (bipEvent) event()                {}
func (localVolumeChanged) event()      {}
func (reqPassThrough) event()          {}
func (reqGroupNavigation) event()      {}
func (reqSetPlayerSetting) event()     {}
func (reqBatteryStatus) event()        {}
func (reqBrowseToRoot) event()         {}
func (reqRefreshCurrentFolder) event() {}
func (reqLoadFolderUp) event()         {}
func (reqLoadFolderDown) event()       {}
func (reqFetchNowPlayingList) event()  {}
func (reqFetchBySearchString) event()  {}
func (reqSetBrowsedPlayer) event()     {}
func (reqSetAddressedPlayer) event()   {}
func (reqPlayItem) event()             {}
func (reqAddToNowPlaying) event()      {}
func (reqFetchThumbnail) event()       {}
func (reqFetchImage) event()           {}
func (reqSetAppProperties) event()     {}
