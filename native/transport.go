// Package native defines the boundary to the native AVRCP stack: the
// command surface the controller produces, and the callback payloads
// the native stack delivers back.
package native

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// ChangeDirection describes the direction of a change path command.
type ChangeDirection byte

// The change path directions.
const (
	DirectionUp   ChangeDirection = 0x00
	DirectionDown ChangeDirection = 0x01
)

// CharsetUTF8 is the character set id used for search patterns.
const CharsetUTF8 uint16 = 0x006A

// Transport describes the command surface of the native AVRCP stack.
// All calls are fire-and-forget: responses arrive asynchronously as
// callbacks posted to an EventSink.
type Transport interface {
	SendPassThroughCommand(address string, key avrcp.PassThroughKey, state avrcp.KeyState) error
	SendGroupNavigationCommand(address string, group avrcp.GroupNavigation, state avrcp.KeyState) error

	SetPlayerApplicationSettingValues(address string, attrs []avrcp.SettingAttribute, values []byte) error
	InformBatteryStatus(address string, status avrcp.BatteryStatus) error

	SendAbsVolRsp(address string, volume byte, label byte) error
	SendRegisterAbsVolRsp(address string, volume byte, label byte) error

	GetElementAttributes(address string, attrs []avrcp.MediaAttribute) error
	GetTotalNumberOfItems(address string, scope avrcp.Scope) error
	BrowseFolder(address string, scope avrcp.Scope, start, end uint32, attrs []avrcp.MediaAttribute) error

	SetBrowsedPlayer(address string, id avrcp.PlayerID) error
	SetAddressedPlayer(address string, id avrcp.PlayerID) error
	ChangePath(address string, uidCounter uint16, direction ChangeDirection, uid avrcp.ItemUID) error

	AddToNowPlayingList(address string, scope avrcp.Scope, uid avrcp.ItemUID, uidCounter uint16) error
	PlayItem(address string, scope avrcp.Scope, uid avrcp.ItemUID, uidCounter uint16) error
	Search(address string, charset uint16, pattern string) error
}

// EventSink accepts native stack callbacks for a device. The controller
// implements this interface; the native bridge posts into it.
type EventSink interface {
	// Post delivers one native callback payload. Post never blocks
	// the native bridge for longer than an enqueue.
	Post(address string, callback Callback)
}
