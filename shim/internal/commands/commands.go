// Package commands builds the typed command invocations of the shim
// wire protocol.
package commands

import (
	"strconv"
	"strings"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// CoverArtSocket is the bridged OBEX transport endpoint of a device's
// cover art responder, opened by the daemon.
type CoverArtSocket struct {
	Path string `json:"path"`
}

// Session commands.
// GetDaemonVersion invokes the "rpc version" command.
func GetDaemonVersion() *Command[string] {
	return &Command[string]{cmd: "rpc version"}
}

// Control commands.
// SendKey invokes the "control send-key" command.
func SendKey(Address string, Key avrcp.PassThroughKey, State avrcp.KeyState) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "control send-key"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[KeyOption] = strconv.FormatUint(uint64(Key), 10)
		om[KeyStateOption] = strconv.FormatUint(uint64(State), 10)
	})
}

// SendGroupNavigation invokes the "control send-group-navigation" command.
func SendGroupNavigation(Address string, Group avrcp.GroupNavigation, State avrcp.KeyState) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "control send-group-navigation"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[KeyOption] = strconv.FormatUint(uint64(Group), 10)
		om[KeyStateOption] = strconv.FormatUint(uint64(State), 10)
	})
}

// InformBatteryStatus invokes the "control battery-status" command.
func InformBatteryStatus(Address string, Status avrcp.BatteryStatus) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "control battery-status"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[StatusOption] = strconv.FormatUint(uint64(Status), 10)
	})
}

// Player commands.
// SetPlayerSettings invokes the "player set-settings" command.
func SetPlayerSettings(Address string, Attrs []avrcp.SettingAttribute, Values []byte) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "player set-settings"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[AttributesOption] = settingList(Attrs)
		om[ValuesOption] = byteList(Values)
	})
}

// SetBrowsedPlayer invokes the "player set-browsed" command.
func SetBrowsedPlayer(Address string, Player avrcp.PlayerID) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "player set-browsed"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[PlayerOption] = strconv.FormatUint(uint64(Player), 10)
	})
}

// SetAddressedPlayer invokes the "player set-addressed" command.
func SetAddressedPlayer(Address string, Player avrcp.PlayerID) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "player set-addressed"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[PlayerOption] = strconv.FormatUint(uint64(Player), 10)
	})
}

// Volume commands.
// AbsVolumeResponse invokes the "volume send-response" command.
func AbsVolumeResponse(Address string, Volume byte, Label byte) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "volume send-response"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[VolumeOption] = strconv.FormatUint(uint64(Volume), 10)
		om[LabelOption] = strconv.FormatUint(uint64(Label), 10)
	})
}

// AbsVolumeNotification invokes the "volume send-notification" command.
func AbsVolumeNotification(Address string, Volume byte, Label byte) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "volume send-notification"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[VolumeOption] = strconv.FormatUint(uint64(Volume), 10)
		om[LabelOption] = strconv.FormatUint(uint64(Label), 10)
	})
}

// Track commands.
// GetElementAttributes invokes the "track get-attributes" command.
func GetElementAttributes(Address string, Attrs []avrcp.MediaAttribute) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "track get-attributes"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		if len(Attrs) > 0 {
			om[AttributesOption] = attributeList(Attrs)
		}
	})
}

// Browse commands.
// GetTotalItems invokes the "browse total-items" command.
func GetTotalItems(Address string, Scope avrcp.Scope) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "browse total-items"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[ScopeOption] = strconv.FormatUint(uint64(Scope), 10)
	})
}

// BrowseFolder invokes the "browse list" command.
func BrowseFolder(Address string, Scope avrcp.Scope, Start, End uint32, Attrs []avrcp.MediaAttribute) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "browse list"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[ScopeOption] = strconv.FormatUint(uint64(Scope), 10)
		om[StartOption] = strconv.FormatUint(uint64(Start), 10)
		om[EndOption] = strconv.FormatUint(uint64(End), 10)
		if len(Attrs) > 0 {
			om[AttributesOption] = attributeList(Attrs)
		}
	})
}

// ChangePath invokes the "browse change-path" command.
func ChangePath(Address string, UIDCounter uint16, Direction native.ChangeDirection, UID avrcp.ItemUID) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "browse change-path"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[UIDCounterOption] = strconv.FormatUint(uint64(UIDCounter), 10)
		om[DirectionOption] = strconv.FormatUint(uint64(Direction), 10)
		om[UIDOption] = strconv.FormatUint(uint64(UID), 10)
	})
}

// PlayItem invokes the "browse play-item" command.
func PlayItem(Address string, Scope avrcp.Scope, UID avrcp.ItemUID, UIDCounter uint16) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "browse play-item"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[ScopeOption] = strconv.FormatUint(uint64(Scope), 10)
		om[UIDOption] = strconv.FormatUint(uint64(UID), 10)
		om[UIDCounterOption] = strconv.FormatUint(uint64(UIDCounter), 10)
	})
}

// AddToNowPlaying invokes the "browse add-to-now-playing" command.
func AddToNowPlaying(Address string, Scope avrcp.Scope, UID avrcp.ItemUID, UIDCounter uint16) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "browse add-to-now-playing"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[ScopeOption] = strconv.FormatUint(uint64(Scope), 10)
		om[UIDOption] = strconv.FormatUint(uint64(UID), 10)
		om[UIDCounterOption] = strconv.FormatUint(uint64(UIDCounter), 10)
	})
}

// Search invokes the "browse search" command.
func Search(Address string, Charset uint16, Pattern string) *Command[NoResult] {
	return (&Command[NoResult]{cmd: "browse search"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[CharsetOption] = strconv.FormatUint(uint64(Charset), 10)
		om[PatternOption] = Pattern
	})
}

// Cover art commands.
// OpenCoverArtSocket invokes the "coverart open-socket" command.
func OpenCoverArtSocket(Address string, Psm uint16) *Command[CoverArtSocket] {
	return (&Command[CoverArtSocket]{cmd: "coverart open-socket"}).WithOptions(func(om OptionMap) {
		om[AddressOption] = Address
		om[PsmOption] = strconv.FormatUint(uint64(Psm), 10)
	})
}

// attributeList formats media attribute ids as a comma-separated list.
func attributeList(attrs []avrcp.MediaAttribute) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, strconv.FormatUint(uint64(attr), 10))
	}

	return strings.Join(parts, ",")
}

// settingList formats setting attribute ids as a comma-separated list.
func settingList(attrs []avrcp.SettingAttribute) string {
	parts := make([]string, 0, len(attrs))
	for _, attr := range attrs {
		parts = append(parts, strconv.FormatUint(uint64(attr), 10))
	}

	return strings.Join(parts, ",")
}

// byteList formats raw byte values as a comma-separated list.
func byteList(values []byte) string {
	parts := make([]string, 0, len(values))
	for _, value := range values {
		parts = append(parts, strconv.FormatUint(uint64(value), 10))
	}

	return strings.Join(parts, ",")
}
