package avrcp

// PlayerID identifies a media player on the remote device.
type PlayerID uint16

// DefaultPlayerID is the synthetic player id assigned to the default
// player of a pre-1.4 remote that never announces a player list.
const DefaultPlayerID PlayerID = 0

// SettingAttribute identifies a player application setting attribute.
type SettingAttribute byte

// The different player application setting attributes.
const (
	SettingEqualizer SettingAttribute = 0x01
	SettingRepeat    SettingAttribute = 0x02
	SettingShuffle   SettingAttribute = 0x03
	SettingScan      SettingAttribute = 0x04
)

// settingNames holds names of the different setting attributes.
var settingNames = map[SettingAttribute]string{
	SettingEqualizer: "equalizer",
	SettingRepeat:    "repeat",
	SettingShuffle:   "shuffle",
	SettingScan:      "scan",
}

// String returns the name of the setting attribute.
func (s SettingAttribute) String() string {
	return settingNames[s]
}

// PlayerSetting holds one player application setting: its attribute,
// the currently selected value and the set of supported values.
type PlayerSetting struct {
	// Attribute holds the setting attribute id.
	Attribute SettingAttribute `json:"attribute"`

	// Current holds the currently selected value.
	Current byte `json:"current"`

	// Supported holds the set of supported values.
	Supported []byte `json:"supported,omitempty"`
}

// PlayerSubtype describes the subtype of a remote media player.
type PlayerSubtype uint32

// PlayerMajorType describes the major type of a remote media player.
type PlayerMajorType byte

// PlayerInfo holds the state of one remote media player.
type PlayerInfo struct {
	// ID holds the player id.
	ID PlayerID `json:"id"`

	// Name holds the display name of the player.
	Name string `json:"name,omitempty"`

	// Subtype holds the player subtype.
	Subtype PlayerSubtype `json:"subtype,omitempty"`

	// MajorType holds the player major type.
	MajorType PlayerMajorType `json:"major_type,omitempty"`

	// FeatureMask holds the raw player feature bitmask.
	FeatureMask []byte `json:"feature_mask,omitempty"`

	// Status holds the playback status of the player.
	Status PlayStatus `json:"status"`

	// Position holds the playback position in milliseconds.
	Position uint32 `json:"position,omitempty"`

	// Settings holds the supported player application settings,
	// keyed by attribute.
	Settings map[SettingAttribute]*PlayerSetting `json:"settings,omitempty"`
}

// NewPlayerInfo returns a new PlayerInfo with the provided id.
func NewPlayerInfo(id PlayerID) *PlayerInfo {
	return &PlayerInfo{
		ID:       id,
		Status:   PlayStatusStopped,
		Settings: make(map[SettingAttribute]*PlayerSetting),
	}
}

// SupportsSetting reports whether the player supports the provided
// setting attribute and value.
func (p *PlayerInfo) SupportsSetting(attr SettingAttribute, value byte) bool {
	setting, ok := p.Settings[attr]
	if !ok {
		return false
	}

	for _, v := range setting.Supported {
		if v == value {
			return true
		}
	}

	return false
}

// UpdateSetting updates the current value of a supported setting.
// Unknown attributes are ignored.
func (p *PlayerInfo) UpdateSetting(attr SettingAttribute, value byte) {
	if setting, ok := p.Settings[attr]; ok {
		setting.Current = value
	}
}
