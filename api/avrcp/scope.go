package avrcp

// Scope identifies the browsable namespace that item UIDs currently
// refer to on the remote device.
type Scope byte

// The different browsing scopes.
const (
	ScopeNone Scope = iota // The zero value for this type.
	ScopeVFS
	ScopeNowPlaying
	ScopeSearch
)

// scopeNames holds names of the different scopes.
var scopeNames = map[Scope]string{
	ScopeNone:       "none",
	ScopeVFS:        "vfs",
	ScopeNowPlaying: "now-playing",
	ScopeSearch:     "search",
}

// String returns the name of the scope.
func (s Scope) String() string {
	return scopeNames[s]
}

// Status describes a protocol-level status code returned by the remote
// device for browsing and control operations.
type Status byte

// The different protocol status codes.
const (
	StatusSuccess Status = iota
	StatusBadRange
	StatusNotADirectory
	StatusNoAvailablePlayer
	StatusDoesNotExist
	StatusInternalError
	StatusUIDChanged
)

// Succeeded reports whether the status indicates success.
func (s Status) Succeeded() bool {
	return s == StatusSuccess
}

// Features describes the remote control features advertised by a peer.
type Features uint

// The different kinds of individual remote control features.
const (
	FeatureNone     Features = 0 // The zero value for this type.
	FeatureMetadata          = 1 << iota
	FeatureBrowsing
	FeatureAbsoluteVolume
	FeatureCoverArt
)

// FeatureMap holds a list of descriptions for each feature.
var FeatureMap = map[Features]string{
	FeatureMetadata:       "Metadata",
	FeatureBrowsing:       "Browsing",
	FeatureAbsoluteVolume: "Absolute Volume",
	FeatureCoverArt:       "Cover Art",
}

// Add adds the provided features to the existing features.
func (f *Features) Add(features ...Features) {
	for _, feature := range features {
		*f |= feature
	}
}

// Has reports whether all the provided features are present.
func (f Features) Has(features ...Features) bool {
	for _, feature := range features {
		if f&feature == 0 {
			return false
		}
	}

	return true
}

// PlayStatus indicates the playback status of the addressed player.
type PlayStatus byte

// The different values for the playback status.
const (
	PlayStatusStopped PlayStatus = 0x00
	PlayStatusPlaying PlayStatus = 0x01
	PlayStatusPaused  PlayStatus = 0x02
	PlayStatusFwdSeek PlayStatus = 0x03
	PlayStatusRevSeek PlayStatus = 0x04
	PlayStatusError   PlayStatus = 0xFF
)

// String returns the name of the playback status.
func (p PlayStatus) String() string {
	switch p {
	case PlayStatusStopped:
		return "stopped"
	case PlayStatusPlaying:
		return "playing"
	case PlayStatusPaused:
		return "paused"
	case PlayStatusFwdSeek:
		return "forward-seek"
	case PlayStatusRevSeek:
		return "reverse-seek"
	}

	return "error"
}

// PassThroughKey describes an AV/C pass-through operation id.
type PassThroughKey byte

// The pass-through operation ids sent to the remote device.
const (
	KeySelect      PassThroughKey = 0x00
	KeyUp          PassThroughKey = 0x01
	KeyDown        PassThroughKey = 0x02
	KeyVolumeUp    PassThroughKey = 0x41
	KeyVolumeDown  PassThroughKey = 0x42
	KeyMute        PassThroughKey = 0x43
	KeyPlay        PassThroughKey = 0x44
	KeyStop        PassThroughKey = 0x45
	KeyPause       PassThroughKey = 0x46
	KeyRewind      PassThroughKey = 0x48
	KeyFastForward PassThroughKey = 0x49
	KeyForward     PassThroughKey = 0x4B
	KeyBackward    PassThroughKey = 0x4C
)

// KeyState describes the press state of a pass-through key.
type KeyState byte

// The different pass-through key states.
const (
	KeyPressed  KeyState = 0
	KeyReleased KeyState = 1
)

// GroupNavigation describes a group navigation command.
type GroupNavigation uint16

// The different group navigation commands.
const (
	GroupNext     GroupNavigation = 0x0000
	GroupPrevious GroupNavigation = 0x0001
)

// BatteryStatus describes the reported battery status of the remote device.
type BatteryStatus byte

// The different battery status values.
const (
	BatteryNormal   BatteryStatus = 0x00
	BatteryWarning  BatteryStatus = 0x01
	BatteryCritical BatteryStatus = 0x02
	BatteryExternal BatteryStatus = 0x03
	BatteryFull     BatteryStatus = 0x04
)

// SystemStatus describes the reported system status of the remote device.
type SystemStatus byte

// The different system status values.
const (
	SystemPowerOn   SystemStatus = 0x00
	SystemPowerOff  SystemStatus = 0x01
	SystemUnplugged SystemStatus = 0x02
)
