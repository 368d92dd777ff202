package commands

// Option describes an option to a command.
type Option string

// The various types of options.
const (
	SocketOption     Option = "--socket-path"
	AddressOption    Option = "--address"
	ScopeOption      Option = "--scope"
	StartOption      Option = "--start-index"
	EndOption        Option = "--end-index"
	AttributesOption Option = "--attributes"
	ValuesOption     Option = "--values"
	UIDOption        Option = "--uid"
	UIDCounterOption Option = "--uid-counter"
	DirectionOption  Option = "--direction"
	PlayerOption     Option = "--player-id"
	PatternOption    Option = "--pattern"
	CharsetOption    Option = "--charset"
	VolumeOption     Option = "--volume"
	LabelOption      Option = "--label"
	KeyOption        Option = "--key"
	KeyStateOption   Option = "--key-state"
	StatusOption     Option = "--status"
	PsmOption        Option = "--psm"
)

// String returns a string representation of the option.
func (a Option) String() string {
	return string(a)
}
