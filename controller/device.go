package controller

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/bip"
)

// volNotificationState is the absolute volume notification flag.
type volNotificationState byte

// The absolute volume notification states. DEFER suppresses exactly
// one local volume change, absorbing the echo of the remote's own
// SetAbsVolume command; SEND reports genuinely new local changes.
const (
	volDefer volNotificationState = iota
	volSend
)

// RemoteDevice is the session-scoped state of one connected peer. It
// is created on the CONNECTED transition and destroyed, with its BIP
// session, on DISCONNECTED. Only the state machine goroutine touches
// it.
type RemoteDevice struct {
	Address string

	Features avrcp.Features
	CaPsm    uint16

	// Battery is the last local battery status reported to the
	// device.
	Battery avrcp.BatteryStatus

	// UIDCounter is the invalidation epoch of all browsable item
	// UIDs.
	UIDCounter uint16

	Scope avrcp.Scope

	Queue *PendingCommandQueue

	Players *RemoteMediaPlayers

	// FileSystem and NowPlaying are created only once the RC
	// features report browsing and metadata support.
	FileSystem *RemoteFileSystem
	NowPlaying *NowPlaying

	// Bip is the owned cover art session, created only when the RC
	// features report cover art support.
	Bip *bip.Initiator

	commandInFlight bool

	// changePathDelta is the remaining signed depth delta of a
	// multi-level folder navigation; one change path command is
	// issued per level.
	changePathDelta int
	pendingDown     FolderStackInfo

	volState       volNotificationState
	volLabel       byte
	volObserverSet bool

	// pendingThumbs is the remaining thumbnail fetch backlog for
	// the last delivered listing; handles are fetched one at a time
	// through the BIP initiator.
	pendingThumbs []avrcp.CoverArtHandle
}

// newRemoteDevice returns the connected-state model of a peer, with a
// default addressed player for pre-1.4 remotes.
func newRemoteDevice(address string) *RemoteDevice {
	return &RemoteDevice{
		Address: address,
		Queue:   NewPendingCommandQueue(),
		Players: NewRemoteMediaPlayers(),
	}
}

// Browsable reports whether the device advertised browsing support.
func (d *RemoteDevice) Browsable() bool {
	return d.FileSystem != nil
}

// bipConnected reports whether the device's BIP session is usable.
func (d *RemoteDevice) bipConnected() bool {
	return d.Bip != nil && d.Bip.Connected()
}

// clearTransientLists discards all scope listings.
func (d *RemoteDevice) clearTransientLists() {
	if d.FileSystem != nil {
		d.FileSystem.ClearAll()
	}
	if d.NowPlaying != nil {
		d.NowPlaying.ClearList()
	}

	d.pendingThumbs = nil
}
