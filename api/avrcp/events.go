package avrcp

import (
	"github.com/bluetuith-org/avrcp-controller/api/eventbus"
)

// The event stream IDs published by the controller.
const (
	EventNone eventbus.EventID = iota // The zero value for this type.
	EventConnection
	EventTrack
	EventPlayer
	EventBrowse
	EventImage
)

// ConnectionEvent reports a device connection state change.
type ConnectionEvent struct {
	Address   string   `json:"address"`
	Connected bool     `json:"connected"`
	Features  Features `json:"features,omitempty"`
}

// TrackEvent reports currently playing track and playback changes.
type TrackEvent struct {
	Address  string     `json:"address"`
	Track    TrackInfo  `json:"track"`
	Status   PlayStatus `json:"status"`
	Position uint32     `json:"position,omitempty"`
	Length   uint32     `json:"length,omitempty"`
}

// PlayerEvent reports player list and addressed player changes.
type PlayerEvent struct {
	Address   string       `json:"address"`
	Player    PlayerInfo   `json:"player"`
	Available []PlayerInfo `json:"available,omitempty"`
}

// BrowseEvent reports a completed browse listing for a scope.
type BrowseEvent struct {
	Address string        `json:"address"`
	Scope   Scope         `json:"scope"`
	Depth   int           `json:"depth,omitempty"`
	Tracks  []TrackInfo   `json:"tracks,omitempty"`
	Folders []FolderItems `json:"folders,omitempty"`
}

// ImageEvent reports a completed or failed cover art fetch.
type ImageEvent struct {
	Address  string         `json:"address"`
	Handle   CoverArtHandle `json:"handle"`
	Location ArtLocation    `json:"location,omitempty"`
}

// ConnectionEvents returns the typed connection event stream on a bus.
func ConnectionEvents(bus *eventbus.Bus) eventbus.Stream[ConnectionEvent] {
	return eventbus.NewStream[ConnectionEvent](bus, EventConnection)
}

// TrackEvents returns the typed track event stream on a bus.
func TrackEvents(bus *eventbus.Bus) eventbus.Stream[TrackEvent] {
	return eventbus.NewStream[TrackEvent](bus, EventTrack)
}

// PlayerEvents returns the typed player event stream on a bus.
func PlayerEvents(bus *eventbus.Bus) eventbus.Stream[PlayerEvent] {
	return eventbus.NewStream[PlayerEvent](bus, EventPlayer)
}

// BrowseEvents returns the typed browse event stream on a bus.
func BrowseEvents(bus *eventbus.Bus) eventbus.Stream[BrowseEvent] {
	return eventbus.NewStream[BrowseEvent](bus, EventBrowse)
}

// ImageEvents returns the typed image event stream on a bus.
func ImageEvents(bus *eventbus.Bus) eventbus.Stream[ImageEvent] {
	return eventbus.NewStream[ImageEvent](bus, EventImage)
}
