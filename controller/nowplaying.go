package controller

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// NowPlaying owns the now playing list and the designated current
// track (the UID 0 slot). Track changes update the current track
// incrementally without discarding list entries.
type NowPlaying struct {
	tracks []avrcp.TrackInfo

	current    avrcp.TrackInfo
	hasCurrent bool
}

// NewNowPlaying returns an empty now playing model.
func NewNowPlaying() *NowPlaying {
	return &NowPlaying{}
}

// Current returns the currently playing track.
func (n *NowPlaying) Current() (avrcp.TrackInfo, bool) {
	return n.current, n.hasCurrent
}

// SetCurrent replaces the currently playing track.
func (n *NowPlaying) SetCurrent(track avrcp.TrackInfo) {
	n.current = track
	n.hasCurrent = true
}

// Track returns the track with the provided UID. UID 0 is reserved for
// the currently playing track and resolves to the current slot, not a
// list entry.
func (n *NowPlaying) Track(uid avrcp.ItemUID) (avrcp.TrackInfo, bool) {
	if uid == avrcp.UIDCurrentTrack {
		return n.Current()
	}

	for _, track := range n.tracks {
		if track.UID == uid {
			return track, true
		}
	}

	return avrcp.TrackInfo{}, false
}

// List returns the now playing list.
func (n *NowPlaying) List() []avrcp.TrackInfo {
	return n.tracks
}

// Append appends one browse response page to the list.
func (n *NowPlaying) Append(tracks []avrcp.TrackInfo) {
	n.tracks = append(n.tracks, tracks...)
}

// UpdateArt records a fetched art location on the current track and
// every list entry carrying the handle.
func (n *NowPlaying) UpdateArt(handle avrcp.CoverArtHandle, location avrcp.ArtLocation, thumbnail bool) {
	updateArt(n.tracks, handle, location, thumbnail)

	if n.hasCurrent && n.current.ArtHandle == handle {
		if thumbnail {
			n.current.ThumbLocation = location
		} else {
			n.current.ImageLocation = location
		}
	}
}

// ClearList discards the list, keeping the current track.
func (n *NowPlaying) ClearList() {
	n.tracks = nil
}

// Clear discards the list and the current track.
func (n *NowPlaying) Clear() {
	n.tracks = nil
	n.current = avrcp.TrackInfo{}
	n.hasCurrent = false
}
