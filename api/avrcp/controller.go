package avrcp

// AppProperties holds the cover art negotiation parameters supplied by
// the application before any image fetch is issued. The values are
// session wide.
type AppProperties struct {
	// CoverArtRequested specifies whether the application wants
	// cover art to be fetched at all.
	CoverArtRequested bool `json:"cover_art_requested,omitempty"`

	// MimeType holds the preferred image mime type (encoding).
	MimeType string `json:"mime_type,omitempty"`

	// MaxWidth and MaxHeight bound the requested image dimensions.
	MaxWidth  int `json:"max_width,omitempty"`
	MaxHeight int `json:"max_height,omitempty"`

	// MaxSize bounds the requested image size in bytes.
	MaxSize int64 `json:"max_size,omitempty"`
}

// Controller describes the application-facing function call interface
// of the AVRCP controller. All calls are asynchronous: results are
// delivered through the BrowseServiceAdapter and the event groups.
type Controller interface {
	// Connected notifies the controller that the remote control
	// channel to a device was established.
	Connected(address string)

	// Disconnected notifies the controller that the remote control
	// channel to a device was torn down.
	Disconnected(address string)

	// SendPassThrough sends an AV/C pass-through key action.
	SendPassThrough(address string, key PassThroughKey, state KeyState)

	// SendGroupNavigation sends a group navigation command.
	SendGroupNavigation(address string, group GroupNavigation, state KeyState)

	// SetPlayerApplicationSetting requests a player application
	// setting change on the addressed player.
	SetPlayerApplicationSetting(address string, attr SettingAttribute, value byte)

	// InformBatteryStatus reports the local battery status to the
	// remote device.
	InformBatteryStatus(address string, status BatteryStatus)

	// BrowseToRoot switches to the VFS scope and resets the folder
	// stack to the root folder.
	BrowseToRoot(address string)

	// RefreshCurrentFolder fetches the listing of the current VFS
	// folder. The folder id must match the top of the folder stack.
	RefreshCurrentFolder(address string, folderUID string)

	// LoadFolderUp navigates up the folder stack to the folder with
	// the provided id.
	LoadFolderUp(address string, folderUID string)

	// LoadFolderDown navigates one level down into a folder present
	// in the current VFS listing.
	LoadFolderDown(address string, folderUID string)

	// FetchNowPlayingList switches to the now playing scope and
	// fetches the now playing list.
	FetchNowPlayingList(address string)

	// FetchBySearchString switches to the search scope, issues a
	// search and fetches its results.
	FetchBySearchString(address string, pattern string)

	// SetBrowsedPlayer requests a browsed player change.
	SetBrowsedPlayer(address string, id PlayerID)

	// SetAddressedPlayer requests an addressed player change.
	SetAddressedPlayer(address string, id PlayerID)

	// PlayItem plays the item with the provided UID in the current
	// scope.
	PlayItem(address string, uid ItemUID)

	// AddToNowPlaying appends the item with the provided UID in the
	// current scope to the now playing list.
	AddToNowPlaying(address string, uid ItemUID)

	// FetchThumbnail fetches the linked thumbnail for a cover art
	// handle through the device's BIP session.
	FetchThumbnail(address string, handle CoverArtHandle)

	// FetchImage fetches a full image for a cover art handle,
	// negotiated against the session AppProperties.
	FetchImage(address string, handle CoverArtHandle)

	// SetAppProperties sets the session wide cover art negotiation
	// parameters. Must be called before any fetch is issued.
	SetAppProperties(props AppProperties)
}

// BrowseServiceAdapter describes the callback contract of the external
// media browser collaborator. Implementations must not call back into
// the Controller from within these callbacks.
type BrowseServiceAdapter interface {
	// UpdateVFSList delivers a completed VFS folder listing.
	UpdateVFSList(address string, tracks []TrackInfo, folders []FolderItems)

	// UpdateNowPlayingList delivers a completed now playing listing.
	UpdateNowPlayingList(address string, tracks []TrackInfo)

	// UpdateSearchList delivers a completed search result listing.
	UpdateSearchList(address string, tracks []TrackInfo)

	// UpdateFolderStackDepth reports the current VFS folder depth
	// after a navigation completes.
	UpdateFolderStackDepth(address string, depth int)

	// TrackChanged reports new metadata for the currently playing
	// track.
	TrackChanged(address string, track TrackInfo)

	// PlayStatusChanged reports a playback status change.
	PlayStatusChanged(address string, status PlayStatus)

	// PlayPositionChanged reports a playback position change.
	PlayPositionChanged(address string, songLen, position uint32)

	// PlayerChanged reports an addressed player change.
	PlayerChanged(address string, player PlayerInfo)

	// ImageFetched reports a completed (or failed, with an empty
	// location) cover art fetch.
	ImageFetched(address string, handle CoverArtHandle, location ArtLocation)
}
