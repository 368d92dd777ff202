package avrcp

// ItemUID is the 64-bit unique identifier of a browsable item, valid
// for one UID counter epoch.
type ItemUID uint64

// The reserved item UID values.
const (
	// UIDCurrentTrack addresses the currently playing track inside
	// the now playing list.
	UIDCurrentTrack ItemUID = 0

	// UIDInvalid marks an item without a usable UID.
	UIDInvalid ItemUID = 0xFFFFFFFFFFFFFFFF
)

// CoverArtHandle is the remote image handle of an item's cover art.
type CoverArtHandle string

// The sentinel cover art handle values.
const (
	// HandleNotSupported marks an item for which the remote device
	// advertised no cover art.
	HandleNotSupported CoverArtHandle = "NOT_SUPPORTED"
)

// Valid reports whether the handle refers to an actual remote image.
func (h CoverArtHandle) Valid() bool {
	return h != "" && h != HandleNotSupported
}

// ArtLocation is the local filesystem location of fetched cover art.
type ArtLocation string

// LocationEmpty marks art that has not been fetched yet.
const LocationEmpty ArtLocation = "EMPTY"

// Exists reports whether the location points to a fetched file.
func (l ArtLocation) Exists() bool {
	return l != "" && l != LocationEmpty
}

// MediaType describes the media type of a browsable item.
type MediaType byte

// The different media types.
const (
	MediaTypeAudio MediaType = 0x00
	MediaTypeVideo MediaType = 0x01
)

// FolderType describes the folder type of a browsable folder item.
type FolderType byte

// The different folder types.
const (
	FolderMixed     FolderType = 0x00
	FolderTitles    FolderType = 0x01
	FolderAlbums    FolderType = 0x02
	FolderArtists   FolderType = 0x03
	FolderGenres    FolderType = 0x04
	FolderPlaylists FolderType = 0x05
	FolderYears     FolderType = 0x06
)

// TrackInfo holds the metadata of a browsable or currently playing
// media element.
type TrackInfo struct {
	// UID holds the item UID of the track within its scope.
	UID ItemUID `json:"uid"`

	// Title holds the title name of the track.
	Title string `json:"title,omitempty"`

	// Artist holds the artist name of the track.
	Artist string `json:"artist,omitempty"`

	// Album holds the album name of the track.
	Album string `json:"album,omitempty"`

	// Genre holds the genre of the track.
	Genre string `json:"genre,omitempty"`

	// TrackNumber holds the playlist position of the track.
	TrackNumber uint32 `json:"track_number,omitempty"`

	// TotalTracks holds the total number of tracks.
	TotalTracks uint32 `json:"total_tracks,omitempty"`

	// Length holds the duration of the track in milliseconds.
	Length uint32 `json:"length,omitempty"`

	// Type holds the media type of the track.
	Type MediaType `json:"media_type,omitempty"`

	// ArtHandle holds the remote cover art handle of the track.
	ArtHandle CoverArtHandle `json:"art_handle,omitempty"`

	// ThumbLocation holds the local location of the fetched thumbnail.
	ThumbLocation ArtLocation `json:"thumb_location,omitempty"`

	// ImageLocation holds the local location of the fetched full image.
	ImageLocation ArtLocation `json:"image_location,omitempty"`
}

// MediaAttribute identifies a media element attribute.
type MediaAttribute uint32

// The different media element attribute ids.
const (
	AttrTitle       MediaAttribute = 0x01
	AttrArtist      MediaAttribute = 0x02
	AttrAlbum       MediaAttribute = 0x03
	AttrTrackNumber MediaAttribute = 0x04
	AttrTotalTracks MediaAttribute = 0x05
	AttrGenre       MediaAttribute = 0x06
	AttrLength      MediaAttribute = 0x07
	AttrCoverArt    MediaAttribute = 0x08
)

// FolderItems holds a browsable folder entry.
type FolderItems struct {
	// UID holds the item UID of the folder within its scope.
	UID ItemUID `json:"uid"`

	// Name holds the display name of the folder.
	Name string `json:"name,omitempty"`

	// Playable specifies whether the folder itself can be played.
	Playable bool `json:"playable,omitempty"`

	// Type holds the folder type.
	Type FolderType `json:"folder_type,omitempty"`
}
