package controller

import (
	"strconv"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// folderUIDString renders a numeric folder UID as the string folder id
// exposed to the application.
func folderUIDString(uid avrcp.ItemUID) string {
	return strconv.FormatUint(uint64(uid), 10)
}

// RootFolderUID is the folder id of the synthetic root stack frame.
const RootFolderUID = "root"

// FolderStackInfo is one frame of the VFS folder stack; the stack's
// depth is the current VFS path.
type FolderStackInfo struct {
	// UIDString holds the folder id as exposed to the application.
	UIDString string

	// UID holds the numeric item UID of the folder.
	UID avrcp.ItemUID

	// NumItems holds the item count of the folder, when known.
	NumItems uint32
}

// RemoteFileSystem owns the VFS listings, the search results and the
// folder stack of one device. Listings are cleared wholesale on scope
// changes, UID counter invalidation and addressed player changes.
type RemoteFileSystem struct {
	media   []avrcp.TrackInfo
	folders []avrcp.FolderItems
	search  []avrcp.TrackInfo

	stack []FolderStackInfo
}

// NewRemoteFileSystem returns an empty file system model.
func NewRemoteFileSystem() *RemoteFileSystem {
	return &RemoteFileSystem{}
}

// Depth returns the folder stack depth.
func (r *RemoteFileSystem) Depth() int {
	return len(r.stack)
}

// Stack returns the folder stack, root first.
func (r *RemoteFileSystem) Stack() []FolderStackInfo {
	return r.stack
}

// Top returns the top stack frame.
func (r *RemoteFileSystem) Top() (FolderStackInfo, bool) {
	if len(r.stack) == 0 {
		return FolderStackInfo{}, false
	}

	return r.stack[len(r.stack)-1], true
}

// SetTopNumItems updates the item count of the top stack frame.
func (r *RemoteFileSystem) SetTopNumItems(numItems uint32) {
	if len(r.stack) > 0 {
		r.stack[len(r.stack)-1].NumItems = numItems
	}
}

// PushFolder pushes one stack frame.
func (r *RemoteFileSystem) PushFolder(frame FolderStackInfo) {
	r.stack = append(r.stack, frame)
}

// PopFolder pops the top stack frame.
func (r *RemoteFileSystem) PopFolder() {
	if len(r.stack) > 0 {
		r.stack = r.stack[:len(r.stack)-1]
	}
}

// ResetStackToRoot resets the folder stack to the synthetic root
// frame.
func (r *RemoteFileSystem) ResetStackToRoot() {
	r.stack = []FolderStackInfo{{UIDString: RootFolderUID, UID: avrcp.UIDInvalid}}
}

// FindInStack returns the index of the frame with the provided folder
// id, excluding the top frame, or -1.
func (r *RemoteFileSystem) FindInStack(uidString string) int {
	for i := 0; i < len(r.stack)-1; i++ {
		if r.stack[i].UIDString == uidString {
			return i
		}
	}

	return -1
}

// FolderInListing returns the folder with the provided id from the
// current VFS listing. Navigation down is one level at a time: only
// folders visible in the current listing are reachable.
func (r *RemoteFileSystem) FolderInListing(uidString string) (avrcp.FolderItems, bool) {
	for _, folder := range r.folders {
		if folderUIDString(folder.UID) == uidString {
			return folder, true
		}
	}

	return avrcp.FolderItems{}, false
}

// AppendListing appends one browse response page to the VFS listing.
func (r *RemoteFileSystem) AppendListing(tracks []avrcp.TrackInfo, folders []avrcp.FolderItems) {
	r.media = append(r.media, tracks...)
	r.folders = append(r.folders, folders...)
}

// AppendSearch appends one browse response page to the search results.
func (r *RemoteFileSystem) AppendSearch(tracks []avrcp.TrackInfo) {
	r.search = append(r.search, tracks...)
}

// Media returns the VFS media listing.
func (r *RemoteFileSystem) Media() []avrcp.TrackInfo {
	return r.media
}

// Folders returns the VFS folder listing.
func (r *RemoteFileSystem) Folders() []avrcp.FolderItems {
	return r.folders
}

// Search returns the search results.
func (r *RemoteFileSystem) Search() []avrcp.TrackInfo {
	return r.search
}

// UpdateMediaArt records a fetched art location on every VFS media
// item carrying the handle.
func (r *RemoteFileSystem) UpdateMediaArt(handle avrcp.CoverArtHandle, location avrcp.ArtLocation, thumbnail bool) {
	updateArt(r.media, handle, location, thumbnail)
	updateArt(r.search, handle, location, thumbnail)
}

// ClearVFSListing discards the VFS listings, keeping the folder stack.
func (r *RemoteFileSystem) ClearVFSListing() {
	r.media = nil
	r.folders = nil
}

// ClearSearch discards the search results.
func (r *RemoteFileSystem) ClearSearch() {
	r.search = nil
}

// ClearAll discards all listings and search results.
func (r *RemoteFileSystem) ClearAll() {
	r.ClearVFSListing()
	r.ClearSearch()
}

// updateArt records a fetched art location on matching tracks.
func updateArt(tracks []avrcp.TrackInfo, handle avrcp.CoverArtHandle, location avrcp.ArtLocation, thumbnail bool) {
	for i := range tracks {
		if tracks[i].ArtHandle != handle {
			continue
		}

		if thumbnail {
			tracks[i].ThumbLocation = location
		} else {
			tracks[i].ImageLocation = location
		}
	}
}
