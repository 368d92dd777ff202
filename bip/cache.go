package bip

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// The cover art cache file name prefixes.
const (
	cachePrefix = "AVRCP_BIP_"
	thumbPrefix = "AVRCP_BIP_THUMB_"
	imagePrefix = "AVRCP_BIP_IMG_"
)

// ThumbnailPath returns the deterministic cache path of a linked
// thumbnail. Linked thumbnails are always JPEG.
func ThumbnailPath(dir string, handle avrcp.CoverArtHandle) string {
	return filepath.Join(dir, thumbPrefix+string(handle)+".jpeg")
}

// ImagePath returns the deterministic cache path of a full image for
// the provided encoding.
func ImagePath(dir string, handle avrcp.CoverArtHandle, encoding string) string {
	return filepath.Join(dir, imagePrefix+string(handle)+"."+extensionFor(encoding))
}

// extensionFor maps a BIP encoding name to a file extension.
func extensionFor(encoding string) string {
	if encoding == "" {
		return "jpeg"
	}

	return strings.ToLower(encoding)
}

// lookupCached scans the cache directory for a previously fetched file
// with the provided prefix and handle.
func lookupCached(dir, prefix string, handle avrcp.CoverArtHandle) (avrcp.ArtLocation, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return avrcp.LocationEmpty, false
	}

	want := prefix + string(handle) + "."
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if strings.HasPrefix(entry.Name(), want) {
			return avrcp.ArtLocation(filepath.Join(dir, entry.Name())), true
		}
	}

	return avrcp.LocationEmpty, false
}

// ClearCache deletes every cover art file in the cache directory.
func ClearCache(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), cachePrefix) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}

	return nil
}
