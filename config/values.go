package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
)

// Values describes the possible configuration values that a user can
// modify and supply to the application.
type Values struct {
	SocketPath        string `koanf:"socket-path"`
	CacheDir          string `koanf:"cache-dir"`
	LogFile           string `koanf:"log-file"`
	LogLevel          string `koanf:"log-level"`
	CoverArt          bool   `koanf:"cover-art"`
	CoverArtMime      string `koanf:"cover-art-mime"`
	CoverArtMaxWidth  int    `koanf:"cover-art-max-width"`
	CoverArtMaxHeight int    `koanf:"cover-art-max-height"`
	CoverArtMaxSize   int64  `koanf:"cover-art-max-size"`
}

// AppProperties returns the cover art retrieval properties described
// by these values.
func (v *Values) AppProperties() avrcp.AppProperties {
	return avrcp.AppProperties{
		CoverArtRequested: v.CoverArt,
		MimeType:          v.CoverArtMime,
		MaxWidth:          v.CoverArtMaxWidth,
		MaxHeight:         v.CoverArtMaxHeight,
		MaxSize:           v.CoverArtMaxSize,
	}
}

// validateValues validates all configuration values.
func (v *Values) validateValues() error {
	for _, validate := range []func() error{
		v.validateLogLevel,
		v.validateCacheDir,
		v.validateCoverArt,
	} {
		if err := validate(); err != nil {
			return err
		}
	}

	return nil
}

// validateLogLevel validates the log level.
func (v *Values) validateLogLevel() error {
	levels := []string{"debug", "info", "warn", "error"}

	if v.LogLevel == "" {
		v.LogLevel = "info"
		return nil
	}

	for _, level := range levels {
		if v.LogLevel == level {
			return nil
		}
	}

	return fmt.Errorf(
		"provided log level '%s' is incorrect.\nValid levels are '%s'",
		v.LogLevel, strings.Join(levels, ", "),
	)
}

// validateCacheDir validates the path to the cover art cache directory,
// and creates it if it does not exist.
func (v *Values) validateCacheDir() error {
	if v.CacheDir == "" {
		cachedir, err := os.UserCacheDir()
		if err != nil {
			return err
		}

		v.CacheDir = filepath.Join(cachedir, "avrcpctl")
	}

	if err := os.MkdirAll(v.CacheDir, 0o755); err != nil {
		return fmt.Errorf("%s: Directory is not accessible", v.CacheDir)
	}

	return nil
}

// validateCoverArt validates the cover art retrieval properties.
func (v *Values) validateCoverArt() error {
	if !v.CoverArt {
		return nil
	}

	if v.CoverArtMime == "" {
		v.CoverArtMime = "image/jpeg"
	}

	if v.CoverArtMaxWidth < 0 || v.CoverArtMaxWidth > 65535 ||
		v.CoverArtMaxHeight < 0 || v.CoverArtMaxHeight > 65535 {
		return fmt.Errorf("cover art dimensions must be within 0 and 65535")
	}

	if v.CoverArtMaxSize < 0 {
		return fmt.Errorf("cover art maximum size cannot be negative")
	}

	return nil
}
