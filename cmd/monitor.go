package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/api/eventbus"
	"go.uber.org/atomic"
)

// nopAdapter satisfies the browse service adapter contract for the
// standalone monitor, which consumes the event bus streams instead.
type nopAdapter struct{}

func (nopAdapter) UpdateVFSList(string, []avrcp.TrackInfo, []avrcp.FolderItems)  {}
func (nopAdapter) UpdateNowPlayingList(string, []avrcp.TrackInfo)                {}
func (nopAdapter) UpdateSearchList(string, []avrcp.TrackInfo)                    {}
func (nopAdapter) UpdateFolderStackDepth(string, int)                            {}
func (nopAdapter) TrackChanged(string, avrcp.TrackInfo)                          {}
func (nopAdapter) PlayStatusChanged(string, avrcp.PlayStatus)                    {}
func (nopAdapter) PlayPositionChanged(string, uint32, uint32)                    {}
func (nopAdapter) PlayerChanged(string, avrcp.PlayerInfo)                        {}
func (nopAdapter) ImageFetched(string, avrcp.CoverArtHandle, avrcp.ArtLocation)  {}

// softVolume is a software-only volume port for the standalone
// monitor. Remote absolute volume requests are stored and echoed to
// the installed observer.
type softVolume struct {
	volume  atomic.Uint32
	observe func(volume byte)
}

func (a *softVolume) SetVolume(volume byte) {
	a.volume.Store(uint32(volume))
}

func (a *softVolume) Volume() byte {
	return byte(a.volume.Load())
}

func (a *softVolume) RegisterObserver(observe func(volume byte)) {
	a.observe = observe
}

func (a *softVolume) UnregisterObserver() {
	a.observe = nil
}

// monitor prints controller events to the screen until the context is
// cancelled.
func monitor(ctx context.Context, bus *eventbus.Bus) {
	connections, unsubConnections := avrcp.ConnectionEvents(bus).Subscribe()
	defer unsubConnections()

	tracks, unsubTracks := avrcp.TrackEvents(bus).Subscribe()
	defer unsubTracks()

	players, unsubPlayers := avrcp.PlayerEvents(bus).Subscribe()
	defer unsubPlayers()

	listings, unsubListings := avrcp.BrowseEvents(bus).Subscribe()
	defer unsubListings()

	images, unsubImages := avrcp.ImageEvents(bus).Subscribe()
	defer unsubImages()

	for {
		select {
		case <-ctx.Done():
			return

		case ev := <-connections:
			state := "disconnected"
			if ev.Connected {
				state = "connected"
			}

			printEvent(ev.Address, "Device "+state)

		case ev := <-tracks:
			printEvent(ev.Address, fmt.Sprintf(
				"Track: %s - %s (%s)",
				ev.Track.Artist, ev.Track.Title, ev.Status.String(),
			))

		case ev := <-players:
			printEvent(ev.Address, "Player: "+ev.Player.Name)

		case ev := <-listings:
			printEvent(ev.Address, fmt.Sprintf(
				"%s listing: %d tracks, %d folders",
				ev.Scope.String(), len(ev.Tracks), len(ev.Folders),
			))

		case ev := <-images:
			location := string(ev.Location)
			if !ev.Location.Exists() {
				location = "unavailable"
			}

			printEvent(ev.Address, fmt.Sprintf(
				"Cover art %s: %s", ev.Handle, location,
			))
		}
	}
}

// printEvent prints a single device event line.
func printEvent(address, message string) {
	var sb strings.Builder

	sb.WriteString("[")
	sb.WriteString(address)
	sb.WriteString("] ")
	sb.WriteString(message)

	printInfo(sb.String())
}
