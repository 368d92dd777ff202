package controller

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/bip"
	"github.com/bluetuith-org/avrcp-controller/native"
)

const testAddr = "AA:BB:CC:DD:EE:FF"

// browseCall records one issued browse folder command.
type browseCall struct {
	scope      avrcp.Scope
	start, end uint32
}

// fakeTransport records every issued native command.
type fakeTransport struct {
	calls []string

	browses []browseCall
	changes []native.ChangeDirection
	absRsp  []byte
	regRsp  []byte
}

func (f *fakeTransport) record(name string) {
	f.calls = append(f.calls, name)
}

func (f *fakeTransport) count(name string) int {
	var n int
	for _, call := range f.calls {
		if call == name {
			n++
		}
	}

	return n
}

func (f *fakeTransport) SendPassThroughCommand(string, avrcp.PassThroughKey, avrcp.KeyState) error {
	f.record("pass-through")
	return nil
}

func (f *fakeTransport) SendGroupNavigationCommand(string, avrcp.GroupNavigation, avrcp.KeyState) error {
	f.record("group-navigation")
	return nil
}

func (f *fakeTransport) SetPlayerApplicationSettingValues(string, []avrcp.SettingAttribute, []byte) error {
	f.record("set-player-settings")
	return nil
}

func (f *fakeTransport) InformBatteryStatus(string, avrcp.BatteryStatus) error {
	f.record("battery-status")
	return nil
}

func (f *fakeTransport) SendAbsVolRsp(_ string, volume byte, _ byte) error {
	f.record("abs-vol-rsp")
	f.absRsp = append(f.absRsp, volume)
	return nil
}

func (f *fakeTransport) SendRegisterAbsVolRsp(_ string, volume byte, _ byte) error {
	f.record("register-abs-vol-rsp")
	f.regRsp = append(f.regRsp, volume)
	return nil
}

func (f *fakeTransport) GetElementAttributes(string, []avrcp.MediaAttribute) error {
	f.record("get-element-attributes")
	return nil
}

func (f *fakeTransport) GetTotalNumberOfItems(string, avrcp.Scope) error {
	f.record("get-total-items")
	return nil
}

func (f *fakeTransport) BrowseFolder(_ string, scope avrcp.Scope, start, end uint32, _ []avrcp.MediaAttribute) error {
	f.record("browse-folder")
	f.browses = append(f.browses, browseCall{scope: scope, start: start, end: end})
	return nil
}

func (f *fakeTransport) SetBrowsedPlayer(string, avrcp.PlayerID) error {
	f.record("set-browsed-player")
	return nil
}

func (f *fakeTransport) SetAddressedPlayer(string, avrcp.PlayerID) error {
	f.record("set-addressed-player")
	return nil
}

func (f *fakeTransport) ChangePath(_ string, _ uint16, direction native.ChangeDirection, _ avrcp.ItemUID) error {
	f.record("change-path")
	f.changes = append(f.changes, direction)
	return nil
}

func (f *fakeTransport) AddToNowPlayingList(string, avrcp.Scope, avrcp.ItemUID, uint16) error {
	f.record("add-to-now-playing")
	return nil
}

func (f *fakeTransport) PlayItem(string, avrcp.Scope, avrcp.ItemUID, uint16) error {
	f.record("play-item")
	return nil
}

func (f *fakeTransport) Search(_ string, _ uint16, pattern string) error {
	f.record("search")
	return nil
}

// fakeAdapter records delivered listings and notifications.
type fakeAdapter struct {
	vfsTracks  []avrcp.TrackInfo
	vfsFolders []avrcp.FolderItems
	vfsCount   int

	nowPlaying  []avrcp.TrackInfo
	search      []avrcp.TrackInfo
	searchCount int
	depths      []int
	players     []avrcp.PlayerInfo

	imageHandles   []avrcp.CoverArtHandle
	imageLocations []avrcp.ArtLocation

	trackChanges  int
	statusChanges int
}

func (f *fakeAdapter) UpdateVFSList(_ string, tracks []avrcp.TrackInfo, folders []avrcp.FolderItems) {
	f.vfsTracks, f.vfsFolders = tracks, folders
	f.vfsCount++
}

func (f *fakeAdapter) UpdateNowPlayingList(_ string, tracks []avrcp.TrackInfo) {
	f.nowPlaying = tracks
}

func (f *fakeAdapter) UpdateSearchList(_ string, tracks []avrcp.TrackInfo) {
	f.search = tracks
	f.searchCount++
}

func (f *fakeAdapter) UpdateFolderStackDepth(_ string, depth int) {
	f.depths = append(f.depths, depth)
}

func (f *fakeAdapter) TrackChanged(string, avrcp.TrackInfo) {
	f.trackChanges++
}

func (f *fakeAdapter) PlayStatusChanged(string, avrcp.PlayStatus) {
	f.statusChanges++
}

func (f *fakeAdapter) PlayPositionChanged(string, uint32, uint32) {}

func (f *fakeAdapter) PlayerChanged(_ string, player avrcp.PlayerInfo) {
	f.players = append(f.players, player)
}

func (f *fakeAdapter) ImageFetched(_ string, handle avrcp.CoverArtHandle, location avrcp.ArtLocation) {
	f.imageHandles = append(f.imageHandles, handle)
	f.imageLocations = append(f.imageLocations, location)
}

// fakeAudio is an in-memory volume port.
type fakeAudio struct {
	volume  byte
	observe func(volume byte)
}

func (f *fakeAudio) SetVolume(volume byte) {
	f.volume = volume
	if f.observe != nil {
		f.observe(volume)
	}
}

func (f *fakeAudio) Volume() byte {
	return f.volume
}

func (f *fakeAudio) RegisterObserver(observe func(volume byte)) {
	f.observe = observe
}

func (f *fakeAudio) UnregisterObserver() {
	f.observe = nil
}

// testMachine drives the state machine synchronously, without its run
// loop.
type testMachine struct {
	sm        *StateMachine
	transport *fakeTransport
	adapter   *fakeAdapter
	audio     *fakeAudio
}

func newTestMachine(t *testing.T) *testMachine {
	t.Helper()

	transport := &fakeTransport{}
	adapter := &fakeAdapter{}
	audio := &fakeAudio{}

	sm := New(Config{
		Transport: transport,
		Adapter:   adapter,
		Audio:     audio,
		Logger:    zap.NewNop(),
	})

	return &testMachine{sm: sm, transport: transport, adapter: adapter, audio: audio}
}

// deliver feeds one native callback through the dispatcher.
func (m *testMachine) deliver(callback native.Callback) {
	m.sm.handle(callbackEvent{address: testAddr, callback: callback})
}

// connect brings a device up with the provided features.
func (m *testMachine) connect(features avrcp.Features) *RemoteDevice {
	m.deliver(native.ConnectionStateChanged{Connected: true})
	m.deliver(native.RCFeatures{Features: features})

	return m.sm.devices[testAddr]
}

// mediaPage builds one browse response page of media items.
func mediaPage(start, count int) []native.BrowseItem {
	items := make([]native.BrowseItem, 0, count)
	for i := 0; i < count; i++ {
		items = append(items, native.BrowseItem{
			ItemType: native.BrowseItemMedia,
			UID:      avrcp.ItemUID(start + i + 1),
			Name:     fmt.Sprintf("Track %d", start+i+1),
		})
	}

	return items
}

func TestConnectionLifecycle(t *testing.T) {
	m := newTestMachine(t)

	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)
	if dev == nil {
		t.Fatal("expected a device model")
	}
	if dev.NowPlaying == nil || dev.FileSystem == nil {
		t.Error("expected browsing and metadata models")
	}

	// A repeated connect callback is idempotent.
	m.deliver(native.ConnectionStateChanged{Connected: true})
	if m.sm.devices[testAddr] != dev {
		t.Error("expected the existing device model to survive")
	}

	m.deliver(native.ConnectionStateChanged{})
	if _, ok := m.sm.devices[testAddr]; ok {
		t.Error("expected the device model to be torn down")
	}
}

func TestBrowsePagination(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqBrowseToRoot{address: testAddr})
	m.deliver(native.TotalItems{Status: avrcp.StatusSuccess, NumItems: 10})

	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: RootFolderUID})

	// Seven items returned for the 0..255 request: the cursor jumps
	// to the item count.
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 7)})

	// Three more: the cursor still advances past the previous start.
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(7, 3)})

	// The range error terminates the fetch with everything kept.
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	starts := make([]uint32, 0, len(m.transport.browses))
	for _, call := range m.transport.browses {
		starts = append(starts, call.start)
	}
	if len(starts) != 3 || starts[0] != 0 || starts[1] != 7 || starts[2] != 8 {
		t.Fatalf("expected browse start sequence [0 7 8], got %v", starts)
	}

	if m.adapter.vfsCount != 1 || len(m.adapter.vfsTracks) != 10 {
		t.Errorf("expected one delivered listing of 10 tracks, got %d of %d",
			m.adapter.vfsCount, len(m.adapter.vfsTracks))
	}
	if dev.Queue.Len() != 0 {
		t.Errorf("expected an empty queue, got %d commands", dev.Queue.Len())
	}
	if dev.commandInFlight {
		t.Error("expected no command in flight")
	}
}

func TestBrowseEmptyPageTerminates(t *testing.T) {
	m := newTestMachine(t)
	m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqBrowseToRoot{address: testAddr})
	m.deliver(native.TotalItems{Status: avrcp.StatusSuccess})

	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: RootFolderUID})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess})

	if m.adapter.vfsCount != 1 || len(m.adapter.vfsTracks) != 0 {
		t.Errorf("expected one empty delivered listing, got %d of %d",
			m.adapter.vfsCount, len(m.adapter.vfsTracks))
	}
	if got := m.transport.count("browse-folder"); got != 1 {
		t.Errorf("expected a single browse command, got %d", got)
	}
}

func TestRefreshRejectsStaleFolder(t *testing.T) {
	m := newTestMachine(t)
	m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqBrowseToRoot{address: testAddr})
	m.deliver(native.TotalItems{Status: avrcp.StatusSuccess})

	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: "42"})

	if got := m.transport.count("browse-folder"); got != 0 {
		t.Errorf("expected no browse command for a stale folder id, got %d", got)
	}
}

func TestFolderNavigation(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)
	fs := dev.FileSystem

	m.sm.handle(reqBrowseToRoot{address: testAddr})
	m.deliver(native.TotalItems{Status: avrcp.StatusSuccess, NumItems: 1})

	// A listing with one folder.
	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: RootFolderUID})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: []native.BrowseItem{
		{ItemType: native.BrowseItemFolder, UID: 42, Name: "Albums", Playable: true},
	}})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	if len(m.adapter.vfsFolders) != 1 || m.adapter.vfsFolders[0].Name != "Albums" {
		t.Fatalf("expected the Albums folder, got %+v", m.adapter.vfsFolders)
	}

	// Descend into it.
	m.sm.handle(reqLoadFolderDown{address: testAddr, folderUID: "42"})
	if m.transport.changes[len(m.transport.changes)-1] != native.DirectionDown {
		t.Fatal("expected a change path down command")
	}

	m.deliver(native.ChangePathResponse{Status: avrcp.StatusSuccess, NumItems: 5})
	if fs.Depth() != 2 {
		t.Fatalf("expected depth 2 after descending, got %d", fs.Depth())
	}
	top, _ := fs.Top()
	if top.UIDString != "42" || top.NumItems != 5 {
		t.Errorf("expected the Albums frame on top, got %+v", top)
	}

	// Landing in the folder fetches its listing.
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 5)})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	// Navigate back up to the root.
	m.sm.handle(reqLoadFolderUp{address: testAddr, folderUID: RootFolderUID})
	if m.transport.changes[len(m.transport.changes)-1] != native.DirectionUp {
		t.Fatal("expected a change path up command")
	}

	m.deliver(native.ChangePathResponse{Status: avrcp.StatusSuccess, NumItems: 1})
	if fs.Depth() != 1 {
		t.Errorf("expected depth 1 after ascending, got %d", fs.Depth())
	}
}

func TestBrowseToRootFromDepth(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)
	fs := dev.FileSystem

	fs.ResetStackToRoot()
	fs.PushFolder(FolderStackInfo{UIDString: "10", UID: 10})
	fs.PushFolder(FolderStackInfo{UIDString: "20", UID: 20})
	dev.Scope = avrcp.ScopeVFS

	m.sm.handle(reqBrowseToRoot{address: testAddr})

	// One change path per level above the root.
	m.deliver(native.ChangePathResponse{Status: avrcp.StatusSuccess})
	m.deliver(native.ChangePathResponse{Status: avrcp.StatusSuccess, NumItems: 3})

	if got := m.transport.count("change-path"); got != 2 {
		t.Fatalf("expected 2 change path commands, got %d", got)
	}
	if fs.Depth() != 1 {
		t.Fatalf("expected the root depth, got %d", fs.Depth())
	}

	// The root listing fetch follows.
	if got := m.transport.count("browse-folder"); got != 1 {
		t.Errorf("expected a root listing fetch, got %d browse commands", got)
	}
}

func TestSearchFlow(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqFetchBySearchString{address: testAddr, pattern: "led zeppelin"})
	if got := m.transport.count("search"); got != 1 {
		t.Fatalf("expected a search command, got %d", got)
	}
	if dev.Scope != avrcp.ScopeSearch {
		t.Fatalf("expected the search scope, got %s", dev.Scope)
	}

	m.deliver(native.SearchResponse{Status: avrcp.StatusSuccess, UIDCounter: 7, NumItems: 5})

	// The result fetch is clamped to the reported count.
	if len(m.transport.browses) != 1 {
		t.Fatalf("expected a result listing fetch, got %d", len(m.transport.browses))
	}
	if call := m.transport.browses[0]; call.scope != avrcp.ScopeSearch || call.end != 4 {
		t.Errorf("expected a search fetch of 0..4, got %+v", call)
	}

	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, UIDCounter: 7, Items: mediaPage(0, 5)})

	if len(m.adapter.search) != 5 {
		t.Errorf("expected 5 search results, got %d", len(m.adapter.search))
	}
	if dev.UIDCounter != 7 {
		t.Errorf("expected the UID counter to be recorded, got %d", dev.UIDCounter)
	}
}

func TestSearchWithoutResults(t *testing.T) {
	m := newTestMachine(t)
	m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqFetchBySearchString{address: testAddr, pattern: "nothing"})
	m.deliver(native.SearchResponse{Status: avrcp.StatusSuccess})

	if len(m.transport.browses) != 0 {
		t.Error("expected no listing fetch for an empty result")
	}
	if m.adapter.searchCount != 1 || len(m.adapter.search) != 0 {
		t.Errorf("expected one empty search delivery, got %d of %d",
			m.adapter.searchCount, len(m.adapter.search))
	}
}

func TestScopeSwitchDropsStaleCommands(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqBrowseToRoot{address: testAddr})
	m.deliver(native.TotalItems{Status: avrcp.StatusSuccess})
	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: RootFolderUID})

	// Navigate away while the VFS fetch is in flight.
	m.sm.handle(reqFetchNowPlayingList{address: testAddr})
	if dev.Scope != avrcp.ScopeNowPlaying {
		t.Fatalf("expected the now playing scope, got %s", dev.Scope)
	}

	// The stale VFS response pops its command and the queued now
	// playing fetch proceeds.
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 3)})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 4)})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	if m.adapter.vfsCount != 0 {
		t.Error("expected no VFS listing delivery after navigating away")
	}
	if len(m.adapter.nowPlaying) != 4 {
		t.Errorf("expected 4 now playing tracks, got %d", len(m.adapter.nowPlaying))
	}
}

func TestUIDsChangedPurgesScope(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.sm.handle(reqBrowseToRoot{address: testAddr})
	m.deliver(native.TotalItems{Status: avrcp.StatusSuccess, NumItems: 3})
	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: RootFolderUID})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 3)})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	// Queue another fetch, then invalidate the epoch mid-flight.
	m.sm.handle(reqRefreshCurrentFolder{address: testAddr, folderUID: RootFolderUID})
	m.deliver(native.UIDsChanged{UIDCounter: 99})

	if dev.UIDCounter != 99 {
		t.Errorf("expected the new UID counter, got %d", dev.UIDCounter)
	}
	if dev.Queue.Len() != 0 {
		t.Errorf("expected the scope's commands to be purged, got %d", dev.Queue.Len())
	}
	if len(dev.FileSystem.Media()) != 0 {
		t.Error("expected the listings to be discarded")
	}
	if dev.commandInFlight {
		t.Error("expected no command in flight")
	}
}

func TestNowPlayingListUpdateRefetches(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	// Outside the now playing scope the update is ignored.
	m.deliver(native.NowPlayingListUpdate{})
	if got := m.transport.count("browse-folder"); got != 0 {
		t.Fatalf("expected no fetch outside the scope, got %d", got)
	}

	m.sm.handle(reqFetchNowPlayingList{address: testAddr})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 2)})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	m.deliver(native.NowPlayingListUpdate{})
	if got := m.transport.count("browse-folder"); got != 3 {
		t.Errorf("expected a refetch after the update, got %d browse commands", got)
	}
	if dev.Scope != avrcp.ScopeNowPlaying {
		t.Errorf("expected the now playing scope, got %s", dev.Scope)
	}
}

func TestAbsoluteVolumeHandshake(t *testing.T) {
	m := newTestMachine(t)
	m.connect(avrcp.FeatureAbsoluteVolume)

	m.deliver(native.RegisterAbsVolNotification{Label: 3})
	if got := len(m.transport.regRsp); got != 1 {
		t.Fatalf("expected an interim notification response, got %d", got)
	}
	if m.audio.observe == nil {
		t.Fatal("expected a registered volume observer")
	}

	// The remote sets the volume; the ack carries the same value and
	// the observer echo is swallowed.
	m.deliver(native.SetAbsVolumeCommand{Volume: 50, Label: 4})
	if len(m.transport.absRsp) != 1 || m.transport.absRsp[0] != 50 {
		t.Fatalf("expected a volume ack of 50, got %v", m.transport.absRsp)
	}
	if m.audio.volume != 50 {
		t.Fatalf("expected the local volume to be applied, got %d", m.audio.volume)
	}

	m.sm.handle(localVolumeChanged{address: testAddr, volume: 50})
	if got := len(m.transport.regRsp); got != 1 {
		t.Fatalf("expected the echo to be swallowed, got %d responses", got)
	}

	// A genuine local change is reported.
	m.sm.handle(localVolumeChanged{address: testAddr, volume: 80})
	if got := len(m.transport.regRsp); got != 2 || m.transport.regRsp[1] != 80 {
		t.Fatalf("expected a changed notification of 80, got %v", m.transport.regRsp)
	}
}

func TestBatteryStatusForwarded(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata)

	m.sm.handle(reqBatteryStatus{address: testAddr, status: avrcp.BatteryCritical})
	if got := m.transport.count("battery-status"); got != 1 {
		t.Errorf("expected a battery status command, got %d", got)
	}
	if dev.Battery != avrcp.BatteryCritical {
		t.Errorf("expected the battery status to be recorded, got %d", dev.Battery)
	}
}

func TestAddressedPlayerChangeDiscardsListings(t *testing.T) {
	m := newTestMachine(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing)

	m.deliver(native.AvailablePlayersList{UIDCounter: 1, Players: []native.PlayerEntry{
		{ID: 1, Name: "Player One"},
		{ID: 2, Name: "Player Two"},
	}})

	m.sm.handle(reqFetchNowPlayingList{address: testAddr})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusSuccess, Items: mediaPage(0, 2)})
	m.deliver(native.BrowseFolderResponse{Status: avrcp.StatusBadRange})

	m.deliver(native.AddressedPlayerChanged{PlayerID: 2, UIDCounter: 5})

	if len(m.adapter.players) == 0 || m.adapter.players[len(m.adapter.players)-1].Name != "Player Two" {
		t.Fatalf("expected the addressed player change to be reported, got %+v", m.adapter.players)
	}
	if dev.NowPlaying == nil || len(dev.NowPlaying.List()) != 0 {
		t.Error("expected the now playing list to be discarded")
	}
	if dev.UIDCounter != 5 {
		t.Errorf("expected the new UID counter, got %d", dev.UIDCounter)
	}
}

func TestTrackChangedBuildsTrack(t *testing.T) {
	m := newTestMachine(t)
	m.connect(avrcp.FeatureMetadata)

	m.deliver(native.TrackChanged{Attrs: []native.AttrEntry{
		{ID: avrcp.AttrTitle, Value: "Kashmir"},
		{ID: avrcp.AttrArtist, Value: "Led Zeppelin"},
		{ID: avrcp.AttrLength, Value: "508000"},
	}})

	if m.adapter.trackChanges != 1 {
		t.Fatalf("expected one track change, got %d", m.adapter.trackChanges)
	}

	dev := m.sm.devices[testAddr]
	track, ok := dev.NowPlaying.Current()
	if !ok || track.Title != "Kashmir" || track.Length != 508000 {
		t.Errorf("expected the parsed track, got %+v", track)
	}

	// Absent cover art is marked with the typed sentinel.
	if track.ArtHandle != avrcp.HandleNotSupported {
		t.Errorf("expected the unsupported art sentinel, got %q", track.ArtHandle)
	}
	if track.ThumbLocation != avrcp.LocationEmpty || track.ImageLocation != avrcp.LocationEmpty {
		t.Error("expected empty art locations")
	}
}

// refusingObexClient refuses the CONNECT handshake.
type refusingObexClient struct{}

func (refusingObexClient) Connect(context.Context, uuid.UUID) (bip.ResponseCode, error) {
	return bip.CodeForbidden, nil
}

func (refusingObexClient) Get(bip.GetHeaders) (io.ReadCloser, bip.ResponseCode, error) {
	return nil, bip.CodeForbidden, nil
}

func (refusingObexClient) Disconnect() error { return nil }

// newTestMachineWithObex wires a dialer whose sessions refuse to
// connect.
func newTestMachineWithObex(t *testing.T) *testMachine {
	t.Helper()

	m := newTestMachine(t)
	m.sm.cacheDir = t.TempDir()
	m.sm.dialObex = func(string, uint16) (bip.Client, error) {
		return refusingObexClient{}, nil
	}

	return m
}

func TestObexConnectRefusedReleasesQueue(t *testing.T) {
	m := newTestMachineWithObex(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureBrowsing | avrcp.FeatureCoverArt)

	m.sm.handle(reqFetchNowPlayingList{address: testAddr})
	if !dev.commandInFlight {
		t.Fatal("expected the obex connect to be in flight")
	}
	if got := m.transport.count("browse-folder"); got != 0 {
		t.Fatalf("expected the listing fetch to wait behind the connect, got %d", got)
	}

	// A refused connect reports only a disconnect; the queue must not
	// stall behind the dead connect command.
	m.sm.handle(bipEvent{address: testAddr, ev: bip.Event{Kind: bip.EventDisconnected}})

	if got := m.transport.count("browse-folder"); got != 1 {
		t.Fatalf("expected the queued fetch to proceed, got %d browse commands", got)
	}
	if front, ok := dev.Queue.PeekFront(); !ok || front.ID != CmdBrowseFolder {
		t.Error("expected the listing fetch at the queue front")
	}
}

func TestObexConnectRefusedReportsParkedThumbnails(t *testing.T) {
	m := newTestMachineWithObex(t)
	dev := m.connect(avrcp.FeatureMetadata | avrcp.FeatureCoverArt)

	m.sm.handle(reqFetchThumbnail{address: testAddr, handle: "1000001"})
	if len(dev.pendingThumbs) != 1 {
		t.Fatalf("expected the handle to be parked, got %d", len(dev.pendingThumbs))
	}

	m.sm.handle(bipEvent{address: testAddr, ev: bip.Event{Kind: bip.EventDisconnected}})

	if len(m.adapter.imageHandles) != 1 || m.adapter.imageHandles[0] != "1000001" {
		t.Fatalf("expected the parked fetch to be reported, got %v", m.adapter.imageHandles)
	}
	if m.adapter.imageLocations[0] != avrcp.LocationEmpty {
		t.Errorf("expected an empty-location failure report, got %q", m.adapter.imageLocations[0])
	}
	if dev.pendingThumbs != nil {
		t.Error("expected the backlog to be discarded")
	}
}

func TestStopWithoutStart(t *testing.T) {
	m := newTestMachine(t)

	done := make(chan struct{})
	go func() {
		m.sm.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an unstarted machine to stop immediately")
	}
}

func TestFetchThumbnailWithoutCoverArt(t *testing.T) {
	m := newTestMachine(t)
	m.connect(avrcp.FeatureMetadata)

	m.sm.handle(reqFetchThumbnail{address: testAddr, handle: "1000001"})

	if len(m.adapter.imageLocations) != 1 || m.adapter.imageLocations[0] != avrcp.LocationEmpty {
		t.Errorf("expected an immediate empty-location report, got %v", m.adapter.imageLocations)
	}
}
