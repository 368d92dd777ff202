package controller

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// RemoteMediaPlayers owns the remote device's player list and the
// distinguished addressed and browsed player references. References
// are held by player id, never by list position: the list may be
// replaced wholesale by an available players update.
type RemoteMediaPlayers struct {
	players []*avrcp.PlayerInfo

	addressedID  avrcp.PlayerID
	hasAddressed bool

	browsedID  avrcp.PlayerID
	hasBrowsed bool
}

// NewRemoteMediaPlayers returns a player list seeded with a default
// player as the addressed player, for pre-1.4 remotes that never
// announce a player list.
func NewRemoteMediaPlayers() *RemoteMediaPlayers {
	p := &RemoteMediaPlayers{}
	p.players = append(p.players, avrcp.NewPlayerInfo(avrcp.DefaultPlayerID))
	p.addressedID = avrcp.DefaultPlayerID
	p.hasAddressed = true

	return p
}

// Player returns the player with the provided id.
func (p *RemoteMediaPlayers) Player(id avrcp.PlayerID) (*avrcp.PlayerInfo, bool) {
	for _, player := range p.players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}

// AddressedPlayer returns the addressed player. The addressed player
// always exists once remote control features are known.
func (p *RemoteMediaPlayers) AddressedPlayer() *avrcp.PlayerInfo {
	if p.hasAddressed {
		if player, ok := p.Player(p.addressedID); ok {
			return player
		}
	}

	// The reference went stale with a list update; re-seed it.
	player := avrcp.NewPlayerInfo(p.addressedID)
	p.players = append(p.players, player)
	p.hasAddressed = true

	return player
}

// BrowsedPlayer returns the browsed player, if one was set through a
// successful SetBrowsedPlayer exchange.
func (p *RemoteMediaPlayers) BrowsedPlayer() (*avrcp.PlayerInfo, bool) {
	if !p.hasBrowsed {
		return nil, false
	}

	return p.Player(p.browsedID)
}

// SetAddressed marks the player with the provided id as addressed,
// creating a placeholder entry if the list does not know it yet.
func (p *RemoteMediaPlayers) SetAddressed(id avrcp.PlayerID) *avrcp.PlayerInfo {
	player, ok := p.Player(id)
	if !ok {
		player = avrcp.NewPlayerInfo(id)
		p.players = append(p.players, player)
	}

	p.addressedID = id
	p.hasAddressed = true

	return player
}

// SetBrowsed marks the player with the provided id as browsed.
func (p *RemoteMediaPlayers) SetBrowsed(id avrcp.PlayerID) {
	if _, ok := p.Player(id); !ok {
		p.players = append(p.players, avrcp.NewPlayerInfo(id))
	}

	p.browsedID = id
	p.hasBrowsed = true
}

// Update replaces the player list with an available players response,
// carrying over the playback state of players that survived.
func (p *RemoteMediaPlayers) Update(entries []native.PlayerEntry) {
	updated := make([]*avrcp.PlayerInfo, 0, len(entries))

	for _, entry := range entries {
		player := avrcp.NewPlayerInfo(entry.ID)
		if previous, ok := p.Player(entry.ID); ok {
			player = previous
		}

		player.Name = entry.Name
		player.Subtype = entry.Subtype
		player.MajorType = entry.MajorType
		player.Status = entry.PlayStatus
		player.FeatureMask = entry.FeatureMask

		updated = append(updated, player)
	}

	p.players = updated

	if p.hasBrowsed {
		if _, ok := p.Player(p.browsedID); !ok {
			p.hasBrowsed = false
		}
	}
}

// List returns a snapshot of the known players.
func (p *RemoteMediaPlayers) List() []avrcp.PlayerInfo {
	list := make([]avrcp.PlayerInfo, 0, len(p.players))
	for _, player := range p.players {
		list = append(list, *player)
	}

	return list
}
