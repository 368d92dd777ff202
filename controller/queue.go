// Package controller implements the AVRCP controller session: the
// browsing command queue, the remote device model and the single
// threaded state machine that drives both.
package controller

import (
	"github.com/bluetuith-org/avrcp-controller/api/avrcp"
	"github.com/bluetuith-org/avrcp-controller/native"
)

// CommandID identifies a queued browsing command kind.
type CommandID byte

// The different browsing command kinds.
const (
	CmdNone CommandID = iota // The zero value for this type.
	CmdBrowseFolder
	CmdChangePath
	CmdSetBrowsedPlayer
	CmdSetAddressedPlayer
	CmdSearch
	CmdPlayItem
	CmdAddToNowPlaying
	CmdGetTotalItems
	CmdConnectObex
	CmdDisconnectObex
)

// commandNames holds names of the different command kinds.
var commandNames = map[CommandID]string{
	CmdNone:               "none",
	CmdBrowseFolder:       "browse-folder",
	CmdChangePath:         "change-path",
	CmdSetBrowsedPlayer:   "set-browsed-player",
	CmdSetAddressedPlayer: "set-addressed-player",
	CmdSearch:             "search",
	CmdPlayItem:           "play-item",
	CmdAddToNowPlaying:    "add-to-now-playing",
	CmdGetTotalItems:      "get-total-items",
	CmdConnectObex:        "connect-obex",
	CmdDisconnectObex:     "disconnect-obex",
}

// String returns the name of the command kind.
func (c CommandID) String() string {
	return commandNames[c]
}

// bypassesScopeCheck reports whether the command executes regardless
// of the device's current scope. OBEX session management and player
// selection commands are not addressed to a browsing scope.
func (c CommandID) bypassesScopeCheck() bool {
	switch c {
	case CmdConnectObex, CmdDisconnectObex, CmdSetBrowsedPlayer, CmdSetAddressedPlayer:
		return true
	}

	return false
}

// CommandParams is the tagged union of per-command parameters, keyed
// by the command id.
type CommandParams interface {
	commandParams()
}

// BrowseParams parameterizes CmdBrowseFolder: the inclusive item range
// to fetch and the requested media attributes.
type BrowseParams struct {
	Start, End uint32
	Attrs      []avrcp.MediaAttribute
}

// ChangePathParams parameterizes CmdChangePath.
type ChangePathParams struct {
	Direction native.ChangeDirection
	UID       avrcp.ItemUID
}

// PlayerParams parameterizes the player selection commands.
type PlayerParams struct {
	ID avrcp.PlayerID
}

// SearchParams parameterizes CmdSearch.
type SearchParams struct {
	Pattern string
}

// ItemParams parameterizes CmdPlayItem and CmdAddToNowPlaying.
type ItemParams struct {
	UID avrcp.ItemUID
}

// NoParams parameterizes commands without parameters.
type NoParams struct{}

func (BrowseParams) commandParams()     {}
func (ChangePathParams) commandParams() {}
func (PlayerParams) commandParams()     {}
func (SearchParams) commandParams()     {}
func (ItemParams) commandParams()       {}
func (NoParams) commandParams()         {}

// Command is one queued browsing operation, tagged with the scope that
// was current when it was enqueued.
type Command struct {
	ID     CommandID
	Scope  avrcp.Scope
	Params CommandParams
}

// PendingCommandQueue is the ordered queue of browsing operations for
// one device. It is the sole serialization point for all browsing
// category commands: at most one command is ever in flight.
//
// The queue is only ever touched from the state machine goroutine.
type PendingCommandQueue struct {
	commands []Command
}

// NewPendingCommandQueue returns a new, empty queue.
func NewPendingCommandQueue() *PendingCommandQueue {
	return &PendingCommandQueue{}
}

// Len returns the number of queued commands.
func (q *PendingCommandQueue) Len() int {
	return len(q.commands)
}

// Push appends a command to the queue.
func (q *PendingCommandQueue) Push(cmd Command) {
	q.commands = append(q.commands, cmd)
}

// PushFront prepends a command ahead of the current head.
func (q *PendingCommandQueue) PushFront(cmd Command) {
	q.commands = append([]Command{cmd}, q.commands...)
}

// PeekFront returns the head command without removing it.
func (q *PendingCommandQueue) PeekFront() (Command, bool) {
	if len(q.commands) == 0 {
		return Command{}, false
	}

	return q.commands[0], true
}

// PopFront removes and returns the head command.
func (q *PendingCommandQueue) PopFront() (Command, bool) {
	cmd, ok := q.PeekFront()
	if ok {
		q.commands = q.commands[1:]
	}

	return cmd, ok
}

// FindFirstIndex returns the index of the first command matching the
// id and scope, or -1.
func (q *PendingCommandQueue) FindFirstIndex(id CommandID, scope avrcp.Scope) int {
	for i, cmd := range q.commands {
		if cmd.ID == id && cmd.Scope == scope {
			return i
		}
	}

	return -1
}

// UpdateFront replaces the head command's parameters iff its id and
// scope both match. Otherwise the head is dropped and false is
// returned.
func (q *PendingCommandQueue) UpdateFront(id CommandID, scope avrcp.Scope, params CommandParams) bool {
	front, ok := q.PeekFront()
	if !ok {
		return false
	}

	if front.ID != id || front.Scope != scope {
		q.PopFront()
		return false
	}

	q.commands[0].Params = params

	return true
}

// CheckAndClearFront pops the head iff its id and scope both match.
//
// A head with a different id is an unexpected or stale response: it is
// popped anyway, and false is returned. A head with a matching id but
// a stale scope means the user navigated away mid-flight: the whole
// contiguous prefix of commands addressed to a scope other than the
// provided one is purged, and false is returned.
func (q *PendingCommandQueue) CheckAndClearFront(id CommandID, scope avrcp.Scope) bool {
	front, ok := q.PeekFront()
	if !ok {
		return false
	}

	if front.ID == id && front.Scope == scope {
		q.PopFront()
		return true
	}

	if front.ID != id {
		q.PopFront()
		return false
	}

	for {
		front, ok := q.PeekFront()
		if !ok || front.Scope == scope {
			break
		}

		q.PopFront()
	}

	return false
}

// PurgeScope removes every queued command addressed to the provided
// scope. Scope-agnostic commands are kept: they stay valid across the
// invalidation that triggers a purge.
func (q *PendingCommandQueue) PurgeScope(scope avrcp.Scope) {
	kept := q.commands[:0]
	for _, cmd := range q.commands {
		if cmd.Scope != scope || cmd.ID.bypassesScopeCheck() {
			kept = append(kept, cmd)
		}
	}

	q.commands = kept
}

// Clear discards all queued commands.
func (q *PendingCommandQueue) Clear() {
	q.commands = nil
}
