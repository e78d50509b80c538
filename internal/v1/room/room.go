// Package room implements the Room Registry (spec §4.3, C3): it owns the
// rooms map and the player->room reverse index under a single serialization
// discipline, so that I3 (reverse index consistency) and I4 (no player in
// two rooms) hold between any two operations, following the teacher's
// room.go pattern of guarding all membership-changing operations under one
// sync.Mutex.
package room

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vrsocial/roomcore/internal/v1/apierr"
	"github.com/vrsocial/roomcore/internal/v1/metrics"
	"github.com/vrsocial/roomcore/internal/v1/wire"
)

// Visibility controls whether find_rooms can discover a room.
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// PlayerRecord is a player's in-room state (spec §3, "Player record within a room").
type PlayerRecord struct {
	PlayerID   string
	Username   string
	Pose       wire.Pose
	AvatarURL  string
	Speaking   bool
	CustomData map[string]string
}

// ToView projects a PlayerRecord into the wire representation used in
// PlayerJoined/PlayerUpdate frames (spec §4.4).
func (p PlayerRecord) ToView() wire.PlayerView {
	return wire.PlayerView{
		PlayerID:   p.PlayerID,
		Username:   p.Username,
		AvatarURL:  p.AvatarURL,
		Pose:       p.Pose,
		Speaking:   p.Speaking,
		CustomData: p.CustomData,
	}
}

// Room is the authoritative state for one game room (spec §3, "Room").
type Room struct {
	ID         string
	GameID     string
	HostID     string
	Capacity   int
	Visibility Visibility
	CreatedAt  time.Time

	// players preserves join order; drawOrder[id] gives O(1) lookup of a
	// player's *list.Element, mirroring the teacher's draw-order-queue
	// pattern in room.go for O(1) membership bookkeeping.
	players   *list.List
	drawOrder map[string]*list.Element

	GameState map[string]string
}

// RoomSnapshot is an immutable copy of a room's current state, returned by
// get_room so callers never observe a room mutating underneath them.
type RoomSnapshot struct {
	ID         string
	GameID     string
	HostID     string
	Capacity   int
	Visibility Visibility
	CreatedAt  time.Time
	Players    []PlayerRecord
	GameState  map[string]string
}

func newRoom(gameID, hostID string, capacity int) *Room {
	return &Room{
		ID:         uuid.NewString(),
		GameID:     gameID,
		HostID:     hostID,
		Capacity:   capacity,
		Visibility: VisibilityPublic,
		CreatedAt:  time.Now().UTC(),
		players:    list.New(),
		drawOrder:  make(map[string]*list.Element),
		GameState:  make(map[string]string),
	}
}

func (r *Room) playerCount() int {
	return r.players.Len()
}

func (r *Room) snapshotLocked() RoomSnapshot {
	out := RoomSnapshot{
		ID:         r.ID,
		GameID:     r.GameID,
		HostID:     r.HostID,
		Capacity:   r.Capacity,
		Visibility: r.Visibility,
		CreatedAt:  r.CreatedAt,
		Players:    make([]PlayerRecord, 0, r.players.Len()),
		GameState:  make(map[string]string, len(r.GameState)),
	}
	for e := r.players.Front(); e != nil; e = e.Next() {
		out.Players = append(out.Players, e.Value.(*PlayerRecord).clone())
	}
	for k, v := range r.GameState {
		out.GameState[k] = v
	}
	return out
}

func (p *PlayerRecord) clone() PlayerRecord {
	cd := make(map[string]string, len(p.CustomData))
	for k, v := range p.CustomData {
		cd[k] = v
	}
	cp := *p
	cp.CustomData = cd
	return cp
}

// Registry is the process-wide Room Registry. One coarse mutex guards both
// the rooms map and the reverse index — see DESIGN.md's note on the
// two-index atomicity requirement (spec §9): these must never be split
// across two locks, or I3/I4 admit a transient violation.
type Registry struct {
	mu           sync.Mutex
	rooms        map[string]*Room
	playerToRoom map[string]string
	connections  map[string]string // player_id -> remote address, maintained on behalf of the transport
}

// NewRegistry constructs an empty Room Registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:        make(map[string]*Room),
		playerToRoom: make(map[string]string),
		connections:  make(map[string]string),
	}
}

// CreateRoom allocates a new room. It does not place the host into it — a
// separate JoinRoom call is required (spec §4.3).
func (reg *Registry) CreateRoom(gameID, hostID string, capacity int) string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r := newRoom(gameID, hostID, capacity)
	reg.rooms[r.ID] = r
	metrics.ActiveRooms.Inc()
	return r.ID
}

// JoinRoom appends playerID's record to the room's player list and the
// reverse index, atomically with the capacity check (spec §9: "preserve
// check-then-append under the same lock, do not split them").
func (reg *Registry) JoinRoom(roomID string, rec PlayerRecord) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return apierr.ErrNotFound
	}
	if _, inRoom := reg.playerToRoom[rec.PlayerID]; inRoom {
		return apierr.ErrAlreadyInRoom
	}
	if r.playerCount() >= r.Capacity {
		return apierr.ErrRoomFull
	}

	stored := rec.clone()
	elem := r.players.PushBack(&stored)
	r.drawOrder[rec.PlayerID] = elem
	reg.playerToRoom[rec.PlayerID] = roomID

	metrics.RoomParticipants.WithLabelValues(roomID).Set(float64(r.playerCount()))
	return nil
}

// LeaveRoom removes playerID from whatever room it occupies and returns that
// room's id with ok=true. Idempotent: a player not in any room (including a
// second call for the same player) yields ("", false).
func (reg *Registry) LeaveRoom(playerID string) (roomID string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.leaveRoomLocked(playerID)
}

func (reg *Registry) leaveRoomLocked(playerID string) (string, bool) {
	roomID, inRoom := reg.playerToRoom[playerID]
	if !inRoom {
		return "", false
	}

	r, ok := reg.rooms[roomID]
	if !ok {
		// Reverse index pointed at a room that no longer exists; repair it.
		delete(reg.playerToRoom, playerID)
		return "", false
	}

	if elem, found := r.drawOrder[playerID]; found {
		r.players.Remove(elem)
		delete(r.drawOrder, playerID)
	}
	delete(reg.playerToRoom, playerID)
	delete(reg.connections, playerID)

	if r.playerCount() > 0 {
		metrics.RoomParticipants.WithLabelValues(roomID).Set(float64(r.playerCount()))
	} else {
		// Empty-room deletion happens in the same critical section as the
		// player removal (spec §9), so a concurrent JoinRoom can never
		// race against it.
		delete(reg.rooms, roomID)
		metrics.ActiveRooms.Dec()
		metrics.RoomParticipants.DeleteLabelValues(roomID)
	}

	return roomID, true
}

// UpdatePose replaces the pose field on playerID's in-room record.
func (reg *Registry) UpdatePose(playerID string, pose wire.Pose) (roomID string, ok bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	rid, inRoom := reg.playerToRoom[playerID]
	if !inRoom {
		return "", false
	}
	r, exists := reg.rooms[rid]
	if !exists {
		return "", false
	}
	elem, found := r.drawOrder[playerID]
	if !found {
		return "", false
	}
	elem.Value.(*PlayerRecord).Pose = pose
	return rid, true
}

// GetRoom returns a consistent snapshot of the room's current state.
func (reg *Registry) GetRoom(roomID string) (RoomSnapshot, bool) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return RoomSnapshot{}, false
	}
	return r.snapshotLocked(), true
}

// GetRoomPlayers returns a snapshot of the room's current player records.
func (reg *Registry) GetRoomPlayers(roomID string) []PlayerRecord {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	snap := r.snapshotLocked()
	return snap.Players
}

// RoomSummary is the tuple find_rooms lists per matching room.
type RoomSummary struct {
	RoomID   string
	Current  int
	Capacity int
}

// FindRooms lists public, non-full rooms for gameID. Order is unspecified.
func (reg *Registry) FindRooms(gameID string) []RoomSummary {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	var out []RoomSummary
	for _, r := range reg.rooms {
		if r.GameID != gameID || r.Visibility != VisibilityPublic {
			continue
		}
		if r.playerCount() >= r.Capacity {
			continue
		}
		out = append(out, RoomSummary{RoomID: r.ID, Current: r.playerCount(), Capacity: r.Capacity})
	}
	return out
}

// Stats is the aggregate view returned by stats().
type Stats struct {
	RoomCount       int
	PlayerCount     int
	ConnectionCount int
}

// Stats reports aggregate registry counters.
func (reg *Registry) Stats() Stats {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	players := 0
	for _, r := range reg.rooms {
		players += r.playerCount()
	}
	return Stats{
		RoomCount:       len(reg.rooms),
		PlayerCount:     players,
		ConnectionCount: len(reg.connections),
	}
}

// BindConnection records the transport-side remote address for a player, so
// Stats().ConnectionCount reflects live connections (spec §4.3: stats()).
func (reg *Registry) BindConnection(playerID, remoteAddr string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.connections[playerID] = remoteAddr
}

// UnbindConnection drops the transport-side remote address for a player.
func (reg *Registry) UnbindConnection(playerID string) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	delete(reg.connections, playerID)
}

// snapshotMembership returns the current occupant ids of roomID under the
// registry's lock, for use by the broadcast package — see its package doc
// for why this snapshot must never be held across a network send.
func (reg *Registry) snapshotMembership(roomID string) []string {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	r, ok := reg.rooms[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, r.playerCount())
	for e := r.players.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(*PlayerRecord).PlayerID)
	}
	return ids
}

// SnapshotMembership is the exported form used by the broadcast package
// (kept in the same module but a separate package so C4 has no write
// access to C3's internals).
func (reg *Registry) SnapshotMembership(roomID string) []string {
	return reg.snapshotMembership(roomID)
}
