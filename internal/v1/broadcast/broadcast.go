// Package broadcast implements the Broadcast & Voice Overlay (spec §4.4,
// C4): given a room id and a message, it fans the message out to every
// current occupant (optionally excluding one sender). Voice is a thin
// specialization with its own membership subset (spec §3, "Voice channel
// membership").
//
// Following the teacher's room.Broadcast — marshal once, snapshot
// membership, send outside any lock — this package never holds the room
// registry's lock across a Sender.Send call (spec §5: "no suspension point
// may hold the registry lock").
package broadcast

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/vrsocial/roomcore/internal/v1/logging"
	"github.com/vrsocial/roomcore/internal/v1/metrics"
	"github.com/vrsocial/roomcore/internal/v1/wire"
)

// MembershipSource is the subset of the Room Registry that broadcast needs:
// a consistent snapshot of who currently occupies a room. Kept as an
// interface so the overlay never depends on room.Registry's internals.
type MembershipSource interface {
	SnapshotMembership(roomID string) []string
}

// Sender is the transport collaborator interface (spec §6):
// send(player_id, message_bytes) -> Result<unit, SendError>.
type Sender interface {
	Send(playerID string, data []byte) error
}

// Overlay fans out room broadcasts and manages the independent voice
// channel membership subset.
type Overlay struct {
	rooms  MembershipSource
	sender Sender

	voiceMu sync.Mutex
	voice   map[string]map[string]struct{} // room_id -> set of enrolled player ids
}

// NewOverlay constructs a broadcast/voice overlay backed by the given room
// membership source and transport sender.
func NewOverlay(rooms MembershipSource, sender Sender) *Overlay {
	return &Overlay{
		rooms:  rooms,
		sender: sender,
		voice:  make(map[string]map[string]struct{}),
	}
}

// Broadcast delivers msg to every current occupant of roomID other than
// excludePlayerID (if non-empty). The membership snapshot is taken once,
// up front; delivery failures to individual recipients are logged and do
// not abort the fan-out (spec §4.4).
func (o *Overlay) Broadcast(roomID string, msgType wire.Type, msg []byte, excludePlayerID string) {
	start := time.Now()
	members := o.rooms.SnapshotMembership(roomID)

	for _, playerID := range members {
		if playerID == excludePlayerID {
			continue
		}
		if err := o.sender.Send(playerID, msg); err != nil {
			metrics.BroadcastMessages.WithLabelValues(string(msgType), "failed").Inc()
			logging.Warn(context.Background(), "broadcast delivery failed",
				zap.String("room_id", roomID), zap.String("player_id", playerID), zap.Error(err))
			continue
		}
		metrics.BroadcastMessages.WithLabelValues(string(msgType), "ok").Inc()
	}

	metrics.BroadcastFanoutDuration.WithLabelValues(string(msgType)).Observe(time.Since(start).Seconds())
}

// JoinVoice enrolls playerID in roomID's voice channel.
func (o *Overlay) JoinVoice(roomID, playerID string) {
	o.voiceMu.Lock()
	defer o.voiceMu.Unlock()

	set, ok := o.voice[roomID]
	if !ok {
		set = make(map[string]struct{})
		o.voice[roomID] = set
	}
	set[playerID] = struct{}{}
	metrics.VoiceEnrollees.WithLabelValues(roomID).Set(float64(len(set)))
}

// LeaveVoice removes playerID from roomID's voice channel. When the last
// enrollee leaves, the room's voice entry is removed entirely (spec §3).
func (o *Overlay) LeaveVoice(roomID, playerID string) {
	o.voiceMu.Lock()
	defer o.voiceMu.Unlock()

	set, ok := o.voice[roomID]
	if !ok {
		return
	}
	delete(set, playerID)
	if len(set) == 0 {
		delete(o.voice, roomID)
		metrics.VoiceEnrollees.DeleteLabelValues(roomID)
		return
	}
	metrics.VoiceEnrollees.WithLabelValues(roomID).Set(float64(len(set)))
}

// voiceSnapshot returns the current voice enrollees of roomID.
func (o *Overlay) voiceSnapshot(roomID string) []string {
	o.voiceMu.Lock()
	defer o.voiceMu.Unlock()

	set, ok := o.voice[roomID]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// BroadcastAudio fans a voice frame out to every enrollee of roomID other
// than senderID. The overlay does not validate that enrollees are actually
// in the room (spec open question, preserved intentionally).
func (o *Overlay) BroadcastAudio(roomID, senderID string, frame []byte) {
	msg, err := wire.Encode(wire.TypeVoiceData, wire.VoiceDataPayload{PlayerID: senderID, AudioBytes: frame})
	if err != nil {
		logging.Error(context.Background(), "failed to encode voice frame", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	for _, playerID := range o.voiceSnapshot(roomID) {
		if playerID == senderID {
			continue
		}
		if err := o.sender.Send(playerID, msg); err != nil {
			metrics.VoiceFramesRelayed.WithLabelValues("failed").Inc()
			logging.Warn(context.Background(), "voice relay failed",
				zap.String("room_id", roomID), zap.String("player_id", playerID), zap.Error(err))
			continue
		}
		metrics.VoiceFramesRelayed.WithLabelValues("ok").Inc()
	}
}
