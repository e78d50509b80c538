package broadcast

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrsocial/roomcore/internal/v1/wire"
)

type fakeMembership struct {
	members map[string][]string
}

func (f *fakeMembership) SnapshotMembership(roomID string) []string {
	return f.members[roomID]
}

type recordingSender struct {
	mu       sync.Mutex
	sent     map[string][][]byte
	failFor  map[string]bool
}

func newRecordingSender() *recordingSender {
	return &recordingSender{sent: make(map[string][][]byte), failFor: make(map[string]bool)}
}

func (s *recordingSender) Send(playerID string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFor[playerID] {
		return errors.New("boom")
	}
	s.sent[playerID] = append(s.sent[playerID], data)
	return nil
}

// TestBroadcastExcludesSender is the S5 scenario.
func TestBroadcastExcludesSender(t *testing.T) {
	mem := &fakeMembership{members: map[string][]string{"room-1": {"A", "B", "C"}}}
	sender := newRecordingSender()
	overlay := NewOverlay(mem, sender)

	overlay.Broadcast("room-1", wire.TypeCustomEvent, []byte("hi"), "B")

	assert.Len(t, sender.sent["A"], 1)
	assert.Len(t, sender.sent["C"], 1)
	assert.Empty(t, sender.sent["B"])
}

func TestBroadcastContinuesPastIndividualFailures(t *testing.T) {
	mem := &fakeMembership{members: map[string][]string{"room-1": {"A", "B"}}}
	sender := newRecordingSender()
	sender.failFor["A"] = true
	overlay := NewOverlay(mem, sender)

	overlay.Broadcast("room-1", wire.TypeCustomEvent, []byte("hi"), "")

	assert.Empty(t, sender.sent["A"])
	assert.Len(t, sender.sent["B"], 1)
}

func TestVoiceChannelLifecycle(t *testing.T) {
	mem := &fakeMembership{}
	sender := newRecordingSender()
	overlay := NewOverlay(mem, sender)

	overlay.JoinVoice("room-1", "A")
	overlay.JoinVoice("room-1", "B")

	overlay.BroadcastAudio("room-1", "A", []byte{1, 2, 3})
	require.Len(t, sender.sent["B"], 1)
	assert.Empty(t, sender.sent["A"], "sender must not receive its own voice frame")

	overlay.LeaveVoice("room-1", "A")
	overlay.LeaveVoice("room-1", "B")

	_, stillTracked := overlay.voice["room-1"]
	assert.False(t, stillTracked, "voice entry must be removed once the last enrollee leaves")
}
