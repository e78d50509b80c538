// Package matchmaking implements the Matchmaking Queue (spec §4.5, C5): a
// per-game FIFO of waiting players with an atomic "pop N" to form cohorts.
// C5 does not place players into rooms itself — a cohort is handed back to
// the caller, who is expected to feed it into room.Registry.JoinRoom calls
// (spec §4.5, "Policy").
package matchmaking

import (
	"container/list"
	"sync"

	"github.com/vrsocial/roomcore/internal/v1/metrics"
)

// Queue is the process-wide matchmaking queue, one FIFO per game id.
type Queue struct {
	mu    sync.Mutex
	fifos map[string]*list.List
}

// NewQueue constructs an empty matchmaking queue.
func NewQueue() *Queue {
	return &Queue{fifos: make(map[string]*list.List)}
}

// Enqueue appends playerID to gameID's FIFO, creating it if absent. No
// duplicate check is performed (spec §4.5).
func (q *Queue) Enqueue(gameID, playerID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	fifo, ok := q.fifos[gameID]
	if !ok {
		fifo = list.New()
		q.fifos[gameID] = fifo
	}
	fifo.PushBack(playerID)
	metrics.MatchmakingQueueDepth.WithLabelValues(gameID).Set(float64(fifo.Len()))
}

// Dequeue removes every occurrence of playerID from gameID's FIFO. No-op if
// absent.
func (q *Queue) Dequeue(gameID, playerID string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	fifo, ok := q.fifos[gameID]
	if !ok {
		return
	}
	for e := fifo.Front(); e != nil; {
		next := e.Next()
		if e.Value.(string) == playerID {
			fifo.Remove(e)
		}
		e = next
	}
	metrics.MatchmakingQueueDepth.WithLabelValues(gameID).Set(float64(fifo.Len()))
}

// TryMatch atomically pops the first n entries off gameID's FIFO and
// returns them as an ordered cohort if at least n are waiting; otherwise it
// returns (nil, false) and leaves the FIFO untouched. The pop-and-return
// happens under the same lock, so no two concurrent callers can receive
// overlapping cohorts.
func (q *Queue) TryMatch(gameID string, n int) ([]string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	fifo, ok := q.fifos[gameID]
	if !ok || fifo.Len() < n {
		return nil, false
	}

	cohort := make([]string, 0, n)
	for i := 0; i < n; i++ {
		front := fifo.Front()
		cohort = append(cohort, front.Value.(string))
		fifo.Remove(front)
	}

	metrics.MatchmakingQueueDepth.WithLabelValues(gameID).Set(float64(fifo.Len()))
	metrics.MatchmakingCohorts.WithLabelValues(gameID).Inc()
	return cohort, true
}
