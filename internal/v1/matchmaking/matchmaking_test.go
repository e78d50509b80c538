package matchmaking

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestTryMatchCohort is the S6 scenario.
func TestTryMatchCohort(t *testing.T) {
	q := NewQueue()
	q.Enqueue("g", "p1")
	q.Enqueue("g", "p2")
	q.Enqueue("g", "p3")
	q.Enqueue("g", "p4")

	cohort, ok := q.TryMatch("g", 3)
	require.True(t, ok)
	assert.Equal(t, []string{"p1", "p2", "p3"}, cohort)

	_, ok = q.TryMatch("g", 3)
	assert.False(t, ok)

	cohort, ok = q.TryMatch("g", 1)
	require.True(t, ok)
	assert.Equal(t, []string{"p4"}, cohort)
}

func TestDequeueRemovesAllOccurrences(t *testing.T) {
	q := NewQueue()
	q.Enqueue("g", "p1")
	q.Enqueue("g", "p2")
	q.Enqueue("g", "p1")

	q.Dequeue("g", "p1")

	cohort, ok := q.TryMatch("g", 1)
	require.True(t, ok)
	assert.Equal(t, []string{"p2"}, cohort)

	_, ok = q.TryMatch("g", 1)
	assert.False(t, ok)
}

func TestDequeueUnknownGameIsNoop(t *testing.T) {
	q := NewQueue()
	q.Dequeue("missing", "p1")
}

// TestConcurrentTryMatchNeverOverlaps is the concurrent "pop N" law: K
// concurrent callers against a FIFO of length L each racing for cohorts of
// size n must together produce floor(L/n) distinct, non-overlapping
// cohorts.
func TestConcurrentTryMatchNeverOverlaps(t *testing.T) {
	q := NewQueue()
	const total = 40
	const n = 4
	for i := 0; i < total; i++ {
		q.Enqueue("g", playerName(i))
	}

	var (
		mu      sync.Mutex
		seen    = make(map[string]bool)
		cohorts int
		wg      sync.WaitGroup
	)

	attempts := total/n + 5
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cohort, ok := q.TryMatch("g", n)
			if !ok {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			cohorts++
			for _, p := range cohort {
				require.False(t, seen[p], "player %s appeared in more than one cohort", p)
				seen[p] = true
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, total/n, cohorts)
	assert.Len(t, seen, total)
}

func playerName(i int) string {
	const letters = "abcdefghijklmnopqrstuvwxyz"
	return "p" + string(letters[i%len(letters)]) + string(rune('0'+i/len(letters)))
}
