package transport

import (
	"testing"

	"go.uber.org/goleak"
)

// TestMain verifies the write-pump goroutine spawned per connection always
// exits once its client is unregistered, the way the teacher's room package
// guards its own per-room background goroutines.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
