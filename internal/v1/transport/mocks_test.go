package transport

import (
	"errors"
	"net"
	"sync"
	"time"
)

var errClosedByPeer = errors.New("closed by peer")

// fakeConn implements wsConnection against an in-memory queue of inbound
// frames and a record of outbound writes, following the teacher's
// MockConnection pattern (mocks_test.go).
type fakeConn struct {
	mu      sync.Mutex
	inbox   [][]byte
	readErr error

	written [][]byte
	closed  bool
}

func newFakeConn(inbox ...[]byte) *fakeConn {
	return &fakeConn{inbox: inbox}
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.inbox) == 0 {
		if f.readErr != nil {
			return 0, nil, f.readErr
		}
		return 0, nil, errClosedByPeer
	}
	msg := f.inbox[0]
	f.inbox = f.inbox[1:]
	return 1, msg, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) SetWriteDeadline(_ time.Time) error { return nil }

func (f *fakeConn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: 9000}
}

func (f *fakeConn) writtenMessages() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.written))
	copy(out, f.written)
	return out
}
