package gateway

import "sync"

// Handle is the single owned, swappable reference to the live gateway.
// Execution loops resolve it on every call, so a supervisor reset is picked
// up transparently: readers see either the old connection or the fully
// constructed new one, never a partial one.
type Handle struct {
	mu   sync.RWMutex
	conn Conn
}

// NewHandle creates a handle around an initial connection.
func NewHandle(conn Conn) *Handle {
	return &Handle{conn: conn}
}

// Resolve returns the current live gateway.
func (h *Handle) Resolve() Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.conn
}

// Swap installs a replacement gateway and returns the previous one so the
// caller can close it. Only the connection supervisor calls this.
func (h *Handle) Swap(conn Conn) Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	old := h.conn
	h.conn = conn
	return old
}
