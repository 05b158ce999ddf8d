package gateway

import "sync"

// OrderIDMap is the bidirectional index between gateway-local order
// identifiers and venue-assigned ones. Entries are inserted atomically
// at successful submission and never removed; the map is the only
// correct way to attribute a venue push to a local order.
type OrderIDMap struct {
	mu            sync.RWMutex
	localToRemote map[string]string
	remoteToLocal map[string]string
}

// NewOrderIDMap creates an empty reconciliation map.
func NewOrderIDMap() *OrderIDMap {
	return &OrderIDMap{
		localToRemote: make(map[string]string),
		remoteToLocal: make(map[string]string),
	}
}

// Put records both directions of one submission. Called exactly once
// per successfully acknowledged order.
func (m *OrderIDMap) Put(local, remote string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.localToRemote[local] = remote
	m.remoteToLocal[remote] = local
}

// LocalToRemote resolves the venue id for a cancel. Absence is a
// reported, non-fatal condition at the call site.
func (m *OrderIDMap) LocalToRemote(local string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	remote, ok := m.localToRemote[local]
	return remote, ok
}

// RemoteToLocal resolves the local id for a venue push.
func (m *OrderIDMap) RemoteToLocal(remote string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	local, ok := m.remoteToLocal[remote]
	return local, ok
}

// LocalFor resolves a push's remote id, falling back to the remote id
// itself when no mapping exists. The fallback is a defensive
// degradation, not a correctness guarantee.
func (m *OrderIDMap) LocalFor(remote string) string {
	if local, ok := m.RemoteToLocal(remote); ok {
		return local
	}
	return remote
}
