package session

import "sync"

// Registry tracks live connections by client id and maintains the
// bidirectional client-id <-> tournament-player-id alias map described
// in SPEC_FULL.md §4.2/§9: tournaments address players by a stable
// tournament-player id fixed at lobby time, while chat/matchmaking
// address the same participant by connection client id, and a
// connection may carry both identities at once.
type Registry struct {
	mu          sync.RWMutex
	connections map[string]*Connection // clientID -> connection
	aliasToClient map[string]string    // tournamentPlayerID -> clientID
	clientToAlias map[string]string    // clientID -> tournamentPlayerID
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		connections:   make(map[string]*Connection),
		aliasToClient: make(map[string]string),
		clientToAlias: make(map[string]string),
	}
}

// Register binds sender to clientID, replacing any prior connection for
// that client id (SPEC_FULL.md §3 Connection invariant: at most one live
// connection per client id).
func (r *Registry) Register(clientID string, sender Sender) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn := newConnection(clientID, sender)
	r.connections[clientID] = conn
	return conn
}

// SetAlias records playerID as clientID's tournament-player-id alias.
func (r *Registry) SetAlias(clientID, playerID string) {
	if playerID == "" || playerID == clientID {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clientToAlias[clientID] = playerID
	r.aliasToClient[playerID] = clientID
}

// Get returns the live connection for a client id.
func (r *Registry) Get(clientID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connections[clientID]
	return c, ok
}

// Remove drops a client id's connection entry. It is a no-op if cur is
// not the currently registered connection (it was already replaced).
func (r *Registry) Remove(clientID string, cur *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.connections[clientID]; ok && existing == cur {
		delete(r.connections, clientID)
	}
}

// ClientIDForAlias resolves a tournament-player-id back to the client id
// of the connection that currently owns it, if any.
func (r *Registry) ClientIDForAlias(playerID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.aliasToClient[playerID]
	return id, ok
}

// AliasForClient resolves a client id's tournament-player-id alias, if
// one was set at REGISTER.
func (r *Registry) AliasForClient(clientID string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.clientToAlias[clientID]
	return id, ok
}

// ResolveConnection finds the live connection for either a client id or
// a tournament-player-id alias, per SPEC_FULL.md §9: "implementations
// must consult both mappings when resolving decision-maker identity."
func (r *Registry) ResolveConnection(id string) (*Connection, bool) {
	r.mu.RLock()
	conn, ok := r.connections[id]
	if ok {
		r.mu.RUnlock()
		return conn, true
	}
	clientID, hasAlias := r.aliasToClient[id]
	r.mu.RUnlock()
	if !hasAlias {
		return nil, false
	}
	return r.Get(clientID)
}

// Count returns the number of live connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
