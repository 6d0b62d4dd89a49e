// Package privateroom implements the Private Game Registry (C6): a map
// of host-chosen 6-character codes to a pending host/guest pair that
// resolves to a match the moment a guest arrives. Grounded on the
// teacher's generateJoinCode (internal/multiplayer/coordinator.go),
// generalized from a server-generated code to accepting (and
// de-duplicating) a client-supplied one.
package privateroom

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/duellab/pdserver/internal/gameplay"
)

// Timeout is how long an unmatched private room survives before the
// dispatcher should reap it (Open Question resolution of spec.md §9).
const Timeout = 10 * time.Minute

// ErrCodeTaken is returned by Create when gameCode already names a live
// room.
var ErrCodeTaken = errors.New("privateroom: code already in use")

// Status is a private room's lifecycle stage.
type Status string

const (
	StatusWaiting Status = "waiting"
	StatusMatched Status = "matched"
)

// Room is a pending private-game rendezvous.
type Room struct {
	Code         string
	HostClientID string
	Host         gameplay.Player
	GuestClientID string
	Guest        *gameplay.Player
	Status       Status
	CreatedAt    time.Time
}

// Registry tracks live private rooms by code.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

// NewRegistry creates an empty private room registry.
func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]*Room)}
}

// Count returns the number of live private rooms.
func (r *Registry) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

// Create registers a new room under gameCode, normalised to uppercase.
// It fails if the code is already taken by a live room.
func (r *Registry) Create(code, hostClientID string, host gameplay.Player) (*Room, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[code]; exists {
		return nil, ErrCodeTaken
	}
	room := &Room{
		Code:         code,
		HostClientID: hostClientID,
		Host:         host,
		Status:       StatusWaiting,
		CreatedAt:    time.Now(),
	}
	r.rooms[code] = room
	return room, nil
}

// Join attaches a guest to an existing waiting room, flipping its status
// to matched and returning it for match creation. The room stays
// registered until the caller explicitly removes it via Remove, so
// duplicate JOIN_PRIVATE_GAME calls can be rejected.
func (r *Registry) Join(code, guestClientID string, guest gameplay.Player) (*Room, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[code]
	if !ok || room.Status != StatusWaiting {
		return nil, false
	}
	room.GuestClientID = guestClientID
	g := guest
	room.Guest = &g
	room.Status = StatusMatched
	return room, true
}

// Remove deletes a room, typically once its match has been created or it
// has been reaped for timing out.
func (r *Registry) Remove(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
}

// Get looks up a room by code without mutating it.
func (r *Registry) Get(code string) (*Room, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[code]
	return room, ok
}

// RemoveByHost removes whatever room hostClientID currently owns, e.g.
// when the host disconnects before a guest arrives.
func (r *Registry) RemoveByHost(hostClientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for code, room := range r.rooms {
		if room.HostClientID == hostClientID {
			delete(r.rooms, code)
		}
	}
}

// ReapExpired removes and returns rooms that have waited past Timeout
// without a guest.
func (r *Registry) ReapExpired(now time.Time) []*Room {
	r.mu.Lock()
	defer r.mu.Unlock()

	var expired []*Room
	for code, room := range r.rooms {
		if room.Status == StatusWaiting && now.Sub(room.CreatedAt) > Timeout {
			expired = append(expired, room)
			delete(r.rooms, code)
		}
	}
	return expired
}
