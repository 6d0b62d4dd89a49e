package dispatch

// Stats is a read-only snapshot of server load, for the admin console.
// It never mutates anything and takes the same lock every handler does,
// so a reader sees a consistent point-in-time count.
type Stats struct {
	Connections      int
	Sessions         int
	QueueLen         int
	PrivateRooms     int
	Lobbies          int
	LiveMatches      int
	LiveTournaments  int
	OfflineWriteQueue int
}

// Stats reports current server load.
func (l *Loop) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		Connections:       l.registry.Count(),
		Sessions:          l.sessions.Count(),
		QueueLen:          l.queue.Len(),
		PrivateRooms:      l.rooms.Count(),
		Lobbies:           l.lobbies.Count(),
		LiveMatches:       len(l.matches.All()),
		LiveTournaments:   l.tournaments.Count(),
		OfflineWriteQueue: l.bridge.QueueLen(),
	}
}
