package room

// Conn is the room's view of one client connection. Implementations must not
// block and must not call back into the Engine: the engine invokes them while
// holding its lock.
type Conn interface {
	// ID identifies the connection for its whole lifetime.
	ID() string
	// Emit sends an event to this connection only.
	Emit(event string, payload any)
	// BroadcastOthers sends an event to every connection except this one.
	BroadcastOthers(event string, payload any)
	// BroadcastAll sends an event to every connection including this one.
	BroadcastAll(event string, payload any)
	// Closed reports whether the transport has dropped the connection. It
	// must turn true before Disconnect is called and never turn false again.
	Closed() bool
}
