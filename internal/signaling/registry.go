package signaling

import (
	"log"
	"strings"
	"sync"
)

const sendBufferSize = 64

// Client is one live transport connection. Outbound messages are queued
// on a buffered channel drained by the connection's write pump; when the
// queue is full the message is dropped rather than blocking the caller.
// Enqueue and closeSend share a mutex so a send can never race the
// close: callers that kept a *Client across an Unregister get a false
// return, not a panic.
type Client struct {
	ID string

	mu     sync.Mutex
	send   chan Message
	closed bool
}

// NewClient creates a client that is not yet attached to a transport.
// The websocket layer attaches the connection; tests read the outbox
// directly.
func NewClient(id string) *Client {
	return &Client{
		ID:   id,
		send: make(chan Message, sendBufferSize),
	}
}

// Enqueue queues an outbound message. Returns false if the client is
// slow (full queue) or already unregistered.
func (c *Client) Enqueue(msg Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// Outbox exposes the outbound queue to the write pump and to tests.
func (c *Client) Outbox() <-chan Message {
	return c.send
}

func (c *Client) closeSend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// RegistryStats is a point-in-time view of the registry, used by the
// monitor worker and the health endpoint.
type RegistryStats struct {
	Connections  int `json:"connections"`
	PatientRooms int `json:"patientRooms"`
	CallRooms    int `json:"callRooms"`
}

// Registry owns every live connection, its bound identity and its room
// memberships. All maps are guarded by one mutex. One registry is
// constructed per server instance and handed to whoever needs it.
type Registry struct {
	mu         sync.RWMutex
	clients    map[string]*Client
	identities map[string]*Client            // "type:id" -> client
	bound      map[string]Identity           // client id -> identity
	rooms      map[string]map[string]*Client // room -> client id -> client
	memberOf   map[string]map[string]bool    // client id -> room set
}

func NewRegistry() *Registry {
	return &Registry{
		clients:    make(map[string]*Client),
		identities: make(map[string]*Client),
		bound:      make(map[string]Identity),
		rooms:      make(map[string]map[string]*Client),
		memberOf:   make(map[string]map[string]bool),
	}
}

// Register adds a connection to the registry.
func (r *Registry) Register(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	r.memberOf[c.ID] = make(map[string]bool)
}

// Unregister removes a connection, cascading: the connection leaves
// every room it was a member of, a user-left event is broadcast to each
// affected room, and any identity binding is dropped.
func (r *Registry) Unregister(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return
	}

	for room := range r.memberOf[clientID] {
		r.leaveLocked(clientID, room)
		r.broadcastLocked(room, EventUserLeft, map[string]any{"userId": clientID}, clientID)
	}

	if ident, ok := r.bound[clientID]; ok {
		if r.identities[identityKey(ident)] == c {
			delete(r.identities, identityKey(ident))
		}
		delete(r.bound, clientID)
	}

	delete(r.memberOf, clientID)
	delete(r.clients, clientID)
	c.closeSend()
}

// Client looks up a connection by id.
func (r *Registry) Client(clientID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[clientID]
	return c, ok
}

// Bind attaches a logical identity to a connection. Rebinding replaces
// the previous identity; the latest connection wins a contested identity.
func (r *Registry) Bind(clientID string, ident Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return
	}

	if prev, ok := r.bound[clientID]; ok && r.identities[identityKey(prev)] == c {
		delete(r.identities, identityKey(prev))
	}
	r.bound[clientID] = ident
	r.identities[identityKey(ident)] = c
}

// IdentityOf returns the identity bound to a connection, if any.
func (r *Registry) IdentityOf(clientID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ident, ok := r.bound[clientID]
	return ident, ok
}

// FindByIdentity resolves a logical party to its live connection.
func (r *Registry) FindByIdentity(identType, id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.identities[identType+":"+id]
	return c, ok
}

// Join adds a connection to a room and returns the new room size.
func (r *Registry) Join(clientID, room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return 0
	}
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Client)
	}
	r.rooms[room][clientID] = c
	r.memberOf[clientID][room] = true
	return len(r.rooms[room])
}

// Leave removes a connection from a room. Empty rooms are pruned
// immediately.
func (r *Registry) Leave(clientID, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(clientID, room)
}

// JoinPersonalRoom puts a connection into a patient's notification room,
// first evicting it from any stale personal room left over from an
// earlier join on the same connection. Returns the joined room name.
func (r *Registry) JoinPersonalRoom(clientID, patientID string) string {
	room := PersonalRoom(patientID)

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientID]
	if !ok {
		return room
	}

	for joined := range r.memberOf[clientID] {
		if strings.HasPrefix(joined, personalRoomPrefix) && joined != room {
			r.leaveLocked(clientID, joined)
			log.Printf("signaling: connection %s left stale personal room %s", clientID, joined)
		}
	}

	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]*Client)
	}
	r.rooms[room][clientID] = c
	r.memberOf[clientID][room] = true
	return room
}

// Broadcast sends an event to every member of a room except
// excludeClientID. A room with no members is a silent no-op. Returns the
// number of connections the message was queued for.
func (r *Registry) Broadcast(room, event string, data any, excludeClientID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.broadcastLocked(room, event, data, excludeClientID)
}

// SendTo queues an event for a single connection.
func (r *Registry) SendTo(clientID, event string, data any) bool {
	r.mu.RLock()
	c, ok := r.clients[clientID]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	return c.Enqueue(Message{Event: event, Data: data})
}

// RoomSize returns the current number of members in a room.
func (r *Registry) RoomSize(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}

// RoomsOf returns the rooms a connection is currently a member of.
func (r *Registry) RoomsOf(clientID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rooms := make([]string, 0, len(r.memberOf[clientID]))
	for room := range r.memberOf[clientID] {
		rooms = append(rooms, room)
	}
	return rooms
}

// ClearRoom removes every member from a room, used when a call ends.
func (r *Registry) ClearRoom(room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for clientID := range r.rooms[room] {
		delete(r.memberOf[clientID], room)
	}
	delete(r.rooms, room)
}

// Stats snapshots connection and room counts.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := RegistryStats{Connections: len(r.clients)}
	for room := range r.rooms {
		if strings.HasPrefix(room, personalRoomPrefix) {
			stats.PatientRooms++
		} else {
			stats.CallRooms++
		}
	}
	return stats
}

func (r *Registry) leaveLocked(clientID, room string) {
	members, ok := r.rooms[room]
	if !ok {
		return
	}
	delete(members, clientID)
	if set, ok := r.memberOf[clientID]; ok {
		delete(set, room)
	}
	if len(members) == 0 {
		delete(r.rooms, room)
	}
}

func (r *Registry) broadcastLocked(room, event string, data any, excludeClientID string) int {
	delivered := 0
	for id, member := range r.rooms[room] {
		if id == excludeClientID {
			continue
		}
		if member.Enqueue(Message{Event: event, Data: data}) {
			delivered++
		}
	}
	return delivered
}

func identityKey(ident Identity) string {
	return ident.Type + ":" + ident.ID
}
