package chat

import (
	"strings"
	"sync"
)

// RoomID names a broadcast group.
type RoomID string

const (
	// RoomObservers holds every connected privileged user.
	RoomObservers RoomID = "observers"

	// RoomGlobal holds every connected user.
	RoomGlobal RoomID = "global"

	ticketRoomPrefix = "ticket:"
	selfRoomPrefix   = "self:"
)

// TicketRoom returns the room of a ticket conversation.
func TicketRoom(ticketID string) RoomID {
	return RoomID(ticketRoomPrefix + ticketID)
}

// SelfRoom returns the personal room of a user.
func SelfRoom(userID string) RoomID {
	return RoomID(selfRoomPrefix + userID)
}

// TicketID returns the ticket id of a ticket room.
func (r RoomID) TicketID() (string, bool) {
	if !strings.HasPrefix(string(r), ticketRoomPrefix) {
		return "", false
	}
	return strings.TrimPrefix(string(r), ticketRoomPrefix), true
}

// Rooms tracks (room, user) memberships with a reverse index so a user's rooms
// can be dropped without scanning every room.
type Rooms struct {
	mu      sync.RWMutex
	members map[RoomID]map[string]struct{}
	byUser  map[string]map[RoomID]struct{}
}

// NewRooms returns an empty membership table.
func NewRooms() *Rooms {
	return &Rooms{
		members: make(map[RoomID]map[string]struct{}),
		byUser:  make(map[string]map[RoomID]struct{}),
	}
}

// Join adds userID to room and reports whether it was not already a member.
func (r *Rooms) Join(room RoomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.members[room]
	if !ok {
		set = make(map[string]struct{})
		r.members[room] = set
	}
	if _, exists := set[userID]; exists {
		return false
	}
	set[userID] = struct{}{}

	rooms, ok := r.byUser[userID]
	if !ok {
		rooms = make(map[RoomID]struct{})
		r.byUser[userID] = rooms
	}
	rooms[room] = struct{}{}

	return true
}

// Leave removes userID from room and reports whether it was a member.
func (r *Rooms) Leave(room RoomID, userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.leaveLocked(room, userID)
}

func (r *Rooms) leaveLocked(room RoomID, userID string) bool {
	set, ok := r.members[room]
	if !ok {
		return false
	}
	if _, exists := set[userID]; !exists {
		return false
	}

	delete(set, userID)
	if len(set) == 0 {
		delete(r.members, room)
	}

	if rooms, ok := r.byUser[userID]; ok {
		delete(rooms, room)
		if len(rooms) == 0 {
			delete(r.byUser, userID)
		}
	}

	return true
}

// LeaveAll removes userID from every room and returns the rooms it left.
func (r *Rooms) LeaveAll(userID string) []RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := r.byUser[userID]
	left := make([]RoomID, 0, len(rooms))
	for room := range rooms {
		left = append(left, room)
	}
	for _, room := range left {
		r.leaveLocked(room, userID)
	}

	return left
}

// IsMember reports whether userID belongs to room.
func (r *Rooms) IsMember(room RoomID, userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.members[room][userID]
	return ok
}

// Members returns the users recorded in room. Callers wanting live members
// intersect the result with Presence.
func (r *Rooms) Members(room RoomID) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.members[room]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	return ids
}

// RoomsOf returns every room userID belongs to.
func (r *Rooms) RoomsOf(userID string) []RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]RoomID, 0, len(r.byUser[userID]))
	for room := range r.byUser[userID] {
		rooms = append(rooms, room)
	}
	return rooms
}
