package chat

import (
	"sort"
	"testing"
	"time"
)

func TestPresenceLastRegistrationWins(t *testing.T) {
	p := NewPresence()
	first := &Client{id: "a"}
	second := &Client{id: "b"}

	if old := p.Register("u1", first); old != nil {
		t.Fatalf("Register first replaced %v", old.id)
	}
	if old := p.Register("u1", second); old != first {
		t.Fatalf("Register second replaced %v, want first", old)
	}

	if p.Unregister("u1", first) {
		t.Fatal("Unregister of replaced connection removed the binding")
	}
	if !p.IsOnline("u1") {
		t.Fatal("IsOnline = false after stale unregister")
	}

	if !p.Unregister("u1", second) {
		t.Fatal("Unregister of current connection = false")
	}
	if p.IsOnline("u1") {
		t.Fatal("IsOnline = true after unregister")
	}
	if p.Unregister("u1", second) {
		t.Fatal("second Unregister = true, want no-op")
	}
}

func TestRoomsJoinLeaveIdempotent(t *testing.T) {
	r := NewRooms()
	room := TicketRoom("t1")

	if !r.Join(room, "u1") {
		t.Fatal("first Join = false")
	}
	if r.Join(room, "u1") {
		t.Fatal("second Join = true")
	}
	if got := r.Members(room); len(got) != 1 {
		t.Fatalf("Members = %v, want one", got)
	}

	if !r.Leave(room, "u1") {
		t.Fatal("first Leave = false")
	}
	if r.Leave(room, "u1") {
		t.Fatal("second Leave = true")
	}
	if r.IsMember(room, "u1") {
		t.Fatal("IsMember after leave")
	}
}

func TestRoomsLeaveAllOnlyTouchesUser(t *testing.T) {
	r := NewRooms()
	r.Join(TicketRoom("t1"), "u1")
	r.Join(TicketRoom("t2"), "u1")
	r.Join(RoomGlobal, "u1")
	r.Join(TicketRoom("t1"), "u2")

	left := r.LeaveAll("u1")
	if len(left) != 3 {
		t.Fatalf("LeaveAll = %v, want 3 rooms", left)
	}
	if len(r.RoomsOf("u1")) != 0 {
		t.Fatalf("RoomsOf(u1) = %v, want none", r.RoomsOf("u1"))
	}
	if !r.IsMember(TicketRoom("t1"), "u2") {
		t.Fatal("u2 lost membership")
	}
}

func TestRoomTicketID(t *testing.T) {
	if id, ok := TicketRoom("abc").TicketID(); !ok || id != "abc" {
		t.Fatalf("TicketID = %q, %v", id, ok)
	}
	if _, ok := SelfRoom("abc").TicketID(); ok {
		t.Fatal("self room parsed as ticket room")
	}
	if _, ok := RoomObservers.TicketID(); ok {
		t.Fatal("observers parsed as ticket room")
	}
}

func TestTypingStartIsIdempotent(t *testing.T) {
	tr := NewTyping()
	now := time.Now()

	if !tr.Start("t1", "u1", now) {
		t.Fatal("first Start = false")
	}
	if tr.Start("t1", "u1", now) {
		t.Fatal("second Start = true")
	}
	if got := tr.Typers("t1"); len(got) != 1 {
		t.Fatalf("Typers = %v, want exactly one", got)
	}

	if !tr.Stop("t1", "u1") {
		t.Fatal("first Stop = false")
	}
	if tr.Stop("t1", "u1") {
		t.Fatal("second Stop = true")
	}
}

func TestTypingStopAll(t *testing.T) {
	tr := NewTyping()
	now := time.Now()
	tr.Start("t1", "u1", now)
	tr.Start("t2", "u1", now)
	tr.Start("t1", "u2", now)

	tickets := tr.StopAll("u1")
	sort.Strings(tickets)
	if len(tickets) != 2 || tickets[0] != "t1" || tickets[1] != "t2" {
		t.Fatalf("StopAll = %v, want [t1 t2]", tickets)
	}
	if got := tr.Typers("t1"); len(got) != 1 || got[0] != "u2" {
		t.Fatalf("Typers(t1) = %v, want [u2]", got)
	}
	if got := tr.StopAll("u1"); len(got) != 0 {
		t.Fatalf("second StopAll = %v, want none", got)
	}
}

func TestTypingSweepExpiresStaleEntries(t *testing.T) {
	tr := NewTyping()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tr.Start("t1", "old", base)
	tr.Start("t1", "fresh", base.Add(8*time.Second))

	expired := tr.Sweep(base.Add(11*time.Second), 10*time.Second)
	if len(expired) != 1 || expired[0].UserID != "old" {
		t.Fatalf("Sweep = %v, want [old]", expired)
	}
	if got := tr.Typers("t1"); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("Typers = %v, want [fresh]", got)
	}
}
