package chat

import (
	"sort"
	"testing"

	"ticketdesk/internal/app/ticket"
	"ticketdesk/internal/app/user"
)

func TestRouteCandidateMessageReachesObservers(t *testing.T) {
	assignee := "B"
	tk := &ticket.Ticket{OwnerUserID: "A", AssignedUserID: &assignee}

	r := Route(tk, user.User{ID: "C", Role: user.RoleCandidate})
	sort.Strings(r.Users)
	if len(r.Users) != 2 || r.Users[0] != "A" || r.Users[1] != "B" {
		t.Fatalf("Users = %v, want [A B]", r.Users)
	}
	if !r.Observers {
		t.Fatal("Observers = false for candidate sender")
	}
}

func TestRouteOwnerIsNotNotifiedOfOwnMessage(t *testing.T) {
	assignee := "B"
	tk := &ticket.Ticket{OwnerUserID: "A", AssignedUserID: &assignee}

	r := Route(tk, user.User{ID: "A", Role: user.RoleCandidate})
	if len(r.Users) != 1 || r.Users[0] != "B" {
		t.Fatalf("Users = %v, want [B]", r.Users)
	}
}

func TestRouteStaffMessageSkipsObservers(t *testing.T) {
	assignee := "B"
	tk := &ticket.Ticket{OwnerUserID: "A", AssignedUserID: &assignee}

	r := Route(tk, user.User{ID: "B", Role: user.RoleSupervisor})
	if len(r.Users) != 1 || r.Users[0] != "A" {
		t.Fatalf("Users = %v, want [A]", r.Users)
	}
	if r.Observers {
		t.Fatal("Observers = true for staff sender")
	}
}

func TestRouteUnassignedTicket(t *testing.T) {
	tk := &ticket.Ticket{OwnerUserID: "A"}

	r := Route(tk, user.User{ID: "S", Role: user.RoleAdministrator})
	if len(r.Users) != 1 || r.Users[0] != "A" {
		t.Fatalf("Users = %v, want [A]", r.Users)
	}
}
