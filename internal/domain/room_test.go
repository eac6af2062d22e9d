package domain

import "testing"

func TestRoomStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to RoomStatus
		ok       bool
	}{
		{StatusWaiting, StatusActive, true},
		{StatusWaiting, StatusEnded, true},
		{StatusActive, StatusEnded, true},
		{StatusActive, StatusWaiting, false},
		{StatusEnded, StatusWaiting, false},
		{StatusEnded, StatusActive, false},
		{StatusWaiting, StatusWaiting, false},
		{StatusActive, StatusActive, false},
		{StatusEnded, StatusEnded, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransitionTo(c.to); got != c.ok {
			t.Errorf("%s -> %s: got %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestRoomIsOpen(t *testing.T) {
	for _, c := range []struct {
		status RoomStatus
		open   bool
	}{
		{StatusWaiting, true},
		{StatusActive, true},
		{StatusEnded, false},
	} {
		r := Room{Status: c.status}
		if r.IsOpen() != c.open {
			t.Errorf("IsOpen for %s: got %v, want %v", c.status, r.IsOpen(), c.open)
		}
	}
}

func TestParticipantDisplayLabel(t *testing.T) {
	name := "Night Owl"
	email := "owl@example.com"

	p := ParticipantDetailed{UserID: "3f2b8a6e-0000-0000-0000-000000000000"}
	if got := p.DisplayLabel(); got != "3f2b8a6e" {
		t.Fatalf("fallback label: got %q", got)
	}

	p.Email = &email
	if got := p.DisplayLabel(); got != email {
		t.Fatalf("email label: got %q", got)
	}

	p.DisplayName = &name
	if got := p.DisplayLabel(); got != name {
		t.Fatalf("display name label: got %q", got)
	}
}
