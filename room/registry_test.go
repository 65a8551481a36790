package room

import (
	"context"
	"testing"

	"hangman/game"
)

func TestGenerateRoomID(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		id := GenerateRoomID()
		if !ValidRoomID(id) {
			t.Fatalf("generated code %q failed validation", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) < 99 {
		t.Fatalf("100 generated codes produced only %d distinct values", len(seen))
	}
}

func TestValidRoomID(t *testing.T) {
	cases := []struct {
		id   string
		want bool
	}{
		{"0123456789", true},
		{"ABCDEF1234", true},
		{"abcdef1234", true},
		{"ABCDEF123", false},
		{"ABCDEF12345", false},
		{"ABCDEF123G", false},
		{"", false},
		{"../../etc/", false},
	}
	for _, c := range cases {
		if got := ValidRoomID(c.id); got != c.want {
			t.Fatalf("ValidRoomID(%q) = %v, want %v", c.id, got, c.want)
		}
	}
}

func TestCreatePersistsOwnerSession(t *testing.T) {
	store := newFakeStore()
	registry := NewRegistry(store)

	roomID, session, err := registry.Create(context.Background(), game.Config{Username: "alice", Rotation: game.RotationRobin})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !ValidRoomID(roomID) {
		t.Fatalf("allocated code %q failed validation", roomID)
	}
	if session.Hanger != "alice" {
		t.Fatalf("creator should be the hanger, got %q", session.Hanger)
	}

	loaded, err := registry.Load(context.Background(), roomID)
	if err != nil {
		t.Fatalf("load after create: %v", err)
	}
	if loaded.Players[0] != "alice" {
		t.Fatalf("persisted roster wrong: %v", loaded.Players)
	}
}

func TestLoadMissingRoom(t *testing.T) {
	registry := NewRegistry(newFakeStore())

	if _, err := registry.Load(context.Background(), "0123456789"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsTerminal(t *testing.T) {
	store := newFakeStore()
	registry := NewRegistry(store)

	roomID, _, err := registry.Create(context.Background(), game.Config{Username: "alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := registry.Delete(context.Background(), roomID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := registry.Load(context.Background(), roomID); err != ErrNotFound {
		t.Fatalf("deleted room must be gone, got %v", err)
	}
}
