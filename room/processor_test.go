package room

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"hangman/common/cache"
	"hangman/game"
)

type fakeStore struct {
	mu    sync.Mutex
	rooms map[string][]byte
}

func newFakeStore() *fakeStore {
	return &fakeStore{rooms: make(map[string][]byte)}
}

func (f *fakeStore) Load(ctx context.Context, roomID string) (*game.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.rooms[roomID]
	if !ok {
		return nil, ErrNotFound
	}
	var session game.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (f *fakeStore) Save(ctx context.Context, roomID string, session *game.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.rooms[roomID] = raw
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Delete(ctx context.Context, roomID string) error {
	f.mu.Lock()
	delete(f.rooms, roomID)
	f.mu.Unlock()
	return nil
}

func (f *fakeStore) Exists(ctx context.Context, roomID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rooms[roomID]
	return ok, nil
}

type emitted struct {
	roomID string
	connID string
	event  string
	data   any
}

type fakeEmitter struct {
	mu     sync.Mutex
	events []emitted
}

func (f *fakeEmitter) ToRoom(roomID, event string, data any) {
	f.mu.Lock()
	f.events = append(f.events, emitted{roomID: roomID, event: event, data: data})
	f.mu.Unlock()
}

func (f *fakeEmitter) ToConn(connID, event string, data any) {
	f.mu.Lock()
	f.events = append(f.events, emitted{connID: connID, event: event, data: data})
	f.mu.Unlock()
}

func (f *fakeEmitter) ToRoomExcept(roomID, exceptConnID, event string, data any) {
	f.mu.Lock()
	f.events = append(f.events, emitted{roomID: roomID, connID: exceptConnID, event: event, data: data})
	f.mu.Unlock()
}

func (f *fakeEmitter) find(event string) (emitted, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.events) - 1; i >= 0; i-- {
		if f.events[i].event == event {
			return f.events[i], true
		}
	}
	return emitted{}, false
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func newTestProcessor(t *testing.T, store Store, grace time.Duration) (*Processor, *fakeEmitter) {
	t.Helper()
	snapshots, err := cache.NewGeneralCache(1<<20, time.Minute)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	t.Cleanup(snapshots.Close)

	emitter := &fakeEmitter{}
	p := NewProcessor(NewRegistry(store), emitter, snapshots, grace)
	t.Cleanup(p.Close)
	return p, emitter
}

const testRoomID = "AB12CD34EF"

func seedRoom(t *testing.T, store Store, session *game.Session) {
	t.Helper()
	if err := store.Save(context.Background(), testRoomID, session); err != nil {
		t.Fatalf("seeding room: %v", err)
	}
}

func startedSession(players ...string) *game.Session {
	s := game.NewSession(game.Config{Username: players[0], Rotation: game.RotationRobin})
	for _, p := range players[1:] {
		s.AddPlayer(p)
	}
	s.Start()
	s.NewRound("Animals", "CAT", "")
	return s
}

func TestCreateEmitsLink(t *testing.T) {
	store := newFakeStore()
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]any{
		"username": "alice", "lives": 3, "numRounds": 5, "rotation": "robin", "time": "30",
	})
	p.Dispatch(Command{Name: "create", ConnID: "c1", Data: payload})

	var link emitted
	waitFor(t, "link event", func() bool {
		var ok bool
		link, ok = emitter.find("link")
		return ok
	})
	if link.connID != "c1" {
		t.Fatalf("link must go to the creator's connection, got %q", link.connID)
	}

	body := link.data.(map[string]any)
	roomID := body["roomID"].(string)
	if !ValidRoomID(roomID) {
		t.Fatalf("allocated code %q failed validation", roomID)
	}
	session, err := store.Load(context.Background(), roomID)
	if err != nil {
		t.Fatalf("created room not persisted: %v", err)
	}
	if session.Lives != 3 || session.Time == nil || *session.Time != 30 {
		t.Fatalf("creation settings not applied: %+v", session)
	}
}

func TestCreateWithoutLimit(t *testing.T) {
	store := newFakeStore()
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]any{"username": "alice", "time": "inf"})
	p.Dispatch(Command{Name: "create", ConnID: "c1", Data: payload})

	waitFor(t, "link event", func() bool { _, ok := emitter.find("link"); return ok })
	link, _ := emitter.find("link")
	roomID := link.data.(map[string]any)["roomID"].(string)
	session, _ := store.Load(context.Background(), roomID)
	if session.Time != nil {
		t.Fatalf("inf must mean no guess limit, got %v", *session.Time)
	}
}

func TestJoinBroadcastsUpdate(t *testing.T) {
	store := newFakeStore()
	seedRoom(t, store, game.NewSession(game.Config{Username: "alice"}))
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]string{"user": "bob", "roomID": testRoomID})
	p.Dispatch(Command{Name: "join", ConnID: "c2", RoomID: testRoomID, Data: payload})

	waitFor(t, "update broadcast", func() bool {
		ev, ok := emitter.find("update")
		return ok && ev.roomID == testRoomID
	})
	session, _ := store.Load(context.Background(), testRoomID)
	if !session.HasPlayer("bob") {
		t.Fatalf("bob should be on the persisted roster: %v", session.Players)
	}
}

func TestDuplicateJoinIsDropped(t *testing.T) {
	store := newFakeStore()
	seedRoom(t, store, game.NewSession(game.Config{Username: "alice"}))
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]string{"user": "alice", "roomID": testRoomID})
	p.Dispatch(Command{Name: "join", ConnID: "c2", RoomID: testRoomID, Data: payload})

	// A rejected join produces no broadcast; give the worker a beat.
	time.Sleep(50 * time.Millisecond)
	if _, ok := emitter.find("update"); ok {
		t.Fatalf("duplicate join must not broadcast an update")
	}
	session, _ := store.Load(context.Background(), testRoomID)
	if session.NumPlayers() != 1 {
		t.Fatalf("roster must be unchanged: %v", session.Players)
	}
}

func TestGuessEmitsStatusUpdateAndScore(t *testing.T) {
	store := newFakeStore()
	seedRoom(t, store, startedSession("alice", "bob", "carol"))
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]string{"roomID": testRoomID, "token": "a"})
	p.Dispatch(Command{Name: "guess", ConnID: "c9", RoomID: testRoomID, Data: payload})

	waitFor(t, "status event", func() bool { _, ok := emitter.find("status"); return ok })
	status, _ := emitter.find("status")
	if status.connID != "c9" {
		t.Fatalf("guess status goes back to the guessing connection, got %q", status.connID)
	}
	if got := status.data.(map[string]any)["status"]; got != game.StatusCorrect {
		t.Fatalf("status expected correct, got %v", got)
	}

	waitFor(t, "scoreEffect event", func() bool { _, ok := emitter.find("scoreEffect"); return ok })
	score, _ := emitter.find("scoreEffect")
	body := score.data.(map[string]any)
	if body["username"] != "bob" || body["delta"] != 15 {
		t.Fatalf("correct guess awards the guesser +15, got %v", body)
	}

	session, _ := store.Load(context.Background(), testRoomID)
	if session.Guesser != "carol" {
		t.Fatalf("persisted turn must advance, got %q", session.Guesser)
	}
}

func TestRoundEndBroadcastsAndSchedulesNext(t *testing.T) {
	store := newFakeStore()
	session := startedSession("alice", "bob", "carol")
	session.Lives = 1
	seedRoom(t, store, session)
	p, emitter := newTestProcessor(t, store, 20*time.Millisecond)

	payload, _ := json.Marshal(map[string]string{"roomID": testRoomID, "token": "x"})
	p.Dispatch(Command{Name: "guess", ConnID: "c9", RoomID: testRoomID, Data: payload})

	waitFor(t, "round-ended event", func() bool { _, ok := emitter.find("round-ended"); return ok })
	ended, _ := emitter.find("round-ended")
	body := ended.data.(map[string]any)
	if body["winner"] != "alice" || body["word"] != "CAT" {
		t.Fatalf("attrition hands the round to the hanger, got %v", body)
	}

	score, _ := emitter.find("scoreEffect")
	if sb := score.data.(map[string]any); sb["username"] != "alice" || sb["delta"] != 30 {
		t.Fatalf("attrition awards the hanger +30, got %v", sb)
	}

	waitFor(t, "next round prompt", func() bool { _, ok := emitter.find("new"); return ok })

	stored, _ := store.Load(context.Background(), testRoomID)
	if stored.Word != "" {
		t.Fatalf("the word must be cleared once the round has ended, got %q", stored.Word)
	}
}

func TestNewRoundFromOutsiderIsDropped(t *testing.T) {
	store := newFakeStore()
	seedRoom(t, store, startedSession("alice", "bob"))
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]string{
		"roomID": testRoomID, "category": "Animals", "word": "DOG", "user": "mallory",
	})
	p.Dispatch(Command{Name: "newRound", RoomID: testRoomID, Data: payload})

	time.Sleep(50 * time.Millisecond)
	if _, ok := emitter.find("update"); ok {
		t.Fatalf("a newRound from outside the roster must not broadcast")
	}
	session, _ := store.Load(context.Background(), testRoomID)
	if session.Word != "CAT" {
		t.Fatalf("a newRound from outside the roster must not commit, word is %q", session.Word)
	}
}

func (p *Processor) workerCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func TestCommandsForMissingRoomReapTheWorker(t *testing.T) {
	store := newFakeStore()
	p, _ := newTestProcessor(t, store, time.Hour)

	for _, roomID := range []string{"AAAA000001", "AAAA000002", "AAAA000003"} {
		payload, _ := json.Marshal(map[string]string{"roomID": roomID, "token": "a"})
		p.Dispatch(Command{Name: "guess", RoomID: roomID, Data: payload})
	}

	waitFor(t, "workers reaped", func() bool { return p.workerCount() == 0 })
}

func TestLastPlayerLeaveDeletesRoom(t *testing.T) {
	store := newFakeStore()
	seedRoom(t, store, game.NewSession(game.Config{Username: "alice"}))
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]string{"user": "alice", "roomID": testRoomID})
	p.Dispatch(Command{Name: "leave", RoomID: testRoomID, Data: payload})

	waitFor(t, "leave event", func() bool { _, ok := emitter.find("leave"); return ok })
	leave, _ := emitter.find("leave")
	if leave.data != nil {
		t.Fatalf("the final leave carries no state, got %v", leave.data)
	}
	waitFor(t, "room deletion", func() bool {
		ok, _ := store.Exists(context.Background(), testRoomID)
		return !ok
	})
}

func TestLeaveMidGameBroadcastsSystemChat(t *testing.T) {
	store := newFakeStore()
	seedRoom(t, store, startedSession("alice", "bob", "carol"))
	p, emitter := newTestProcessor(t, store, time.Hour)

	payload, _ := json.Marshal(map[string]string{"user": "carol", "roomID": testRoomID})
	p.Dispatch(Command{Name: "leave", RoomID: testRoomID, Data: payload})

	waitFor(t, "system chat", func() bool { _, ok := emitter.find("chat"); return ok })
	chat, _ := emitter.find("chat")
	msg := chat.data.([]any)
	if msg[0] != "leave" || msg[1] != "carol has left" {
		t.Fatalf("unexpected system chat payload: %v", msg)
	}

	session, _ := store.Load(context.Background(), testRoomID)
	if session.HasPlayer("carol") {
		t.Fatalf("carol must be off the persisted roster")
	}
}
