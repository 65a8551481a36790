package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"hangman/room"
)

type fakeDispatcher struct {
	mu   sync.Mutex
	cmds []room.Command
}

func (f *fakeDispatcher) Dispatch(cmd room.Command) {
	f.mu.Lock()
	f.cmds = append(f.cmds, cmd)
	f.mu.Unlock()
}

func (f *fakeDispatcher) last() (room.Command, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.cmds) == 0 {
		return room.Command{}, false
	}
	return f.cmds[len(f.cmds)-1], true
}

func testConn(id string) *Connection {
	return &Connection{
		ConnID:    id,
		writeChan: make(chan []byte, 16),
		closeChan: make(chan struct{}),
	}
}

func frame(t *testing.T, event string, data any) []byte {
	t.Helper()
	body, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	raw, err := json.Marshal(Frame{Event: event, Data: body})
	if err != nil {
		t.Fatalf("marshal frame: %v", err)
	}
	return raw
}

func decodeFrame(t *testing.T, raw []byte) Frame {
	t.Helper()
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return f
}

func TestJoinRoomSubscribesForBroadcasts(t *testing.T) {
	m := NewManager()
	m.SetDispatcher(&fakeDispatcher{})
	con := testConn("c1")
	m.conns[con.ConnID] = con

	m.handleFrame(con, frame(t, "joinRoom", map[string]string{"roomID": "AB12CD34EF", "user": "alice"}))
	m.ToRoom("AB12CD34EF", "update", map[string]string{"word": "___"})

	select {
	case raw := <-con.writeChan:
		f := decodeFrame(t, raw)
		if f.Event != "update" {
			t.Fatalf("expected update frame, got %q", f.Event)
		}
	default:
		t.Fatalf("subscribed connection received nothing")
	}
}

func TestChatRelaysToRoom(t *testing.T) {
	m := NewManager()
	m.SetDispatcher(&fakeDispatcher{})
	a, b := testConn("c1"), testConn("c2")
	m.conns[a.ConnID] = a
	m.conns[b.ConnID] = b
	m.subscribe(a.ConnID, "AB12CD34EF")
	m.subscribe(b.ConnID, "AB12CD34EF")

	m.handleFrame(a, frame(t, "chat", map[string]any{
		"roomID": "AB12CD34EF",
		"msg":    []any{"alice", "hello", false},
	}))

	for _, con := range []*Connection{a, b} {
		select {
		case raw := <-con.writeChan:
			f := decodeFrame(t, raw)
			if f.Event != "chat" {
				t.Fatalf("expected chat frame, got %q", f.Event)
			}
		default:
			t.Fatalf("chat must reach every subscriber, %s got nothing", con.ConnID)
		}
	}
}

func TestSystemChatSkipsTheSender(t *testing.T) {
	m := NewManager()
	m.SetDispatcher(&fakeDispatcher{})
	a, b := testConn("c1"), testConn("c2")
	m.conns[a.ConnID] = a
	m.conns[b.ConnID] = b
	m.subscribe(a.ConnID, "AB12CD34EF")
	m.subscribe(b.ConnID, "AB12CD34EF")

	m.handleFrame(a, frame(t, "chat", map[string]any{
		"roomID": "AB12CD34EF",
		"msg":    []any{"leave", "alice has left", true},
	}))

	select {
	case <-a.writeChan:
		t.Fatalf("system notice must not echo back to its sender")
	default:
	}
	select {
	case raw := <-b.writeChan:
		if f := decodeFrame(t, raw); f.Event != "chat" {
			t.Fatalf("expected chat frame, got %q", f.Event)
		}
	default:
		t.Fatalf("system notice must still reach the rest of the room")
	}
}

func TestGameFramesReachDispatcher(t *testing.T) {
	d := &fakeDispatcher{}
	m := NewManager()
	m.SetDispatcher(d)
	con := testConn("c1")
	m.conns[con.ConnID] = con

	m.handleFrame(con, frame(t, "guess", map[string]string{"roomID": "AB12CD34EF", "token": "a"}))

	cmd, ok := d.last()
	if !ok {
		t.Fatalf("guess frame never reached the dispatcher")
	}
	if cmd.Name != "guess" || cmd.RoomID != "AB12CD34EF" || cmd.ConnID != "c1" {
		t.Fatalf("unexpected command routing: %+v", cmd)
	}
}

func TestDroppedSocketSynthesizesLeave(t *testing.T) {
	d := &fakeDispatcher{}
	m := NewManager()
	m.SetDispatcher(d)
	con := testConn("c1")
	m.conns[con.ConnID] = con

	m.handleFrame(con, frame(t, "join", map[string]string{"user": "bob", "roomID": "AB12CD34EF"}))
	m.removeClient(con)

	cmd, ok := d.last()
	if !ok || cmd.Name != "leave" {
		t.Fatalf("disconnect must synthesize a leave, got %+v", cmd)
	}
	var payload struct {
		User   string `json:"user"`
		RoomID string `json:"roomID"`
	}
	if err := json.Unmarshal(cmd.Data, &payload); err != nil {
		t.Fatalf("leave payload: %v", err)
	}
	if payload.User != "bob" || payload.RoomID != "AB12CD34EF" {
		t.Fatalf("unexpected leave payload: %+v", payload)
	}
}

func TestExplicitLeaveUnsubscribes(t *testing.T) {
	d := &fakeDispatcher{}
	m := NewManager()
	m.SetDispatcher(d)
	con := testConn("c1")
	m.conns[con.ConnID] = con

	m.handleFrame(con, frame(t, "joinRoom", map[string]string{"roomID": "AB12CD34EF", "user": "bob"}))
	m.handleFrame(con, frame(t, "leave", map[string]string{"user": "bob", "roomID": "AB12CD34EF"}))

	m.ToRoom("AB12CD34EF", "update", nil)
	select {
	case <-con.writeChan:
		t.Fatalf("a connection that left must not receive room broadcasts")
	default:
	}
}
