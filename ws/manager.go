package ws

import (
	"encoding/json"
	"sync"

	"hangman/common/log"
	"hangman/room"
)

// Dispatcher accepts room-addressed commands for serialized processing.
type Dispatcher interface {
	Dispatch(cmd room.Command)
}

// identity is what the manager remembers about a connection so it can
// synthesize a leave when the socket drops without one.
type identity struct {
	roomID string
	user   string
}

// Manager owns every live connection and the room subscription sets it
// fans events out over. It is also the processor's Emitter.
type Manager struct {
	dispatcher Dispatcher

	mu         sync.RWMutex
	conns      map[string]*Connection
	rooms      map[string]map[string]struct{}
	identities map[string]identity
}

func NewManager() *Manager {
	return &Manager{
		conns:      make(map[string]*Connection),
		rooms:      make(map[string]map[string]struct{}),
		identities: make(map[string]identity),
	}
}

// SetDispatcher breaks the construction cycle: the processor needs the
// manager as its emitter before the manager can route to the processor.
func (m *Manager) SetDispatcher(d Dispatcher) {
	m.dispatcher = d
}

func (m *Manager) addClient(con *Connection) {
	m.mu.Lock()
	m.conns[con.ConnID] = con
	m.mu.Unlock()
	log.Info("client[%s] connected", con.ConnID)
}

func (m *Manager) removeClient(con *Connection) {
	m.mu.Lock()
	delete(m.conns, con.ConnID)
	id, known := m.identities[con.ConnID]
	delete(m.identities, con.ConnID)
	for roomID, members := range m.rooms {
		delete(members, con.ConnID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	m.mu.Unlock()
	con.Close()

	// A dropped socket leaves its game like an explicit leave would.
	if known && id.roomID != "" && id.user != "" {
		payload, _ := json.Marshal(map[string]string{"user": id.user, "roomID": id.roomID})
		m.dispatcher.Dispatch(room.Command{Name: "leave", RoomID: id.roomID, Data: payload})
	}
}

// subscribe adds the connection to a room's fan-out set.
func (m *Manager) subscribe(connID, roomID string) {
	m.mu.Lock()
	members, ok := m.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		m.rooms[roomID] = members
	}
	members[connID] = struct{}{}
	m.mu.Unlock()
}

func (m *Manager) unsubscribe(connID, roomID string) {
	m.mu.Lock()
	if members, ok := m.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(m.rooms, roomID)
		}
	}
	delete(m.identities, connID)
	m.mu.Unlock()
}

func (m *Manager) rememberIdentity(connID, roomID, user string) {
	if roomID == "" || user == "" {
		return
	}
	m.mu.Lock()
	m.identities[connID] = identity{roomID: roomID, user: user}
	m.mu.Unlock()
}

// handleFrame routes one inbound frame. Subscription management and chat
// relays resolve here; everything that mutates game state goes through the
// dispatcher so the room worker serializes it.
func (m *Manager) handleFrame(con *Connection, raw []byte) {
	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil || frame.Event == "" {
		log.Debug("client[%s] malformed frame: %v", con.ConnID, err)
		return
	}

	var addr struct {
		RoomID   string `json:"roomID"`
		User     string `json:"user"`
		Username string `json:"username"`
	}
	if len(frame.Data) > 0 {
		_ = json.Unmarshal(frame.Data, &addr)
	}

	switch frame.Event {
	case "joinRoom":
		m.subscribe(con.ConnID, addr.RoomID)
		m.rememberIdentity(con.ConnID, addr.RoomID, addr.User)
	case "chat":
		var payload struct {
			RoomID string `json:"roomID"`
			Msg    []any  `json:"msg"`
		}
		if err := json.Unmarshal(frame.Data, &payload); err != nil || payload.RoomID == "" {
			return
		}
		// System notices already render locally on the sender's side;
		// echoing them back would show the notice twice.
		if author, ok := chatAuthor(payload.Msg); ok && (author == "join" || author == "leave") {
			m.ToRoomExcept(payload.RoomID, con.ConnID, "chat", payload.Msg)
		} else {
			m.ToRoom(payload.RoomID, "chat", payload.Msg)
		}
	case "new":
		// Next-round prompt: stateless relay, nothing to serialize.
		m.ToRoom(addr.RoomID, "new", nil)
	case "create":
		// The creator subscribes via joinRoom once the link event names
		// the allocated room code.
		m.dispatcher.Dispatch(room.Command{Name: frame.Event, ConnID: con.ConnID, Data: frame.Data})
	case "join", "join_new":
		user := addr.User
		if user == "" {
			user = addr.Username
		}
		m.subscribe(con.ConnID, addr.RoomID)
		m.rememberIdentity(con.ConnID, addr.RoomID, user)
		m.dispatcher.Dispatch(room.Command{Name: frame.Event, ConnID: con.ConnID, RoomID: addr.RoomID, Data: frame.Data})
	case "leave":
		m.dispatcher.Dispatch(room.Command{Name: frame.Event, ConnID: con.ConnID, RoomID: addr.RoomID, Data: frame.Data})
		m.unsubscribe(con.ConnID, addr.RoomID)
	default:
		m.dispatcher.Dispatch(room.Command{Name: frame.Event, ConnID: con.ConnID, RoomID: addr.RoomID, Data: frame.Data})
	}
}

func chatAuthor(msg []any) (string, bool) {
	if len(msg) == 0 {
		return "", false
	}
	author, ok := msg[0].(string)
	return author, ok
}

func encodeFrame(event string, data any) ([]byte, bool) {
	body, err := json.Marshal(data)
	if err != nil {
		log.Error("event %s payload marshal failed: %v", event, err)
		return nil, false
	}
	raw, err := json.Marshal(Frame{Event: event, Data: body})
	if err != nil {
		log.Error("event %s frame marshal failed: %v", event, err)
		return nil, false
	}
	return raw, true
}

// ToRoom fans an event out to every connection subscribed to the room.
func (m *Manager) ToRoom(roomID, event string, data any) {
	raw, ok := encodeFrame(event, data)
	if !ok {
		return
	}
	m.mu.RLock()
	for connID := range m.rooms[roomID] {
		if con, live := m.conns[connID]; live {
			con.Send(raw)
		}
	}
	m.mu.RUnlock()
}

// ToConn delivers an event to a single connection.
func (m *Manager) ToConn(connID, event string, data any) {
	raw, ok := encodeFrame(event, data)
	if !ok {
		return
	}
	m.mu.RLock()
	con, live := m.conns[connID]
	m.mu.RUnlock()
	if live {
		con.Send(raw)
	}
}

// ToRoomExcept fans out to the room, skipping one connection.
func (m *Manager) ToRoomExcept(roomID, exceptConnID, event string, data any) {
	raw, ok := encodeFrame(event, data)
	if !ok {
		return
	}
	m.mu.RLock()
	for connID := range m.rooms[roomID] {
		if connID == exceptConnID {
			continue
		}
		if con, live := m.conns[connID]; live {
			con.Send(raw)
		}
	}
	m.mu.RUnlock()
}

// Close drops every live connection.
func (m *Manager) Close() {
	m.mu.Lock()
	conns := make([]*Connection, 0, len(m.conns))
	for _, con := range m.conns {
		conns = append(conns, con)
	}
	m.conns = make(map[string]*Connection)
	m.rooms = make(map[string]map[string]struct{})
	m.identities = make(map[string]identity)
	m.mu.Unlock()

	for _, con := range conns {
		con.Close()
	}
}
