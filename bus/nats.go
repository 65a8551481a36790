package bus

import (
	"encoding/json"

	"hangman/common/log"
	"hangman/room"

	"github.com/nats-io/nats.go"
)

const subjectPrefix = "hangman.room."

// Relay mirrors every room event onto the message bus so external
// consumers (bots, analytics, future nodes) can observe games without a
// websocket seat.
type Relay struct {
	conn *nats.Conn
}

func NewRelay(url string) (*Relay, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, err
	}
	log.Info("connected to nats at %s", url)
	return &Relay{conn: conn}, nil
}

type busEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

func (r *Relay) publish(roomID, event string, data any) {
	raw, err := json.Marshal(busEvent{Event: event, Data: data})
	if err != nil {
		log.Error("bus event %s marshal failed: %v", event, err)
		return
	}
	if err := r.conn.Publish(subjectPrefix+roomID, raw); err != nil {
		log.Error("bus publish %s failed: %v", event, err)
	}
}

func (r *Relay) ToRoom(roomID, event string, data any) {
	r.publish(roomID, event, data)
}

// ToConn events are connection-private and stay off the bus.
func (r *Relay) ToConn(connID, event string, data any) {}

func (r *Relay) ToRoomExcept(roomID, exceptConnID, event string, data any) {
	r.publish(roomID, event, data)
}

func (r *Relay) Close() {
	r.conn.Close()
}

// Tee fans emitter calls out to several sinks, first one authoritative.
type Tee struct {
	sinks []room.Emitter
}

func NewTee(sinks ...room.Emitter) *Tee {
	return &Tee{sinks: sinks}
}

func (t *Tee) ToRoom(roomID, event string, data any) {
	for _, s := range t.sinks {
		s.ToRoom(roomID, event, data)
	}
}

func (t *Tee) ToConn(connID, event string, data any) {
	for _, s := range t.sinks {
		s.ToConn(connID, event, data)
	}
}

func (t *Tee) ToRoomExcept(roomID, exceptConnID, event string, data any) {
	for _, s := range t.sinks {
		s.ToRoomExcept(roomID, exceptConnID, event, data)
	}
}
