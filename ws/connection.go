package ws

import (
	"encoding/json"
	"sync"
	"time"

	"hangman/common/log"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var (
	pongWait             = 10 * time.Second
	writeWait            = 10 * time.Second
	pingInterval         = (pongWait * 9) / 10
	maxMessageSize int64 = 4096
)

// Frame is the wire envelope: every message in either direction is one
// JSON object naming its event.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Connection wraps one websocket client. Writes go through a buffered
// channel so the write pump is the only goroutine touching the socket.
type Connection struct {
	ConnID    string
	conn      *websocket.Conn
	manager   *Manager
	writeChan chan []byte
	closeChan chan struct{}
	closeOnce sync.Once

	pingTicker *time.Ticker
}

func NewConnection(conn *websocket.Conn, manager *Manager) *Connection {
	return &Connection{
		ConnID:    uuid.New().String(),
		conn:      conn,
		manager:   manager,
		writeChan: make(chan []byte, 256),
		closeChan: make(chan struct{}),
	}
}

func (con *Connection) Run() {
	go con.readMessage()
	go con.writeMessage()
	con.conn.SetPongHandler(con.pongHandler)
}

func (con *Connection) writeMessage() {
	con.pingTicker = time.NewTicker(pingInterval)
	for {
		select {
		case message, ok := <-con.writeChan:
			if !ok {
				return
			}
			if err := con.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("client[%s] SetWriteDeadline err: %+v", con.ConnID, err)
			}
			if err := con.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error("client[%s] write stream err: %+v", con.ConnID, err)
				con.Close()
				return
			}
		case <-con.pingTicker.C:
			if err := con.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				log.Error("client[%s] ping SetWriteDeadline err: %+v", con.ConnID, err)
			}
			if err := con.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				con.Close()
				return
			}
		case <-con.closeChan:
			return
		}
	}
}

func (con *Connection) readMessage() {
	defer con.manager.removeClient(con)

	con.conn.SetReadLimit(maxMessageSize)
	if err := con.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Error("client[%s] SetReadDeadline err: %v", con.ConnID, err)
		return
	}
	for {
		select {
		case <-con.closeChan:
			return
		default:
			messageType, message, err := con.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Error("client[%s] unexpected close: %v", con.ConnID, err)
				}
				return
			}
			if messageType != websocket.TextMessage {
				log.Error("client[%s] unsupported message type: %d", con.ConnID, messageType)
				continue
			}
			con.manager.handleFrame(con, message)
		}
	}
}

func (con *Connection) pongHandler(string) error {
	return con.conn.SetReadDeadline(time.Now().Add(pongWait))
}

// Send queues buf for the write pump; full buffers drop the frame rather
// than block the caller.
func (con *Connection) Send(buf []byte) {
	select {
	case con.writeChan <- buf:
	case <-con.closeChan:
	default:
		log.Warn("client[%s] write buffer full, dropping frame", con.ConnID)
	}
}

func (con *Connection) Close() {
	con.closeOnce.Do(func() {
		close(con.closeChan)
		if con.pingTicker != nil {
			con.pingTicker.Stop()
		}
		if con.conn != nil {
			_ = con.conn.Close()
		}
		log.Info("client[%s] connection closed", con.ConnID)
	})
}
