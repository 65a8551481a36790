package ws

import (
	"context"
	"net/http"

	"hangman/common/log"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:    4096,
	WriteBufferSize:   4096,
	EnableCompression: true,
}

// Server accepts websocket clients on /ws and hands them to the manager.
type Server struct {
	manager *Manager
	httpSrv *http.Server
}

func NewServer(manager *Manager) *Server {
	return &Server{manager: manager}
}

// Start listens on addr until Shutdown. Blocking.
func (s *Server) Start(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.upgradeFunc)
	s.httpSrv = &http.Server{Addr: addr, Handler: mux}

	log.Info("websocket gateway listening on %s", addr)
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) upgradeFunc(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("websocket upgrade failed: %v", err)
		return
	}
	con := NewConnection(conn, s.manager)
	s.manager.addClient(con)
	con.Run()
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.manager.Close()
	if s.httpSrv == nil {
		return nil
	}
	return s.httpSrv.Shutdown(ctx)
}
