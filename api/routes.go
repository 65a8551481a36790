package api

import (
	"encoding/json"
	"errors"

	"hangman/common/cache"
	"hangman/common/http"
	"hangman/mail"
	"hangman/room"
)

// Handlers holds everything the HTTP surface needs: the registry for
// snapshot reads, the cache in front of it, the feedback mailer and the
// load monitor.
type Handlers struct {
	Registry  *room.Registry
	Snapshots *cache.GeneralCache
	Mailer    *mail.Mailer
	Monitor   *room.Monitor
}

func RegisterRoutes(s *http.HttpServer, h *Handlers) {
	s.Use(http.CorsMiddleware(), http.LoggerMiddleware())
	s.GET("/ping", h.Ping)
	s.GET("/health", h.Health)
	s.GET("/game/:roomID", h.GameSnapshot)
	s.POST("/feedback", h.Feedback)
}

func (h *Handlers) Ping(ctx *http.Context) error {
	ctx.Success("pong")
	return nil
}

func (h *Handlers) Health(ctx *http.Context) error {
	ctx.Success(h.Monitor.Snapshot())
	return nil
}

type gameRecord struct {
	RoomID    string          `json:"roomID"`
	GameState json.RawMessage `json:"gameState"`
}

// GameSnapshot serves the persisted room record. Malformed codes never
// reach the store; the cache absorbs reconnect storms after restarts.
func (h *Handlers) GameSnapshot(ctx *http.Context) error {
	roomID := ctx.GetParam("roomID")
	if !room.ValidRoomID(roomID) {
		ctx.BadRequest("malformed room code")
		return nil
	}

	if raw, ok := h.Snapshots.GetBytes(roomID); ok {
		ctx.Success(gameRecord{RoomID: roomID, GameState: raw})
		return nil
	}

	session, err := h.Registry.Load(ctx.RequestContext(), roomID)
	if err != nil {
		if errors.Is(err, room.ErrNotFound) {
			ctx.NotFound("no such room")
			return nil
		}
		return err
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	h.Snapshots.Set(roomID, raw)
	ctx.Success(gameRecord{RoomID: roomID, GameState: raw})
	return nil
}

type feedbackRequest struct {
	Data struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Feedback string `json:"feedback"`
	} `json:"data"`
}

func (h *Handlers) Feedback(ctx *http.Context) error {
	var req feedbackRequest
	if err := ctx.BindJSON(&req); err != nil {
		ctx.BadRequest("")
		return nil
	}
	if req.Data.Name == "" || req.Data.Email == "" || req.Data.Feedback == "" {
		ctx.BadRequest("name, email and feedback are all required")
		return nil
	}

	if err := h.Mailer.SendFeedback(req.Data.Name, req.Data.Email, req.Data.Feedback); err != nil {
		ctx.InternalServerError("could not deliver feedback")
		return nil
	}
	ctx.Success(nil)
	return nil
}
