package room

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"hangman/common/cache"
	"hangman/common/log"
	"hangman/game"
)

// Emitter delivers named events to everyone subscribed to a room, or to a
// single connection. The processor never touches the transport directly.
type Emitter interface {
	ToRoom(roomID, event string, data any)
	ToConn(connID, event string, data any)
	ToRoomExcept(roomID, exceptConnID, event string, data any)
}

// Command is one inbound room-addressed request.
type Command struct {
	Name   string
	ConnID string
	RoomID string
	Data   json.RawMessage

	// set only on synthesized timeout guesses
	timerSeq uint64
}

const commandBuffer = 64

const applyTimeout = 5 * time.Second

// Processor applies commands to room sessions. Each room gets a dedicated
// worker goroutine owning an inbound channel, so commands for one room are
// strictly serialized while rooms run fully in parallel. Loading and
// persisting the snapshot happen inside the worker, which makes every
// read-mutate-write cycle atomic with respect to the room.
type Processor struct {
	registry  *Registry
	emitter   Emitter
	snapshots *cache.GeneralCache
	sched     *Scheduler
	grace     time.Duration

	mu      sync.Mutex
	workers map[string]*roomWorker

	statsMu sync.Mutex
	players map[string]int
}

type roomWorker struct {
	roomID   string
	commands chan Command
	timer    *GuessTimer
	closed   bool
}

func NewProcessor(registry *Registry, emitter Emitter, snapshots *cache.GeneralCache, grace time.Duration) *Processor {
	return &Processor{
		registry:  registry,
		emitter:   emitter,
		snapshots: snapshots,
		sched:     NewScheduler(),
		grace:     grace,
		workers:   make(map[string]*roomWorker),
		players:   make(map[string]int),
	}
}

// Dispatch routes a command to its room worker. create is handled inline:
// there is no room to serialize against until the registry allocates one.
func (p *Processor) Dispatch(cmd Command) {
	if cmd.Name == "create" {
		p.handleCreate(cmd)
		return
	}
	if !ValidRoomID(cmd.RoomID) {
		log.Debug("dropping %s command with malformed room id %q", cmd.Name, cmd.RoomID)
		return
	}

	p.mu.Lock()
	w, ok := p.workers[cmd.RoomID]
	if !ok {
		w = p.startWorker(cmd.RoomID)
	}
	if w.closed {
		p.mu.Unlock()
		return
	}
	select {
	case w.commands <- cmd:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		log.Warn("room %s command queue full, dropping %s", cmd.RoomID, cmd.Name)
	}
}

// startWorker must be called with p.mu held.
func (p *Processor) startWorker(roomID string) *roomWorker {
	w := &roomWorker{
		roomID:   roomID,
		commands: make(chan Command, commandBuffer),
		timer:    NewGuessTimer(),
	}
	p.workers[roomID] = w
	go func() {
		for cmd := range w.commands {
			p.apply(w, cmd)
		}
	}()
	return w
}

// removeWorker tears the room's worker down. Terminal for the room.
func (p *Processor) removeWorker(roomID string) {
	p.mu.Lock()
	w, ok := p.workers[roomID]
	if ok {
		w.closed = true
		delete(p.workers, roomID)
		close(w.commands)
	}
	p.mu.Unlock()

	p.statsMu.Lock()
	delete(p.players, roomID)
	p.statsMu.Unlock()
}

// Stats reports active room and player counts for the monitor.
func (p *Processor) Stats() (rooms, players int) {
	p.statsMu.Lock()
	defer p.statsMu.Unlock()
	for _, n := range p.players {
		players += n
	}
	return len(p.players), players
}

// Close stops all workers and pending round schedules.
func (p *Processor) Close() {
	p.mu.Lock()
	for id, w := range p.workers {
		w.closed = true
		w.timer.Stop()
		close(w.commands)
		delete(p.workers, id)
	}
	p.mu.Unlock()
	p.sched.Close()
}

func (p *Processor) apply(w *roomWorker, cmd Command) {
	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	switch cmd.Name {
	case "join":
		p.handleJoin(ctx, w, cmd)
	case "join_new":
		p.handleJoinNew(ctx, w, cmd)
	case "start":
		p.handleStart(ctx, w, cmd)
	case "newRound":
		p.handleNewRound(ctx, w, cmd)
	case "guess":
		p.handleGuess(ctx, w, cmd, false)
	case "timeout":
		p.handleGuess(ctx, w, cmd, true)
	case "leave":
		p.handleLeave(ctx, w, cmd)
	default:
		log.Debug("room %s: unknown command %q", w.roomID, cmd.Name)
	}
}

// loadRoom fetches the worker's session. A room with no snapshot has
// nothing for this worker to do, now or later, so the worker is torn down
// instead of idling forever on garbage or replayed room codes.
func (p *Processor) loadRoom(ctx context.Context, w *roomWorker) (*game.Session, bool) {
	session, err := p.registry.Load(ctx, w.roomID)
	if err != nil {
		w.timer.Stop()
		p.sched.Cancel(w.roomID)
		p.removeWorker(w.roomID)
		return nil, false
	}
	return session, true
}

// createParams mirrors the creation form: lives and numRounds are numbers,
// time is either a number of seconds as a string or the "inf" sentinel.
type createParams struct {
	Username  string `json:"username"`
	Lives     int    `json:"lives"`
	NumRounds int    `json:"numRounds"`
	Rotation  string `json:"rotation"`
	Time      string `json:"time"`
}

func (cp createParams) gameConfig() game.Config {
	cfg := game.Config{
		Username:  cp.Username,
		Lives:     cp.Lives,
		NumRounds: cp.NumRounds,
		Rotation:  cp.Rotation,
	}
	if cp.Time != "" && cp.Time != "inf" {
		if secs, err := strconv.Atoi(cp.Time); err == nil && secs > 0 {
			cfg.Time = &secs
		}
	}
	return cfg
}

func (p *Processor) handleCreate(cmd Command) {
	var params createParams
	if err := json.Unmarshal(cmd.Data, &params); err != nil || params.Username == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), applyTimeout)
	defer cancel()

	roomID, session, err := p.registry.Create(ctx, params.gameConfig())
	if err != nil {
		log.Error("room creation failed: %v", err)
		return
	}

	p.mu.Lock()
	if _, ok := p.workers[roomID]; !ok {
		p.startWorker(roomID)
	}
	p.mu.Unlock()

	p.commit(roomID, session)
	log.Info("%s created room %s", params.Username, roomID)
	p.emitter.ToConn(cmd.ConnID, "link", map[string]any{
		"gameState": session,
		"roomID":    roomID,
	})
}

func (p *Processor) handleJoin(ctx context.Context, w *roomWorker, cmd Command) {
	var payload struct {
		User   string `json:"user"`
		RoomID string `json:"roomID"`
	}
	if err := json.Unmarshal(cmd.Data, &payload); err != nil || payload.User == "" {
		return
	}

	session, ok := p.loadRoom(ctx, w)
	if !ok {
		return
	}
	if err := session.AddPlayer(payload.User); err != nil {
		log.Debug("room %s: join by %s rejected: %v", w.roomID, payload.User, err)
		return
	}
	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	p.commit(w.roomID, session)
	log.Info("%s joined room %s", payload.User, w.roomID)
	p.emitter.ToRoom(w.roomID, "update", session)
}

func (p *Processor) handleJoinNew(ctx context.Context, w *roomWorker, cmd Command) {
	var payload struct {
		RoomID string       `json:"roomID"`
		Params createParams `json:"params"`
	}
	if err := json.Unmarshal(cmd.Data, &payload); err != nil || payload.Params.Username == "" {
		return
	}

	prior, ok := p.loadRoom(ctx, w)
	if !ok {
		return
	}

	// Re-key the existing roster into a fresh game for the new owner; the
	// new hanger is already on the fresh roster.
	session := game.NewSession(payload.Params.gameConfig())
	for _, player := range prior.Players {
		if player != session.Hanger {
			if err := session.AddPlayer(player); err != nil {
				log.Warn("room %s: could not carry %s into new game: %v", w.roomID, player, err)
			}
		}
	}

	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	w.timer.Stop()
	p.sched.Cancel(w.roomID)
	p.commit(w.roomID, session)
	p.emitter.ToRoom(w.roomID, "join_new", session)
}

func (p *Processor) handleStart(ctx context.Context, w *roomWorker, cmd Command) {
	session, ok := p.loadRoom(ctx, w)
	if !ok {
		return
	}
	session.Start()
	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	p.commit(w.roomID, session)
	p.emitter.ToRoom(w.roomID, "update", session)
}

func (p *Processor) handleNewRound(ctx context.Context, w *roomWorker, cmd Command) {
	var payload struct {
		RoomID   string `json:"roomID"`
		Category string `json:"category"`
		Word     string `json:"word"`
		User     string `json:"user"`
	}
	if err := json.Unmarshal(cmd.Data, &payload); err != nil || payload.Word == "" {
		return
	}

	session, ok := p.loadRoom(ctx, w)
	if !ok {
		return
	}
	if payload.User != "" && !session.HasPlayer(payload.User) {
		log.Debug("room %s: newRound from %q dropped, not on roster", w.roomID, payload.User)
		return
	}
	session.NewRound(payload.Category, payload.Word, payload.User)
	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	p.commit(w.roomID, session)
	p.emitter.ToRoom(w.roomID, "update", session)
	p.armTimer(w, session)
}

func (p *Processor) handleGuess(ctx context.Context, w *roomWorker, cmd Command, synthesized bool) {
	token := ""
	if !synthesized {
		var payload struct {
			RoomID string `json:"roomID"`
			Token  string `json:"token"`
		}
		if err := json.Unmarshal(cmd.Data, &payload); err != nil {
			return
		}
		token = payload.Token
		if token == "" {
			// Empty tokens are only synthesized server-side.
			return
		}
	} else if cmd.timerSeq != w.timer.Seq() {
		// A real guess landed after this countdown fired.
		return
	}

	session, ok := p.loadRoom(ctx, w)
	if !ok {
		return
	}
	if !session.GameStart || session.Word == "" || session.Guesser == "" {
		return
	}

	out := session.ResolveGuess(token)
	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	p.commit(w.roomID, session)

	status := map[string]any{
		"status": out.Status,
		"guess":  token,
	}
	if out.RoundEnded {
		status["winner"] = out.Winner
	}
	if cmd.ConnID != "" {
		p.emitter.ToConn(cmd.ConnID, "status", status)
	} else {
		p.emitter.ToRoom(w.roomID, "status", status)
	}

	p.emitter.ToRoom(w.roomID, "update", session)
	p.emitScoreEffect(w.roomID, out.Status, session)

	if !out.RoundEnded {
		p.armTimer(w, session)
		return
	}

	w.timer.Stop()
	p.emitter.ToRoom(w.roomID, "round-ended", map[string]any{
		"winner": out.Winner,
		"word":   out.Word,
		"round":  session.Round,
	})

	// The word is cleared only after the round-ended notice is out; the
	// next prompt opens once the popup grace has passed.
	session.Word = ""
	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	p.commit(w.roomID, session)

	roomID := w.roomID
	p.sched.Schedule(roomID, p.grace, func() {
		p.emitter.ToRoom(roomID, "new", nil)
	})
}

func (p *Processor) emitScoreEffect(roomID string, status game.Status, session *game.Session) {
	switch status {
	case game.StatusCorrect:
		p.emitter.ToRoom(roomID, "scoreEffect", map[string]any{"username": session.Guesser, "delta": 15})
	case game.StatusIncorrect:
		p.emitter.ToRoom(roomID, "scoreEffect", map[string]any{"username": session.Guesser, "delta": -5})
	case game.StatusWin:
		p.emitter.ToRoom(roomID, "scoreEffect", map[string]any{"username": session.Guesser, "delta": 30})
	case game.StatusTimeout, game.StatusFailed:
		p.emitter.ToRoom(roomID, "scoreEffect", map[string]any{"username": session.Hanger, "delta": 30})
	}
}

func (p *Processor) handleLeave(ctx context.Context, w *roomWorker, cmd Command) {
	var payload struct {
		User   string `json:"user"`
		RoomID string `json:"roomID"`
	}
	if err := json.Unmarshal(cmd.Data, &payload); err != nil || payload.User == "" {
		return
	}

	session, ok := p.loadRoom(ctx, w)
	if !ok {
		return
	}
	if !session.HasPlayer(payload.User) {
		return
	}
	log.Info("%s left room %s", payload.User, w.roomID)

	if session.NumPlayers() == 1 {
		if err := p.registry.Delete(ctx, w.roomID); err != nil {
			return
		}
		w.timer.Stop()
		p.sched.Cancel(w.roomID)
		p.snapshots.Delete(w.roomID)
		p.emitter.ToRoom(w.roomID, "leave", nil)
		p.removeWorker(w.roomID)
		return
	}

	wasGuesser := payload.User == session.Guesser
	session.HandleLeave(payload.User)
	if err := p.registry.Save(ctx, w.roomID, session); err != nil {
		return
	}
	p.commit(w.roomID, session)
	p.emitter.ToRoom(w.roomID, "leave", session)
	p.emitter.ToRoom(w.roomID, "chat", []any{"leave", payload.User + " has left", true})

	if session.Word == "" {
		// Round abandoned (hanger left) or session collapsed to one player.
		w.timer.Stop()
	} else if wasGuesser {
		p.armTimer(w, session)
	}
}

// commit refreshes the read-only snapshot cache after a persisted mutation
// and keeps the player count current for the monitor.
func (p *Processor) commit(roomID string, session *game.Session) {
	if raw, err := json.Marshal(session); err == nil {
		p.snapshots.Set(roomID, raw)
	}

	p.statsMu.Lock()
	p.players[roomID] = session.NumPlayers()
	p.statsMu.Unlock()
}

// armTimer starts the authoritative countdown for the current guesser.
// Expiry synthesizes an empty-token guess processed like any other command.
func (p *Processor) armTimer(w *roomWorker, session *game.Session) {
	if !session.GameStart || session.Word == "" || session.Guesser == "" ||
		session.Time == nil || *session.Time <= 0 {
		w.timer.Stop()
		return
	}
	roomID := w.roomID
	w.timer.Arm(time.Duration(*session.Time)*time.Second, func(seq uint64) {
		p.Dispatch(Command{Name: "timeout", RoomID: roomID, timerSeq: seq})
	})
}
