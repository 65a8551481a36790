package game

import "errors"

// Cap is the maximum room size.
const Cap = 8

// DefaultLives is used when a room is created without a lives setting.
const DefaultLives = 6

// Rotation modes for the hanger role.
const (
	RotationKing  = "king"  // hanger keeps the role unless they lose by attrition
	RotationRobin = "robin" // hanger advances every round
)

var (
	ErrRoomFull  = errors.New("room is full")
	ErrNameTaken = errors.New("username already taken in this room")
)

// Session is the full state of one room. Field names on the wire match the
// persisted record format, so a snapshot marshals straight into the shape
// clients already consume.
type Session struct {
	Players        []string       `json:"players" bson:"players"`
	Wins           map[string]int `json:"wins" bson:"wins"`
	Right          map[string]int `json:"right" bson:"right"`
	Wrong          map[string]int `json:"wrong" bson:"wrong"`
	Misses         map[string]int `json:"misses" bson:"misses"`
	Hanger         string         `json:"hanger" bson:"hanger"`
	Category       string         `json:"category" bson:"category"`
	Word           string         `json:"word" bson:"word"`
	GuessedLetters []string       `json:"guessedLetters" bson:"guessedLetters"`
	NumIncorrect   int            `json:"numIncorrect" bson:"numIncorrect"`
	Lives          int            `json:"lives" bson:"lives"`
	GuessedWords   []string       `json:"guessedWords" bson:"guessedWords"`
	Guesser        string         `json:"guesser" bson:"guesser"`
	CurGuess       string         `json:"curGuess" bson:"curGuess"`
	GuessedWord    string         `json:"guessedWord" bson:"guessedWord"`
	GameStart      bool           `json:"gameStart" bson:"gameStart"`
	Cap            int            `json:"cap" bson:"cap"`
	Rotation       string         `json:"rotation" bson:"rotation"`
	Round          int            `json:"round" bson:"round"`
	NumRounds      int            `json:"numRounds" bson:"numRounds"`
	Time           *int           `json:"time" bson:"time"`
}

// Config carries the room settings chosen by the owner.
type Config struct {
	Username  string
	Lives     int
	NumRounds int
	Rotation  string
	Time      *int // nil means no per-guess limit
}

// NewSession creates a fresh single-player session: the creator is the
// owner and the first hanger, waiting in the lobby.
func NewSession(cfg Config) *Session {
	lives := cfg.Lives
	if lives <= 0 {
		lives = DefaultLives
	}
	return &Session{
		Players:        []string{cfg.Username},
		Wins:           map[string]int{cfg.Username: 0},
		Right:          map[string]int{cfg.Username: 0},
		Wrong:          map[string]int{cfg.Username: 0},
		Misses:         map[string]int{cfg.Username: 0},
		Hanger:         cfg.Username,
		GuessedLetters: []string{},
		GuessedWords:   []string{},
		Lives:          lives,
		GameStart:      false,
		Cap:            Cap,
		Rotation:       cfg.Rotation,
		Round:          0,
		NumRounds:      cfg.NumRounds,
		Time:           cfg.Time,
	}
}

// NumPlayers returns the roster size.
func (s *Session) NumPlayers() int {
	return len(s.Players)
}

// HasPlayer reports whether user is on the roster.
func (s *Session) HasPlayer(user string) bool {
	return s.indexOf(user) >= 0
}

// Owner is the first roster entry; it configures follow-up games.
func (s *Session) Owner() string {
	if len(s.Players) == 0 {
		return ""
	}
	return s.Players[0]
}

func (s *Session) indexOf(user string) int {
	for i, p := range s.Players {
		if p == user {
			return i
		}
	}
	return -1
}

// AddPlayer appends user to the roster and opens their scoreboard entries.
func (s *Session) AddPlayer(user string) error {
	if len(s.Players) >= s.Cap {
		return ErrRoomFull
	}
	if s.HasPlayer(user) {
		return ErrNameTaken
	}
	s.Players = append(s.Players, user)
	s.Wins[user] = 0
	s.Right[user] = 0
	s.Wrong[user] = 0
	s.Misses[user] = 0
	return nil
}

// RemovePlayer drops user from the roster and all scoreboards.
func (s *Session) RemovePlayer(user string) {
	idx := s.indexOf(user)
	if idx < 0 {
		return
	}
	s.Players = append(s.Players[:idx], s.Players[idx+1:]...)
	delete(s.Wins, user)
	delete(s.Right, user)
	delete(s.Wrong, user)
	delete(s.Misses, user)
}

// Start leaves the lobby. The second roster entry becomes the first
// guesser when present.
func (s *Session) Start() {
	s.GameStart = true
	if len(s.Players) > 1 {
		s.Guesser = s.Players[1]
	} else {
		s.Guesser = ""
	}
}
