package game

import "strings"

// Status classifies the result of one guess.
type Status string

const (
	StatusTimeout   Status = "timeout"
	StatusCorrect   Status = "correct"
	StatusIncorrect Status = "incorrect"
	StatusWin       Status = "win"
	StatusFailed    Status = "failed"
)

// Outcome is the pure result of ResolveGuess. The caller owns all side
// effects: broadcasting, persisting, scheduling the next round.
type Outcome struct {
	Status     Status
	RoundEnded bool
	Winner     string
	Word       string // the secret word, for the round-ended notice
}

// ResolveGuess applies one guess token to the session. An empty token is an
// authoritative timeout, a single character is a letter guess, anything
// longer is a full-phrase guess.
//
// Ties are resolved in favor of the hanger: numIncorrect is incremented
// before the round-end conditions are evaluated, and exhausted lives beat a
// solved word produced by the same guess.
func (s *Session) ResolveGuess(token string) Outcome {
	s.CurGuess = token
	var status Status

	switch {
	case token == "":
		s.NumIncorrect++
		s.Misses[s.Guesser]++
		status = StatusTimeout

	case len([]rune(token)) == 1:
		if !contains(s.GuessedLetters, token) {
			s.GuessedLetters = append(s.GuessedLetters, token)
		}
		match := s.reveal(token)
		if match == 0 {
			s.NumIncorrect++
			s.Wrong[s.Guesser]++
			status = StatusIncorrect
		} else {
			s.Right[s.Guesser]++
			status = StatusCorrect
		}

	default:
		if !contains(s.GuessedWords, token) {
			s.GuessedWords = append(s.GuessedWords, token)
		}
		if !strings.EqualFold(token, s.Word) {
			s.NumIncorrect++
			s.Wrong[s.Guesser]++
			status = StatusIncorrect
		}
	}

	wordSolved := s.Word != "" && strings.EqualFold(s.Word, s.GuessedWord)
	failed := s.NumIncorrect == s.Lives
	directWin := token != "" && strings.EqualFold(token, s.Word)

	if !wordSolved && !failed && !directWin {
		s.NextGuesser()
		return Outcome{Status: status}
	}

	var winner string
	if failed {
		status = StatusFailed
		winner = s.Hanger
	} else {
		if status == "" {
			status = StatusWin
		}
		winner = s.Guesser
	}
	s.Wins[winner]++

	word := s.Word

	// Round-scoped fields reset now; the word survives until the caller has
	// broadcast the round-ended notice.
	s.Category = ""
	s.GuessedWord = ""
	s.GuessedLetters = []string{}
	s.GuessedWords = []string{}

	return Outcome{
		Status:     status,
		RoundEnded: true,
		Winner:     winner,
		Word:       word,
	}
}

// reveal uncovers every still-masked position whose word character matches
// letter case-insensitively, returning the number of new reveals.
func (s *Session) reveal(letter string) int {
	match := 0
	word := s.Word
	mask := []byte(s.GuessedWord)
	n := len(word)
	if len(mask) < n {
		n = len(mask)
	}
	for i := 0; i < n; i++ {
		if mask[i] == '_' && strings.EqualFold(string(word[i]), letter) {
			mask[i] = word[i]
			match++
		}
	}
	s.GuessedWord = string(mask)
	return match
}

func contains(list []string, v string) bool {
	for _, e := range list {
		if e == v {
			return true
		}
	}
	return false
}
