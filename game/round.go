package game

// MaskWord hides every ASCII letter and digit of word behind an underscore;
// spaces and punctuation stay visible.
func MaskWord(word string) string {
	mask := []byte(word)
	for i := 0; i < len(mask); i++ {
		if isAlnum(mask[i]) {
			mask[i] = '_'
		}
	}
	return string(mask)
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// NewRound installs the next word and category, rotates the hanger role on
// every round after the first, and resets the per-round counters. trigger
// is the player who submitted the word, normally the prior round's winner.
func (s *Session) NewRound(category, word, trigger string) {
	s.Word = word
	s.Category = category
	s.GuessedWord = MaskWord(word)

	if s.Round > 0 {
		s.nextHanger(trigger)

		// Guessing starts at the roster entry right after the new hanger.
		pos := s.indexOf(s.Hanger)
		next := 0
		if pos >= 0 && pos != s.NumPlayers()-1 {
			next = pos + 1
		}
		if s.Players[next] == s.Hanger {
			s.Guesser = ""
		} else {
			s.Guesser = s.Players[next]
		}
	}

	s.NumIncorrect = 0
	s.CurGuess = ""
	s.Round++
}
