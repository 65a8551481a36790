package game

// HandleLeave removes user from the session, repairing whichever role they
// held. The caller is responsible for the one-player case (room teardown).
func (s *Session) HandleLeave(user string) {
	// Two players left: the survivor gets a brand-new single-player session
	// that keeps only the game configuration.
	if s.NumPlayers() == 2 {
		s.RemovePlayer(user)
		remaining := s.Players[0]
		var t *int
		if s.Time != nil && *s.Time != 0 {
			limit := *s.Time
			t = &limit
		}
		*s = *NewSession(Config{
			Username:  remaining,
			Lives:     s.Lives,
			Rotation:  s.Rotation,
			NumRounds: s.NumRounds,
			Time:      t,
		})
		return
	}

	if user == s.Hanger {
		s.RemovePlayer(user)
		s.Hanger = s.Players[0]
		if len(s.Players) > 1 {
			s.Guesser = s.Players[1]
		} else {
			s.Guesser = ""
		}
		// The round is abandoned; a new word has to be chosen.
		s.Word = ""
		s.Category = ""
		s.GuessedWord = ""
		s.GuessedLetters = []string{}
		s.GuessedWords = []string{}
		s.NumIncorrect = 0
		s.CurGuess = ""
		return
	}

	if user == s.Guesser {
		// Advance first so the rotation scan still sees the departing
		// player as a skippable roster entry.
		s.NextGuesser()
		s.RemovePlayer(user)
		return
	}

	s.RemovePlayer(user)
}
