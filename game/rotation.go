package game

// NextGuesser moves the guessing turn to the next roster entry after the
// current guesser, skipping the hanger and wrapping around. If the current
// guesser is gone from the roster, the first non-hanger player takes over;
// if there is none, the guesser is cleared.
func (s *Session) NextGuesser() {
	if s.Guesser == "" {
		return
	}
	pos := s.indexOf(s.Guesser)

	if pos < 0 {
		for _, p := range s.Players {
			if p != s.Hanger {
				s.Guesser = p
				return
			}
		}
		s.Guesser = ""
		return
	}

	n := s.NumPlayers()
	for i := 0; i < n; i++ {
		pos = (pos + 1) % n
		if s.Players[pos] != s.Hanger {
			s.Guesser = s.Players[pos]
			return
		}
	}
	// every roster entry is the hanger: single-player room
	s.Guesser = ""
}

// nextHanger rotates the hanger role at a round boundary. Under round-robin
// the role always advances to the next roster entry. Under king-of-the-hill
// the winner of the prior round takes the role, unless the round ended by
// attrition, in which case the sitting hanger keeps it.
func (s *Session) nextHanger(trigger string) {
	if s.Rotation == RotationRobin {
		pos := s.indexOf(s.Hanger)
		next := 0
		if pos >= 0 && pos != s.NumPlayers()-1 {
			next = pos + 1
		}
		s.Hanger = s.Players[next]
		return
	}
	// The crown never leaves the roster: an attrition win or an unknown
	// trigger keeps the sitting hanger.
	if s.NumIncorrect != s.Lives && s.HasPlayer(trigger) {
		s.Hanger = trigger
	}
}
