package aira

import "time"

// DefaultHistoryLimit is the number of turns a Session retains.
const DefaultHistoryLimit = 20

// Session is an in-memory conversation: the finished turns, newest last.
type Session struct {
	ID           string
	Turns        []Turn
	HistoryLimit int // 0 = DefaultHistoryLimit
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Append records a finished turn, dropping the oldest turns beyond the
// history limit.
func (s *Session) Append(t Turn) {
	limit := s.HistoryLimit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	s.Turns = append(s.Turns, t)
	if n := len(s.Turns); n > limit {
		s.Turns = append([]Turn(nil), s.Turns[n-limit:]...)
	}
	s.UpdatedAt = time.Now()
}
