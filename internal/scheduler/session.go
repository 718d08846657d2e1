package scheduler

import "time"

// session tracks one stretch of coding activity. Exactly one session is
// current at a time; Flush ends it and begins the next.
type session struct {
	startedAt       time.Time
	lastActivity    time.Time
	idleAccumulated time.Duration

	// activeFiles preserves first-touch order for reporting.
	activeFiles []string
	seen        map[string]bool
}

func newSession(now time.Time) *session {
	return &session{
		startedAt:    now,
		lastActivity: now,
		seen:         make(map[string]bool),
	}
}

// touch records activity on a file and moves the idle clock forward.
func (s *session) touch(path string, now time.Time) {
	s.lastActivity = now
	if path == "" || s.seen[path] {
		return
	}
	s.seen[path] = true
	s.activeFiles = append(s.activeFiles, path)
}

// duration is wall time since the session began.
func (s *session) duration(now time.Time) time.Duration {
	return now.Sub(s.startedAt)
}

// activeTime is duration minus accumulated idle, floored at zero.
func (s *session) activeTime(now time.Time) time.Duration {
	active := s.duration(now) - s.idleAccumulated
	if active < 0 {
		return 0
	}
	return active
}
