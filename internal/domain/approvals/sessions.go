package approvals

import (
	"strings"
	"sync"
	"time"

	"visitor-gate/internal/platform/logger"
)

// DefaultSessionIdle: tras este tiempo sin uso un controller ocioso se descarta.
const DefaultSessionIdle = 30 * time.Minute

// Sessions guarda un Controller por resident para que el guard de "una
// acción en vuelo por id" aplique entre requests del mismo resident.
type Sessions struct {
	authority Authority
	decisions DecisionRepository
	log       logger.Logger

	idleTTL time.Duration
	now     func() time.Time

	mu         sync.Mutex
	byResident map[string]*session
	lastSweep  time.Time
}

type session struct {
	ctl  *Controller
	seen time.Time
}

func NewSessions(authority Authority, decisions DecisionRepository, log logger.Logger) *Sessions {
	return &Sessions{
		authority:  authority,
		decisions:  decisions,
		log:        log,
		idleTTL:    DefaultSessionIdle,
		now:        time.Now,
		byResident: map[string]*session{},
		lastSweep:  time.Now(),
	}
}

func (s *Sessions) For(residentID string) *Controller {
	residentID = strings.TrimSpace(residentID)
	now := s.now()

	s.mu.Lock()
	evicted := s.sweepLocked(now)
	sess, ok := s.byResident[residentID]
	if !ok {
		sess = &session{ctl: NewController(residentID, s.authority, s.decisions, s.log)}
		s.byResident[residentID] = sess
	}
	sess.seen = now
	s.mu.Unlock()

	for _, c := range evicted {
		c.Close()
	}
	return sess.ctl
}

// sweepLocked descarta controllers sin uso por más de idleTTL que no tengan
// acciones en vuelo ni pollers. Barrido perezoso, como mucho uno por minuto.
func (s *Sessions) sweepLocked(now time.Time) []*Controller {
	if now.Sub(s.lastSweep) <= time.Minute {
		return nil
	}
	s.lastSweep = now

	var evicted []*Controller
	for id, sess := range s.byResident {
		if now.Sub(sess.seen) > s.idleTTL && sess.ctl.idle() {
			delete(s.byResident, id)
			evicted = append(evicted, sess.ctl)
		}
	}
	return evicted
}

// Len devuelve cuántos controllers hay vivos.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byResident)
}

// Close cierra todos los controllers (shutdown).
func (s *Sessions) Close() {
	s.mu.Lock()
	cs := make([]*Controller, 0, len(s.byResident))
	for _, sess := range s.byResident {
		cs = append(cs, sess.ctl)
	}
	s.byResident = map[string]*session{}
	s.mu.Unlock()

	for _, c := range cs {
		c.Close()
	}
}
