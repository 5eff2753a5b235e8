package recurring

import (
	"context"
	"errors"
	"strings"
	"time"

	"visitor-gate/internal/platform/logger"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("recurring visitor not found")
)

// Authority guarda las reglas.
type Authority interface {
	ListRecurring(ctx context.Context, residentID string) ([]Rule, error)
	AddRecurring(ctx context.Context, in NewRule) (Rule, error)
	SetRecurringActive(ctx context.Context, id string, active bool) error
}

type Service struct {
	authority Authority
	log       logger.Logger
	now       func() time.Time
	loc       *time.Location
}

// NewService: las ventanas horarias se interpretan en loc (nil => UTC,
// igual que la autoridad).
func NewService(authority Authority, loc *time.Location, log logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = logger.Discard()
	}
	return &Service{authority: authority, log: log, now: time.Now, loc: loc}
}

func (s *Service) List(ctx context.Context, residentID string) ([]Rule, error) {
	residentID = strings.TrimSpace(residentID)
	if residentID == "" {
		return nil, ErrInvalidInput
	}

	rules, err := s.authority.ListRecurring(ctx, residentID)
	if err != nil {
		return nil, err
	}
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, s.decorate(r))
	}
	return out, nil
}

func (s *Service) Add(ctx context.Context, in NewRule) (Rule, error) {
	in.ResidentID = strings.TrimSpace(in.ResidentID)
	in.Name = strings.TrimSpace(in.Name)
	in.Role = strings.TrimSpace(in.Role)
	in.Schedule = strings.TrimSpace(in.Schedule)
	in.TimeWindow = strings.TrimSpace(in.TimeWindow)

	if in.ResidentID == "" || in.Name == "" || in.Schedule == "" {
		return Rule{}, ErrInvalidInput
	}
	w, err := ParseTimeWindow(in.TimeWindow)
	if err != nil {
		return Rule{}, errors.Join(ErrInvalidInput, err)
	}
	in.TimeWindow = w.String()

	r, err := s.authority.AddRecurring(ctx, in)
	if err != nil {
		return Rule{}, err
	}
	s.log.Info("recurring visitor added", map[string]any{"resident_id": in.ResidentID, "id": r.ID})
	return s.decorate(r), nil
}

// Toggle invierte Active de una regla del resident.
func (s *Service) Toggle(ctx context.Context, residentID, id string) (Rule, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Rule{}, ErrInvalidInput
	}

	rules, err := s.List(ctx, residentID)
	if err != nil {
		return Rule{}, err
	}

	for _, r := range rules {
		if r.ID != id {
			continue
		}
		next := !r.Active
		if err := s.authority.SetRecurringActive(ctx, id, next); err != nil {
			return Rule{}, err
		}
		r.Active = next
		return r, nil
	}
	return Rule{}, ErrNotFound
}

// PreAuthorized son las reglas activas que aplican ahora (día + ventana).
func (s *Service) PreAuthorized(ctx context.Context, residentID string) ([]Rule, error) {
	rules, err := s.List(ctx, residentID)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.loc)

	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		if AppliesAt(r, now) {
			out = append(out, r)
		}
	}
	return out, nil
}

// AppliesAt: activa, el día está en la recurrencia y la hora en la ventana.
func AppliesAt(r Rule, t time.Time) bool {
	return r.Active && r.Recurrence.Includes(t.Weekday()) && r.Window.Contains(t)
}

// NextVisitOf calcula la próxima visita en la zona del servicio.
func (s *Service) NextVisitOf(r Rule) (time.Time, bool) {
	if !r.Active {
		return time.Time{}, false
	}
	return NextVisit(r.Recurrence, r.Window, s.now().In(s.loc))
}

func (s *Service) decorate(r Rule) Rule {
	r.Recurrence = ParseRecurrence(r.Schedule)
	w, err := ParseTimeWindow(r.TimeWindow)
	if err != nil {
		// dato viejo de la autoridad: se toma todo el día
		s.log.Warn("unparseable time window", map[string]any{"id": r.ID, "time_window": r.TimeWindow})
		w, _ = ParseTimeWindow("")
	}
	r.Window = w
	return r
}
