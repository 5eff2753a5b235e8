package statuscheck

import (
	"context"
	"net/http"
	"strings"
	"time"

	"visitor-gate/internal/domain/approvals"
	"visitor-gate/internal/platform/httpclient"
)

// Visitor es un resultado de búsqueda de la autoridad.
type Visitor struct {
	ID       string
	Name     string
	Phone    string
	PhotoURL string
	Latest   *approvals.Approval // nil si nunca tuvo solicitudes
}

// Authority es el lado read-only de la autoridad.
type Authority interface {
	Search(ctx context.Context, query string) ([]Visitor, error)
	ExpectedToday(ctx context.Context) ([]approvals.Approval, error)
	approvals.StatusSource
}

// Outcome: Found=false es el estado neutral "no encontrado", no un error.
type Outcome struct {
	Found    bool
	Visitor  Visitor
	Approval *approvals.Approval
	// Status vacío si el visitante no tiene solicitudes.
	Status approvals.EffectiveStatus
}

type Service struct {
	authority Authority
	now       func() time.Time
}

func NewService(authority Authority) *Service {
	return &Service{authority: authority, now: time.Now}
}

// Search devuelve a lo sumo un visitante (el mejor match) con su última
// solicitud resuelta contra now.
func (s *Service) Search(ctx context.Context, query string) (Outcome, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Outcome{}, nil
	}

	results, err := s.authority.Search(ctx, query)
	if err != nil {
		return Outcome{}, err
	}

	best, ok := bestMatch(query, results)
	if !ok {
		return Outcome{}, nil
	}

	out := Outcome{Found: true, Visitor: best, Approval: best.Latest}
	if best.Latest != nil {
		out.Status = best.Latest.Effective(s.now())
	}
	return out, nil
}

// VisitorStatus consulta la última solicitud de un visitante por id.
// Si la autoridad responde 404, es un Outcome no encontrado.
func (s *Service) VisitorStatus(ctx context.Context, visitorID string) (Outcome, error) {
	visitorID = strings.TrimSpace(visitorID)
	if visitorID == "" {
		return Outcome{}, nil
	}

	rec, err := s.authority.CheckStatus(ctx, visitorID)
	if err != nil {
		if httpclient.StatusCode(err) == http.StatusNotFound {
			return Outcome{}, nil
		}
		return Outcome{}, err
	}

	return Outcome{
		Found: true,
		Visitor: Visitor{
			ID:       visitorID,
			Name:     rec.VisitorName,
			PhotoURL: rec.PhotoRef,
		},
		Approval: &rec,
		Status:   rec.Effective(s.now()),
	}, nil
}

// Arrival es una llegada del día con su estado ya resuelto.
type Arrival struct {
	Approval approvals.Approval
	Status   approvals.EffectiveStatus
}

// ExpectedToday lista las llegadas del día. Un approved cuya ventana ya
// venció se muestra EXPIRED, no APPROVED; los denied no se listan.
func (s *Service) ExpectedToday(ctx context.Context) ([]Arrival, error) {
	recs, err := s.authority.ExpectedToday(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]Arrival, 0, len(recs))
	for _, rec := range recs {
		st := rec.Effective(now)
		if st == approvals.StatusDenied {
			continue
		}
		out = append(out, Arrival{Approval: rec, Status: st})
	}
	return out, nil
}

// bestMatch: nombre exacto (case-insensitive), luego departamento exacto,
// luego el primero que devolvió la autoridad.
func bestMatch(query string, results []Visitor) (Visitor, bool) {
	if len(results) == 0 {
		return Visitor{}, false
	}
	for _, v := range results {
		if strings.EqualFold(strings.TrimSpace(v.Name), query) {
			return v, true
		}
	}
	for _, v := range results {
		if v.Latest != nil && strings.EqualFold(strings.TrimSpace(v.Latest.AptNumber), query) {
			return v, true
		}
	}
	return results[0], true
}
