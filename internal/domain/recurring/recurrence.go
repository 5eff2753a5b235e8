package recurring

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidWindow = errors.New("invalid time window")

// orden de semana lunes..domingo, como lo muestra la UI
var weekOrder = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
	time.Friday, time.Saturday, time.Sunday,
}

// Recurrence es el conjunto de días en que aplica la regla.
type Recurrence struct {
	days [7]bool // indexado por time.Weekday
}

// ParseRecurrence acepta "daily", "weekdays", "weekends" o cualquier texto
// que nombre días ("every_tuesday_thursday"). Si no reconoce nada, lunes.
func ParseRecurrence(s string) Recurrence {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "-", "_")

	var r Recurrence
	switch key {
	case "daily":
		for d := range r.days {
			r.days[d] = true
		}
		return r
	case "weekdays":
		for _, d := range weekOrder[:5] {
			r.days[d] = true
		}
		return r
	case "weekends":
		r.days[time.Saturday] = true
		r.days[time.Sunday] = true
		return r
	}

	found := false
	for _, d := range weekOrder {
		if strings.Contains(key, strings.ToLower(d.String())) {
			r.days[d] = true
			found = true
		}
	}
	if !found {
		r.days[time.Monday] = true
	}
	return r
}

func (r Recurrence) Includes(d time.Weekday) bool {
	return r.days[d]
}

// Days en orden lunes..domingo.
func (r Recurrence) Days() []time.Weekday {
	out := make([]time.Weekday, 0, 7)
	for _, d := range weekOrder {
		if r.days[d] {
			out = append(out, d)
		}
	}
	return out
}

// Label es el texto para mostrar.
func (r Recurrence) Label() string {
	days := r.Days()
	switch {
	case len(days) == 7:
		return "Daily"
	case len(days) == 5 && !r.days[time.Saturday] && !r.days[time.Sunday]:
		return "Weekdays (Mon-Fri)"
	case len(days) == 2 && r.days[time.Saturday] && r.days[time.Sunday]:
		return "Weekends (Sat-Sun)"
	}

	names := make([]string, 0, len(days))
	for _, d := range days {
		names = append(names, d.String())
	}
	return "Every " + strings.Join(names, ", ")
}

// TimeWindow es un rango horario del día en minutos desde medianoche.
type TimeWindow struct {
	Start int
	End   int
}

// ParseTimeWindow parsea "HH:MM-HH:MM". Sin fin => 23:59.
// Vacío => todo el día.
func ParseTimeWindow(s string) (TimeWindow, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return TimeWindow{Start: 0, End: 23*60 + 59}, nil
	}

	startRaw, endRaw, hasEnd := strings.Cut(s, "-")
	start, err := parseClock(startRaw)
	if err != nil {
		return TimeWindow{}, err
	}
	end := 23*60 + 59
	if hasEnd && strings.TrimSpace(endRaw) != "" {
		end, err = parseClock(endRaw)
		if err != nil {
			return TimeWindow{}, err
		}
	}
	if end < start {
		return TimeWindow{}, fmt.Errorf("%w: end before start", ErrInvalidWindow)
	}
	return TimeWindow{Start: start, End: end}, nil
}

// Contains incluye ambos extremos (con granularidad de minuto).
func (w TimeWindow) Contains(t time.Time) bool {
	m := t.Hour()*60 + t.Minute()
	return m >= w.Start && m <= w.End
}

func (w TimeWindow) String() string {
	return formatClock(w.Start) + "-" + formatClock(w.End)
}

func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidWindow, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: hour %q", ErrInvalidWindow, hh)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: minute %q", ErrInvalidWindow, mm)
	}
	return h*60 + m, nil
}

func formatClock(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// NextVisit es el próximo inicio de ventana desde now (hoy incluido si la
// ventana de hoy no terminó). ok=false si la regla no tiene días.
func NextVisit(r Recurrence, w TimeWindow, now time.Time) (time.Time, bool) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	for i := 0; i < 8; i++ {
		day := today.AddDate(0, 0, i)
		if !r.Includes(day.Weekday()) {
			continue
		}
		if i == 0 && now.Hour()*60+now.Minute() > w.End {
			continue
		}
		return day.Add(time.Duration(w.Start) * time.Minute), true
	}
	return time.Time{}, false
}
