package recurring

import "time"

// Rule es un visitante recurrente de un resident. Solo cambia por toggle.
type Rule struct {
	ID         string
	ResidentID string
	Name       string
	Role       string // p.ej. "cleaner", "driver"; opcional

	Schedule   string // texto tal como lo guarda la autoridad
	Recurrence Recurrence
	TimeWindow string
	Window     TimeWindow

	PhotoURL  string
	Active    bool
	CreatedAt time.Time
}

// NewRule es el payload de alta.
type NewRule struct {
	ResidentID string
	Name       string
	Role       string
	Schedule   string
	TimeWindow string
	PhotoURL   string
}
