package authority

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"visitor-gate/internal/domain/approvals"
)

// flexID acepta ids numéricos o string. Se serializa como número si es
// puramente numérico (el backend espera int).
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*id = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: id %s", ErrBadPayload, string(b))
	}
	*id = flexID(n.String())
	return nil
}

func (id flexID) MarshalJSON() ([]byte, error) {
	s := string(id)
	if s != "" && isDigits(s) {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// timestamp acepta ISO-8601 con o sin zona. Sin zona => UTC (el backend
// guarda datetimes naive en UTC).
type timestamp struct {
	time.Time
	Valid bool
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *timestamp) UnmarshalJSON(b []byte) error {
	if string(bytes.TrimSpace(b)) == "null" {
		*t = timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: timestamp %s", ErrBadPayload, string(b))
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func parseTimestamp(s string) (timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return timestamp{}, nil
	}
	if v, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return timestamp{Time: v.UTC(), Valid: true}, nil
	}
	for _, layout := range naiveLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return timestamp{Time: v, Valid: true}, nil
		}
	}
	return timestamp{}, fmt.Errorf("%w: timestamp %q", ErrBadPayload, s)
}

func (t timestamp) ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// formatNaiveUTC es el formato que el backend compara contra utcnow().
func formatNaiveUTC(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05")
}

// decodeStatus rechaza estados desconocidos en el borde.
func decodeStatus(s string) (approvals.RawStatus, error) {
	st, err := approvals.ParseRawStatus(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return st, nil
}

func stringOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}
