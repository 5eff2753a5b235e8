package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type AuthMode string

const (
	AuthDev    AuthMode = "dev"    // headers X-Debug-*
	AuthJWT    AuthMode = "jwt"    // HS256 con SESSION_SECRET
	AuthRemote AuthMode = "remote" // GET /auth/me en la autoridad
)

type Config struct {
	HTTPAddr string

	// autoridad remota
	BackendURL     string
	BackendTimeout time.Duration
	BackendToken   string // opcional; se usa si el request no trae bearer

	DetectTimeout         time.Duration
	DefaultApprovalWindow time.Duration
	PollInterval          time.Duration

	DBDSN string // vacío => journal in-memory

	AuthMode      AuthMode
	SessionSecret string

	SearchRatePerSec float64
	SearchBurst      int

	// zona para evaluar horarios de visitantes recurrentes
	Location *time.Location
}

func FromEnv() Config {
	port := getenvDefault("PORT", "8080")

	mode := AuthMode(strings.ToLower(getenvDefault("AUTH_MODE", string(AuthDev))))
	switch mode {
	case AuthDev, AuthJWT, AuthRemote:
	default:
		// fail-soft: modo desconocido => dev
		mode = AuthDev
	}

	loc, err := time.LoadLocation(getenvDefault("GATE_TIMEZONE", "UTC"))
	if err != nil {
		loc = time.UTC
	}

	return Config{
		HTTPAddr: ":" + strings.TrimPrefix(port, ":"),

		BackendURL:     strings.TrimRight(getenvDefault("BACKEND_URL", "http://localhost:8000/api"), "/"),
		BackendTimeout: getenvDuration("BACKEND_TIMEOUT", 10*time.Second),
		BackendToken:   strings.TrimSpace(os.Getenv("BACKEND_TOKEN")),

		DetectTimeout:         getenvDuration("DETECT_TIMEOUT", 5*time.Second),
		DefaultApprovalWindow: getenvDuration("DEFAULT_APPROVAL_WINDOW", 90*time.Minute),
		PollInterval:          getenvDuration("POLL_INTERVAL", 5*time.Second),

		DBDSN: strings.TrimSpace(os.Getenv("DB_DSN")),

		AuthMode:      mode,
		SessionSecret: os.Getenv("SESSION_SECRET"),

		SearchRatePerSec: getenvFloat("SEARCH_RATE_PER_SEC", 5),
		SearchBurst:      getenvInt("SEARCH_BURST", 10),

		Location: loc,
	}
}

// Validate revisa combinaciones que FromEnv no puede corregir sola.
func (c Config) Validate() error {
	if c.AuthMode == AuthJWT && strings.TrimSpace(c.SessionSecret) == "" {
		return errors.New("AUTH_MODE=jwt requires SESSION_SECRET")
	}
	if strings.TrimSpace(c.BackendURL) == "" {
		return errors.New("BACKEND_URL is required")
	}
	return nil
}

func getenvDefault(key, def string) string {
	v := os.Getenv(key)
	if strings.TrimSpace(v) == "" {
		return def
	}
	return strings.TrimSpace(v)
}

func getenvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func getenvFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return def
	}
	return f
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
