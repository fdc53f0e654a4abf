package repositories

import (
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/raff/internal/models"
)

const (
	ThemeKey   = "theme"
	VisitedKey = "hasVisited"
)

// Preferences stores the theme choice and the first-visit flag as raw strings.
type Preferences struct {
	mu      sync.Mutex
	storage Storage
	logger  *log.Logger
}

func NewPreferences(storage Storage, logger *log.Logger) *Preferences {
	return &Preferences{storage: storage, logger: defaultLogger(logger)}
}

// Theme returns the stored theme, if one was saved and is valid.
func (p *Preferences) Theme() (models.Theme, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	raw, ok, err := p.storage.GetItem(ThemeKey)
	if err != nil {
		p.logger.Error("failed to read theme", "error", err)
		return "", false
	}
	if !ok {
		return "", false
	}
	return models.ParseTheme(raw)
}

func (p *Preferences) SetTheme(t models.Theme) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.storage.SetItem(ThemeKey, string(t)); err != nil {
		p.logger.Error("failed to write theme", "theme", t, "error", err)
	}
}

// FirstVisit reports true exactly once per storage, marking the visit as seen.
// Storage failures are treated as a returning visit.
func (p *Preferences) FirstVisit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, ok, err := p.storage.GetItem(VisitedKey)
	if err != nil {
		p.logger.Error("failed to read visit flag", "error", err)
		return false
	}
	if ok {
		return false
	}
	if err := p.storage.SetItem(VisitedKey, "true"); err != nil {
		p.logger.Error("failed to write visit flag", "error", err)
	}
	return true
}
