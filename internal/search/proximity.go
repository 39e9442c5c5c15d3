package search

import "strings"

// Proximity detects queries that ask for nearby results ("près de moi", "near me", ...).
type Proximity struct {
	phrases []string
}

// NewProximity returns a detector for the given phrases. An empty list never matches.
func NewProximity(phrases []string) *Proximity {
	p := &Proximity{phrases: make([]string, 0, len(phrases))}
	for _, ph := range phrases {
		if ph = strings.ToLower(strings.TrimSpace(ph)); ph != "" {
			p.phrases = append(p.phrases, ph)
		}
	}
	return p
}

// Matches reports whether q contains any phrase, case-insensitively.
func (p *Proximity) Matches(q string) bool {
	lq := strings.ToLower(q)
	for _, ph := range p.phrases {
		if strings.Contains(lq, ph) {
			return true
		}
	}
	return false
}
