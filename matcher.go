package main

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

const (
	minContainTokenLen = 3 // token/pattern containment needs at least this many letters
	minFuzzyTokenLen   = 4 // edit distance is only computed for tokens this long
	maxSpellDistance   = 3
	maxPatternDistance = 2
	minPrefixSpellLen  = 7
	prefixLen          = 5
)

// Matcher turns a noisy speech transcript into a spell.
// It holds no state beyond the catalog and is safe for concurrent use.
type Matcher struct {
	catalog *Catalog
}

// NewMatcher creates a Matcher over the given catalog
func NewMatcher(catalog *Catalog) *Matcher {
	return &Matcher{catalog: catalog}
}

// normalizeTranscript lowercases, drops everything but letters and spaces, and trims
func normalizeTranscript(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			b.WriteRune(' ')
		}
	}
	return strings.TrimSpace(b.String())
}

// Match resolves a transcript. Stages run from strictest to loosest and the first hit wins.
func (m *Matcher) Match(transcript string) (*Spell, bool) {
	clean := normalizeTranscript(transcript)
	if clean == "" {
		return nil, false
	}
	words := strings.Fields(clean)
	combined := strings.Join(words, "")

	// Exact identifier
	if s, ok := m.catalog.Spell(combined); ok {
		return s, true
	}
	for _, w := range words {
		if s, ok := m.catalog.Spell(w); ok {
			return s, true
		}
	}

	spells := m.catalog.Spells()

	// Known variants anywhere in the transcript
	for _, s := range spells {
		for _, p := range s.Patterns {
			if strings.Contains(clean, p) {
				return s, true
			}
		}
	}
	// Known variants overlapping a single token
	for _, s := range spells {
		for _, p := range s.Patterns {
			for _, w := range words {
				if len(w) >= minContainTokenLen && (strings.Contains(w, p) || strings.Contains(p, w)) {
					return s, true
				}
			}
		}
	}

	// Edit distance
	for _, s := range spells {
		for _, w := range words {
			if len(w) < minFuzzyTokenLen {
				continue
			}
			if levenshtein.ComputeDistance(w, s.ID) <= maxSpellDistance {
				return s, true
			}
			for _, p := range s.Patterns {
				if levenshtein.ComputeDistance(w, p) <= maxPatternDistance {
					return s, true
				}
			}
		}
	}

	// Prefix
	for _, s := range spells {
		if len(s.ID) >= minPrefixSpellLen && strings.Contains(combined, s.ID[:prefixLen]) {
			return s, true
		}
	}

	return nil, false
}
