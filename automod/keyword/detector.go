package keyword

import (
	"strings"
)

// Which rule fired, for logging.
type Match struct {
	// "keyword" or "co-occurrence"
	Rule    string
	Markers []string
}

// Scam signal detector over a member's display text (display name, handle, and alias fields). It never sees profile bio text.
//
// Matching is plain substring containment after FoldText, not whole-word: "xcoderx" matches the keyword "coder". Immutable after construction and safe for concurrent use.
type Detector struct {
	keywords []string
	groups   [][]string
}

func NewDetector(r Rules) *Detector {
	d := &Detector{
		keywords: make([]string, 0, len(r.Keywords)),
		groups:   make([][]string, 0, len(r.CoOccurrence)),
	}
	for _, kw := range r.Keywords {
		if kw = FoldText(strings.TrimSpace(kw)); kw != "" {
			d.keywords = append(d.keywords, kw)
		}
	}
	for _, group := range r.CoOccurrence {
		g := make([]string, 0, len(group))
		for _, m := range group {
			if m = FoldText(strings.TrimSpace(m)); m != "" {
				g = append(g, m)
			}
		}
		if len(g) > 0 {
			d.groups = append(d.groups, g)
		}
	}
	return d
}

// Returns true if the text triggers either the keyword rule or any co-occurrence group.
func (d *Detector) Detect(displayText string) bool {
	_, ok := d.Match(displayText)
	return ok
}

func (d *Detector) Match(displayText string) (Match, bool) {
	text := FoldText(displayText)
	for _, kw := range d.keywords {
		if strings.Contains(text, kw) {
			return Match{Rule: "keyword", Markers: []string{kw}}, true
		}
	}
	for _, g := range d.groups {
		if containsAll(text, g) {
			return Match{Rule: "co-occurrence", Markers: g}, true
		}
	}
	return Match{}, false
}

func containsAll(text string, markers []string) bool {
	for _, m := range markers {
		if !strings.Contains(text, m) {
			return false
		}
	}
	return true
}
