// Package profanity classifies text against a severity-leveled Portuguese lexicon
// and masks offending spans.
package profanity

import (
	"unicode"

	"github.com/ashureev/chatengine/internal/domain"
	"golang.org/x/text/unicode/norm"
)

// Level is the severity of offensive content.
type Level int

// Severity levels, ordered.
const (
	None Level = iota
	Mild
	Moderate
	Severe
	HateSpeech
)

// String returns the level name, or "" for None.
func (l Level) String() string {
	switch l {
	case Mild:
		return "MILD"
	case Moderate:
		return "MODERATE"
	case Severe:
		return "SEVERE"
	case HateSpeech:
		return "HATE_SPEECH"
	default:
		return ""
	}
}

// MarshalText encodes the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// IsAbusive reports whether the level blocks the conversation.
func (l Level) IsAbusive() bool {
	return l >= Severe
}

// Result is the verdict for one message.
type Result struct {
	ContainsProfanity bool     `json:"contains_profanity" yaml:"contains_profanity"`
	Level             Level    `json:"level" yaml:"level"`
	Words             []string `json:"words" yaml:"words"`
	Sanitized         string   `json:"sanitized" yaml:"sanitized"`
}

// Analysis converts the verdict to its context form.
func (r Result) Analysis() *domain.ProfanityAnalysis {
	return &domain.ProfanityAnalysis{
		ContainsProfanity: r.ContainsProfanity,
		Level:             r.Level.String(),
		Words:             append([]string(nil), r.Words...),
		Sanitized:         r.Sanitized,
	}
}

type pattern struct {
	base    string
	runes   []rune
	level   Level
	bounded bool
}

// Matcher detects lexicon terms and phrases. It is immutable and safe for concurrent use.
type Matcher struct {
	patterns []pattern
}

// NewMatcher builds a matcher over the built-in lexicon.
func NewMatcher() *Matcher {
	m := &Matcher{}
	for _, e := range lexicon {
		m.patterns = append(m.patterns, pattern{base: e.text, runes: []rune(e.text), level: e.level, bounded: true})
		for _, v := range variants[e.text] {
			m.patterns = append(m.patterns, pattern{base: e.text, runes: []rune(v), level: e.level, bounded: true})
		}
	}
	for _, e := range phrases {
		m.patterns = append(m.patterns, pattern{base: e.text, runes: []rune(e.text), level: e.level})
	}
	return m
}

// Classify reports every lexicon match in message and returns the message with
// each matched span replaced by asterisks of equal length. Detection runs on a
// lowercased, leetspeak-normalized copy; masking keeps the original casing.
func (m *Matcher) Classify(message string) Result {
	text := norm.NFC.String(message)
	original := []rune(text)
	folded := fold(original)

	res := Result{Sanitized: text}
	var spans [][2]int
	seen := make(map[string]bool)
	for _, p := range m.patterns {
		found := p.find(folded)
		if len(found) == 0 {
			continue
		}
		spans = append(spans, found...)
		if !seen[p.base] {
			seen[p.base] = true
			res.Words = append(res.Words, p.base)
		}
		if p.level > res.Level {
			res.Level = p.level
		}
	}
	if len(spans) == 0 {
		return res
	}

	res.ContainsProfanity = true
	masked := make([]rune, len(original))
	copy(masked, original)
	for _, sp := range spans {
		for i := sp[0]; i < sp[1]; i++ {
			masked[i] = '*'
		}
	}
	res.Sanitized = string(masked)
	return res
}

// fold lowercases and undoes leetspeak rune by rune, so indexes line up with the input.
func fold(in []rune) []rune {
	lower := make([]rune, len(in))
	for i, r := range in {
		lower[i] = unicode.ToLower(r)
	}
	out := make([]rune, len(lower))
	for i, r := range lower {
		if sub, ok := leet[r]; ok {
			out[i] = sub
			continue
		}
		// "!" stands for "i" only inside a word.
		if r == '!' && i > 0 && i < len(lower)-1 && isWordRune(lower[i-1]) && isWordRune(lower[i+1]) {
			out[i] = 'i'
			continue
		}
		out[i] = r
	}
	return out
}

func (p pattern) find(text []rune) [][2]int {
	n := len(p.runes)
	var out [][2]int
	for i := 0; i+n <= len(text); i++ {
		if !equalRunes(text[i:i+n], p.runes) {
			continue
		}
		if p.bounded && !(boundary(text, i-1) && boundary(text, i+n)) {
			continue
		}
		out = append(out, [2]int{i, i + n})
	}
	return out
}

func equalRunes(a, b []rune) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func boundary(text []rune, idx int) bool {
	return idx < 0 || idx >= len(text) || !isWordRune(text[idx])
}

// isWordRune treats the mask rune as part of a word so masking never exposes new matches.
func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '*'
}
