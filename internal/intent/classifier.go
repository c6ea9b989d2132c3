// Package intent maps a chat message to the set of intents it expresses and
// picks the one that drives the rest of the pipeline.
package intent

import (
	"regexp"
	"strings"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/profanity"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

var (
	wordRe = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	meVeRe = regexp.MustCompile(`\bme ve\b`)
)

// Set is an unordered set of intents.
type Set map[domain.Intent]struct{}

// NewSet builds a set from labels.
func NewSet(intents ...domain.Intent) Set {
	s := make(Set, len(intents))
	for _, i := range intents {
		s[i] = struct{}{}
	}
	return s
}

// Has reports whether i is in the set.
func (s Set) Has(i domain.Intent) bool {
	_, ok := s[i]
	return ok
}

// Ordered returns the members in priority order.
func (s Set) Ordered() []domain.Intent {
	out := make([]domain.Intent, 0, len(s))
	for _, i := range priority {
		if s.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// Priority returns the fixed intent priority order.
func Priority() []domain.Intent {
	return append([]domain.Intent(nil), priority...)
}

// ResolvePrimary returns the highest-priority member of s, or GENERAL for an empty set.
func ResolvePrimary(s Set) domain.Intent {
	for _, i := range priority {
		if s.Has(i) {
			return i
		}
	}
	return domain.IntentGeneral
}

// Classifier matches messages against the trigger tables.
// It is immutable after construction and safe for concurrent use.
type Classifier struct {
	profanity *profanity.Matcher
	triggers  []trigger
}

// NewClassifier creates a classifier. A nil matcher uses the built-in lexicon.
func NewClassifier(m *profanity.Matcher) *Classifier {
	if m == nil {
		m = profanity.NewMatcher()
	}
	c := &Classifier{profanity: m}
	// Triggers go through the same expansion as messages so "tô insatisfeito" still matches.
	for _, t := range triggers {
		c.triggers = append(c.triggers, trigger{
			intent:  t.intent,
			words:   normalizeAll(t.words),
			phrases: normalizeAll(t.phrases),
		})
	}
	return c
}

// Classify returns every intent expressed by message or by its extracted keywords.
// The result is never empty.
func (c *Classifier) Classify(keywords []string, message string) Set {
	return c.ClassifyWithProfanity(keywords, message, c.profanity.Classify(message))
}

// ClassifyWithProfanity is Classify with a profanity verdict already computed for message.
func (c *Classifier) ClassifyWithProfanity(keywords []string, message string, verdict profanity.Result) Set {
	if verdict.Level.IsAbusive() {
		return NewSet(domain.IntentAbusive)
	}

	text := Normalize(message)
	set := make(Set)
	for _, t := range c.triggers {
		if containsAny(text, t.words) || containsAny(text, t.phrases) {
			set[t.intent] = struct{}{}
		}
	}
	for _, k := range keywords {
		if i, ok := keywordIntents[k]; ok {
			set[i] = struct{}{}
		}
	}

	if len(set) == 0 {
		return NewSet(domain.IntentGeneral)
	}
	return set
}

// Normalize lowercases message and expands informal contractions word by word.
func Normalize(message string) string {
	text := cases.Lower(language.BrazilianPortuguese).String(norm.NFC.String(message))
	text = wordRe.ReplaceAllStringFunc(text, func(w string) string {
		if full, ok := contractions[w]; ok {
			return full
		}
		return w
	})
	return meVeRe.ReplaceAllString(text, "me vê")
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = Normalize(s)
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
