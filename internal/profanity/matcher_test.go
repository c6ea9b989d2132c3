package profanity

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestClassifyLevels(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	tests := []struct {
		name    string
		message string
		level   Level
		words   []string
	}{
		{name: "clean", message: "bom dia, tudo bem?", level: None},
		{name: "mild term", message: "putz, esqueci", level: Mild, words: []string{"putz"}},
		{name: "phrase and term keep max", message: "que merda", level: Moderate, words: []string{"merda", "que merda"}},
		{name: "severe phrase", message: "vai se foder", level: Severe, words: []string{"foder", "vai se foder"}},
		{name: "variant counts as base", message: "carai mano", level: Moderate, words: []string{"caralho"}},
		{name: "hate speech", message: "seu retardado", level: HateSpeech, words: []string{"retardado"}},
		{name: "leetspeak", message: "p0rr4", level: Moderate, words: []string{"porra"}},
		{name: "word boundary", message: "cuidado com o computador", level: None},
		{name: "uppercase", message: "PORRA", level: Moderate, words: []string{"porra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := m.Classify(tt.message)
			if got.Level != tt.level {
				t.Fatalf("Level = %v, want %v", got.Level, tt.level)
			}
			if got.ContainsProfanity != (tt.level != None) {
				t.Fatalf("ContainsProfanity = %v", got.ContainsProfanity)
			}
			if strings.Join(got.Words, ",") != strings.Join(tt.words, ",") {
				t.Errorf("Words = %v, want %v", got.Words, tt.words)
			}
		})
	}
}

func TestSanitizeKeepsCaseAndLength(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	got := m.Classify("Que PORRA é essa")
	if got.Sanitized != "********* é essa" {
		t.Fatalf("Sanitized = %q", got.Sanitized)
	}

	got = m.Classify("Isso é uma Merda, viu")
	if got.Sanitized != "Isso é uma *****, viu" {
		t.Fatalf("Sanitized = %q", got.Sanitized)
	}
}

func TestSanitizeIsIdempotent(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	messages := []string{
		"vai tomar no cu",
		"filho da puta!!",
		"que merda!cu",
		"escrotocu",
		"P0RRA de atendimento, carai",
		"foda-se essa bosta",
	}
	for _, msg := range messages {
		first := m.Classify(msg)
		if utf8.RuneCountInString(first.Sanitized) != utf8.RuneCountInString(msg) {
			t.Errorf("%q: sanitized length changed: %q", msg, first.Sanitized)
		}
		second := m.Classify(first.Sanitized)
		if second.ContainsProfanity {
			t.Errorf("%q: re-sanitizing found %v in %q", msg, second.Words, first.Sanitized)
		}
		if second.Sanitized != first.Sanitized {
			t.Errorf("%q: second pass changed text to %q", msg, second.Sanitized)
		}
	}
}

func TestExclamationInsideWord(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	if got := m.Classify("p!ranha"); got.Level != Severe {
		t.Fatalf("p!ranha level = %v, want SEVERE", got.Level)
	}
	if got := m.Classify("porra!"); got.Level != Moderate {
		t.Fatalf("trailing ! should not hide the term, level = %v", got.Level)
	}
}

func TestDecomposedAccentsMatch(t *testing.T) {
	t.Parallel()

	m := NewMatcher()
	got := m.Classify("seu ota\u0301rio")
	if got.Level != Moderate {
		t.Fatalf("Level = %v, want MODERATE", got.Level)
	}
	if got.Sanitized != "seu ******" {
		t.Fatalf("Sanitized = %q", got.Sanitized)
	}
}

func TestLevelIsAbusive(t *testing.T) {
	t.Parallel()

	for l, want := range map[Level]bool{None: false, Mild: false, Moderate: false, Severe: true, HateSpeech: true} {
		if l.IsAbusive() != want {
			t.Errorf("%v.IsAbusive() = %v", l, !want)
		}
	}
}
