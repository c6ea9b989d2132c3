// Package sentiment scores Portuguese chat messages as positive, negative or
// neutral from word, idiom, emoji, punctuation and casing signals.
package sentiment

import (
	"math"
	"regexp"
	"strings"
	"unicode"

	"github.com/ashureev/chatengine/internal/domain"
	"github.com/forPelevin/gomoji"
)

// Weights scale each signal before summing.
type Weights struct {
	Word           float64
	Idiom          float64
	Emoji          float64
	Punctuation    float64
	Capitalization float64
	Polarity       float64
}

// DefaultWeights returns the weights used by NewScorer.
func DefaultWeights() Weights {
	return Weights{
		Word:           1.0,
		Idiom:          2.0,
		Emoji:          1.5,
		Punctuation:    0.8,
		Capitalization: 0.5,
		Polarity:       2.0,
	}
}

const (
	labelThreshold     = 0.8
	intensityThreshold = 1.5
	polarityScale      = 2.5
	capsRatio          = 0.5
	negationFactor     = -0.5
	// Plain tokens allowed between a modifier and the word it modifies.
	modifierGap = 1
)

var (
	tokenRe       = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	repeatedPunct = regexp.MustCompile(`[!?.]{2,}`)
)

// Breakdown is the weighted contribution of each signal.
type Breakdown struct {
	Words          float64 `json:"words"`
	Idioms         float64 `json:"idioms"`
	Emojis         float64 `json:"emojis"`
	Punctuation    float64 `json:"punctuation"`
	Capitalization float64 `json:"capitalization"`
	Polarity       float64 `json:"polarity"`
	Total          float64 `json:"total"`
	Positive       int     `json:"positive_words"`
	Negative       int     `json:"negative_words"`
}

// Scorer is stateless and safe for concurrent use.
type Scorer struct {
	weights Weights
	idioms  []idiom
}

type idiom struct {
	tokens []string
	value  float64
}

// NewScorer returns a scorer with the default weights.
func NewScorer() *Scorer {
	return NewScorerWithWeights(DefaultWeights())
}

// NewScorerWithWeights returns a scorer with custom weights.
func NewScorerWithWeights(w Weights) *Scorer {
	s := &Scorer{weights: w}
	for text, v := range idioms {
		s.idioms = append(s.idioms, idiom{tokens: tokenize(text), value: v})
	}
	return s
}

// Detect labels message. It returns false for empty input.
func (s *Scorer) Detect(message string) (domain.Sentiment, bool) {
	if strings.TrimSpace(message) == "" {
		return "", false
	}
	b := s.Score(message)
	switch {
	case b.Total >= labelThreshold:
		return domain.SentimentPositive, true
	case b.Total <= -labelThreshold:
		return domain.SentimentNegative, true
	case b.Positive > b.Negative:
		return domain.SentimentPositive, true
	case b.Negative > b.Positive:
		return domain.SentimentNegative, true
	default:
		return domain.SentimentNeutral, true
	}
}

// ScoreWithIntensity labels only strongly polarized messages and returns the
// absolute score alongside. Weaker messages yield false and zero.
func (s *Scorer) ScoreWithIntensity(message string) (domain.Sentiment, bool, float64) {
	if strings.TrimSpace(message) == "" {
		return "", false, 0
	}
	total := s.Score(message).Total
	switch {
	case total >= intensityThreshold:
		return domain.SentimentPositive, true, total
	case total <= -intensityThreshold:
		return domain.SentimentNegative, true, -total
	default:
		return "", false, 0
	}
}

// Score computes the weighted signal breakdown of message.
func (s *Scorer) Score(message string) Breakdown {
	var b Breakdown
	b.Emojis = emojiScore(message) * s.weights.Emoji

	text := gomoji.RemoveEmojis(message)
	tokens := mergeAttenuators(tokenize(text))

	var words float64
	words, b.Positive, b.Negative = wordScore(tokens)
	b.Words = words * s.weights.Word
	b.Idioms = s.idiomScore(tokens) * s.weights.Idiom
	b.Punctuation = punctuationScore(text) * s.weights.Punctuation
	b.Capitalization = capsScore(text) * s.weights.Capitalization
	b.Polarity = polarityScore(tokens) * s.weights.Polarity

	b.Total = b.Words + b.Idioms + b.Emojis + b.Punctuation + b.Capitalization + b.Polarity
	return b
}

func tokenize(text string) []string {
	return tokenRe.FindAllString(strings.ToLower(text), -1)
}

// mergeAttenuators joins multi-word attenuators such as "mais ou menos" into one token.
func mergeAttenuators(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for i := 0; i < len(tokens); i++ {
		merged := false
		for n := 3; n >= 2; n-- {
			if i+n > len(tokens) {
				continue
			}
			joined := strings.Join(tokens[i:i+n], " ")
			if _, ok := attenuators[joined]; ok {
				out = append(out, joined)
				i += n - 1
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, tokens[i])
		}
	}
	return out
}

func isSentimentWord(t string) bool {
	if positiveWords[t] || negativeWords[t] {
		return true
	}
	_, ok := polarity[t]
	return ok
}

func modifierValue(t string) (float64, bool) {
	if v, ok := intensifiers[t]; ok {
		return v, true
	}
	v, ok := attenuators[t]
	return v, ok
}

// multiplier walks back from tokens[i] collecting modifiers. Modifiers do not
// count against the gap, and any sentiment word ends the walk, so each
// modifier belongs to the nearest sentiment word after it.
func multiplier(tokens []string, i int) float64 {
	mult := 1.0
	gap := 0
	for j := i - 1; j >= 0; j-- {
		t := tokens[j]
		if isSentimentWord(t) {
			break
		}
		if m, ok := modifierValue(t); ok {
			mult *= m
			continue
		}
		gap++
		if gap > modifierGap {
			break
		}
	}
	return mult
}

func wordScore(tokens []string) (score float64, pos, neg int) {
	for i, t := range tokens {
		switch {
		case positiveWords[t]:
			score += multiplier(tokens, i)
			pos++
		case negativeWords[t]:
			score -= multiplier(tokens, i)
			neg++
		}
	}
	return score, pos, neg
}

func (s *Scorer) idiomScore(tokens []string) float64 {
	var score float64
	for _, id := range s.idioms {
		if containsSequence(tokens, id.tokens) {
			score += id.value
		}
	}
	return score
}

// containsSequence matches seq in tokens, tolerating intensifiers between its parts.
func containsSequence(tokens, seq []string) bool {
	if len(seq) == 0 {
		return false
	}
	for start := range tokens {
		if tokens[start] != seq[0] {
			continue
		}
		k, j := 1, start+1
		for k < len(seq) && j < len(tokens) {
			if tokens[j] == seq[k] {
				k++
				j++
				continue
			}
			if _, ok := intensifiers[tokens[j]]; !ok {
				break
			}
			j++
		}
		if k == len(seq) {
			return true
		}
	}
	return false
}

func emojiScore(message string) float64 {
	var score float64
	seen := make(map[string]bool)
	for _, e := range gomoji.FindAll(message) {
		if seen[e.Character] {
			continue
		}
		seen[e.Character] = true
		v, ok := emojiValence[e.Character]
		if !ok {
			v, ok = emojiValence[strings.TrimSuffix(e.Character, "\uFE0F")]
		}
		if !ok {
			continue
		}
		score += v * float64(strings.Count(message, e.Character))
	}
	return score
}

func punctuationScore(text string) float64 {
	var score float64
	for _, run := range repeatedPunct.FindAllString(text, -1) {
		switch {
		case strings.Contains(run, "!"):
			score -= 1.5
		case strings.Contains(run, "?"):
			score -= 0.5
		}
	}
	return score
}

func capsScore(text string) float64 {
	var letters, upper int
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if letters == 0 || float64(upper)/float64(letters) <= capsRatio {
		return 0
	}
	return -1.0
}

// polarityScore averages graded word polarity, scaled into the signal range.
func polarityScore(tokens []string) float64 {
	var sum float64
	var n int
	for i, t := range tokens {
		p, ok := polarity[t]
		if !ok {
			switch {
			case positiveWords[t]:
				p = defaultPolarity
			case negativeWords[t]:
				p = -defaultPolarity
			default:
				continue
			}
		}
		v := p * multiplier(tokens, i)
		if i > 0 && negations[tokens[i-1]] {
			v *= negationFactor
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	avg := math.Max(-1, math.Min(1, sum/float64(n)))
	return avg * polarityScale
}
