package engine

import (
	"github.com/ashureev/chatengine/internal/domain"
	"github.com/ashureev/chatengine/internal/intent"
	"github.com/ashureev/chatengine/internal/profanity"
	"github.com/ashureev/chatengine/internal/sentiment"
)

// Analysis is the classification of one message.
type Analysis struct {
	Keywords  []string         `json:"keywords" yaml:"keywords"`
	Intents   []domain.Intent  `json:"intents" yaml:"intents"`
	Primary   domain.Intent    `json:"main_intent" yaml:"main_intent"`
	Sentiment domain.Sentiment `json:"sentiment" yaml:"sentiment"`
	Score     float64          `json:"score" yaml:"score"`
	Profanity profanity.Result `json:"profanity" yaml:"profanity"`
	Sector    string           `json:"sector" yaml:"sector"`
}

// Analyzer runs the classification stages. Safe for concurrent use.
type Analyzer struct {
	matcher    *profanity.Matcher
	classifier *intent.Classifier
	scorer     *sentiment.Scorer
}

// NewAnalyzer builds the classifiers.
func NewAnalyzer() *Analyzer {
	m := profanity.NewMatcher()
	return &Analyzer{
		matcher:    m,
		classifier: intent.NewClassifier(m),
		scorer:     sentiment.NewScorer(),
	}
}

// Matcher returns the profanity matcher shared by the stages.
func (a *Analyzer) Matcher() *profanity.Matcher { return a.matcher }

// Analyze classifies message. A message with no sentiment signal is NEUTRAL.
func (a *Analyzer) Analyze(message string) Analysis {
	keywords := intent.ExtractKeywords(message)
	verdict := a.matcher.Classify(message)
	set := a.classifier.ClassifyWithProfanity(keywords, message, verdict)

	label, ok := a.scorer.Detect(message)
	if !ok {
		label = domain.SentimentNeutral
	}

	return Analysis{
		Keywords:  keywords,
		Intents:   set.Ordered(),
		Primary:   intent.ResolvePrimary(set),
		Sentiment: label,
		Score:     a.scorer.Score(message).Total,
		Profanity: verdict,
		Sector:    intent.Sector(keywords),
	}
}
