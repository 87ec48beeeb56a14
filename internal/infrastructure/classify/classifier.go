// Package classify implements hybrid document classification: fast keyword
// scoring with an optional zero-shot model behind it.
package classify

import (
	"context"
	"log/slog"
	"strings"

	"github.com/solvify/docpipe/internal/core/domain"
)

const (
	// keywordFastPath short-circuits before the model when keyword evidence
	// alone is strong enough.
	keywordFastPath = 0.8
	// modelThreshold is the minimum accepted zero-shot score.
	modelThreshold = 0.5
	// keywordFallback applies when the model is unavailable or errored.
	keywordFallback = 0.4
	// maxModelChars bounds the text handed to the model. Character count is
	// a proxy for the model token limit, not an exact budget.
	maxModelChars = 1000
)

// ZeroShotScorer scores text against the candidate label set without
// label-specific training.
type ZeroShotScorer interface {
	Score(ctx context.Context, text string, labels []domain.DocumentClass) (map[domain.DocumentClass]float64, error)
}

type Classifier struct {
	rules    []Rule
	zeroShot ZeroShotScorer
	logger   *slog.Logger
}

// New builds a classifier over the given rule set. zeroShot may be nil, in
// which case classification is keyword-only.
func New(rules []Rule, zeroShot ZeroShotScorer, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{rules: rules, zeroShot: zeroShot, logger: logger}
}

// Classify resolves text to a class. It always returns a member of the
// candidate set or Unclassifiable and never returns an error: model failure
// degrades to the keyword fallback.
func (c *Classifier) Classify(ctx context.Context, text string) domain.DocumentClass {
	if strings.TrimSpace(text) == "" {
		return domain.ClassUnclassifiable
	}

	scores := c.keywordScores(text)
	topClass, topScore := bestScore(scores)
	if topScore > keywordFastPath {
		c.logger.Debug("classified_by_keywords", "class", topClass, "score", topScore)
		return topClass
	}

	if c.zeroShot != nil {
		if class, ok := c.classifyByModel(ctx, text); ok {
			return class
		}
	}

	if topScore > keywordFallback {
		return topClass
	}
	return domain.ClassUnclassifiable
}

func (c *Classifier) classifyByModel(ctx context.Context, text string) (domain.DocumentClass, bool) {
	modelScores, err := c.zeroShot.Score(ctx, truncateRunes(text, maxModelChars), domain.CandidateClasses)
	if err != nil {
		c.logger.Warn("zero_shot_failed", "error", err)
		return "", false
	}
	topClass, topScore := bestScore(modelScores)
	if topScore >= modelThreshold {
		c.logger.Debug("classified_by_model", "class", topClass, "score", topScore)
		return topClass, true
	}
	return domain.ClassUnclassifiable, true
}

func (c *Classifier) keywordScores(text string) map[domain.DocumentClass]float64 {
	lowered := strings.ToLower(text)
	scores := make(map[domain.DocumentClass]float64, len(domain.CandidateClasses))
	for _, class := range domain.CandidateClasses {
		scores[class] = 0
	}
	for i := range c.rules {
		if c.rules[i].matches(lowered) {
			scores[c.rules[i].Class] += c.rules[i].Weight
		}
	}
	return scores
}

// bestScore walks the fixed priority order so equal scores always resolve to
// the same class regardless of map iteration order.
func bestScore(scores map[domain.DocumentClass]float64) (domain.DocumentClass, float64) {
	best := domain.CandidateClasses[0]
	bestScore := scores[best]
	for _, class := range domain.CandidateClasses[1:] {
		if scores[class] > bestScore {
			best = class
			bestScore = scores[class]
		}
	}
	return best, bestScore
}

func containsKeyword(lowered, keyword string) bool {
	return strings.Contains(lowered, keyword)
}

func truncateRunes(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
