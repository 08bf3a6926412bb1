// Package engine computes boosted-posterior predictions: the bundle
// classifier's distribution adjusted by a keyword-match overlay and
// renormalized. The overlay is a pure function of (bundle, title) — no
// mutation, safe to call concurrently without locking.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
	"github.com/siakad-labs/kbk-classifier/internal/textnorm"
)

// ErrInference marks an internal-consistency violation during the
// boost overlay (a degenerate all-zero distribution). It is not
// user-recoverable.
var ErrInference = errors.New("inference failed")

// DefaultBoostFactor weights keyword-match evidence in the overlay.
// Tuned empirically on the production corpus; override via config, not
// by editing this constant.
const DefaultBoostFactor = 0.30

// Engine applies the keyword-boost overlay over a bundle's posterior.
type Engine struct {
	lexicon     Lexicon
	rules       []BoostRule
	boostFactor float64
}

// New creates an engine. A nil lexicon falls back to the built-in one;
// a negative boost factor falls back to DefaultBoostFactor. Zero is a
// valid factor that disables the keyword overlay.
func New(lexicon Lexicon, rules []BoostRule, boostFactor float64) *Engine {
	if lexicon == nil {
		lexicon = DefaultLexicon()
		if rules == nil {
			rules = DefaultBoostRules()
		}
	}
	if boostFactor < 0 {
		boostFactor = DefaultBoostFactor
	}
	return &Engine{lexicon: lexicon, rules: rules, boostFactor: boostFactor}
}

// Predict classifies a raw title with the given bundle.
//
// The title is normalized once; keyword matching runs on the same
// normalized form the encoder sees, never on re-normalized output.
func (e *Engine) Predict(bundle *domain.Bundle, rawTitle string) (*domain.Prediction, error) {
	normalized := textnorm.Normalize(rawTitle)

	encoded := bundle.Encoder.Encode(normalized)
	if bundle.Selector != nil {
		encoded = bundle.Selector.Select(encoded)
	}

	base, err := bundle.Classifier.PredictProba(encoded)
	if err != nil {
		return nil, fmt.Errorf("classifier posterior: %w", err)
	}
	classes := bundle.Classifier.Classes()
	if len(base) != len(classes) {
		return nil, fmt.Errorf("%w: classifier returned %d probabilities for %d classes", ErrInference, len(base), len(classes))
	}

	boosted := make([]float64, len(classes))
	var sum float64
	for i, class := range classes {
		k := countOccurrences(normalized, e.lexicon[class])
		b := base[i] * (1 + float64(k)*e.boostFactor) * e.auxiliaryBoost(class, normalized)
		boosted[i] = b
		sum += b
	}
	if sum == 0 {
		// The classifier contract forbids an all-zero base distribution,
		// so this is a fatal internal-consistency violation.
		return nil, fmt.Errorf("%w: boosted distribution sums to zero", ErrInference)
	}

	distribution := make(map[string]float64, len(classes))
	best := 0
	for i, class := range classes {
		boosted[i] /= sum
		distribution[class] = boosted[i]
		// Ties resolve to the first class in canonical order.
		if boosted[i] > boosted[best] {
			best = i
		}
	}

	return &domain.Prediction{
		Title:         rawTitle,
		Predicted:     classes[best],
		Probabilities: distribution,
		ModelVersion:  bundle.Version.String(),
	}, nil
}

// auxiliaryBoost returns the multiplicative boost for a class from its
// configured sub-lexicon rules; 1.0 for classes without a rule.
func (e *Engine) auxiliaryBoost(class, normalized string) float64 {
	boost := 1.0
	for _, rule := range e.rules {
		if rule.Class != class {
			continue
		}
		hits := countOccurrences(normalized, rule.Tools) +
			countOccurrences(normalized, rule.Techniques) +
			countOccurrences(normalized, rule.Concepts)
		boost *= rule.multiplier(hits)
	}
	return boost
}

// countOccurrences counts phrase occurrences in text, allowing
// overlapping matches.
func countOccurrences(text string, phrases []string) int {
	total := 0
	for _, phrase := range phrases {
		if phrase == "" {
			continue
		}
		for from := 0; ; {
			i := strings.Index(text[from:], phrase)
			if i < 0 {
				break
			}
			total++
			from += i + 1
		}
	}
	return total
}
