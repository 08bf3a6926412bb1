package classifier

import (
	"fmt"
	"math"
	"sort"
)

// FeatureWeight is one vocabulary term with its per-class log
// probability.
type FeatureWeight struct {
	Feature string  `json:"feature"`
	LogProb float64 `json:"log_prob"`
}

// ClassAnalysis summarizes one class of a fitted model.
type ClassAnalysis struct {
	Prior       float64         `json:"prior"`
	TopFeatures []FeatureWeight `json:"top_features"`
}

// Analysis is the introspection report served by the analyze endpoint.
type Analysis struct {
	VocabularySize int                      `json:"vocabulary_size"`
	ClassCount     int                      `json:"class_count"`
	NgramRange     [2]int                   `json:"ngram_range"`
	Classes        map[string]ClassAnalysis `json:"classes"`
}

// Analyze builds a report over a fitted classifier and its encoder,
// listing the topK highest-probability features per class.
func Analyze(nb *MultinomialNB, enc *TFIDFEncoder, topK int) (*Analysis, error) {
	if err := nb.Validate(); err != nil {
		return nil, fmt.Errorf("analyze classifier: %w", err)
	}
	if err := enc.Validate(); err != nil {
		return nil, fmt.Errorf("analyze vectorizer: %w", err)
	}
	if topK <= 0 {
		topK = 10
	}

	// Invert the vocabulary so feature indices resolve to terms. The
	// classifier may have been trained behind a selector, in which case
	// indices no longer line up; fall back to positional names.
	terms := make([]string, len(enc.IDF))
	for term, idx := range enc.Vocabulary {
		terms[idx] = term
	}
	featureName := func(idx int) string {
		if idx < len(terms) && terms[idx] != "" && len(nb.FeatureLogProb[0]) == len(terms) {
			return terms[idx]
		}
		return fmt.Sprintf("feature_%d", idx)
	}

	report := &Analysis{
		VocabularySize: len(enc.Vocabulary),
		ClassCount:     len(nb.ClassLabels),
		NgramRange:     [2]int{enc.NgramMin, enc.NgramMax},
		Classes:        make(map[string]ClassAnalysis, len(nb.ClassLabels)),
	}

	for c, label := range nb.ClassLabels {
		row := nb.FeatureLogProb[c]
		idxs := make([]int, len(row))
		for i := range idxs {
			idxs[i] = i
		}
		sort.Slice(idxs, func(a, b int) bool { return row[idxs[a]] > row[idxs[b]] })

		k := topK
		if k > len(idxs) {
			k = len(idxs)
		}
		top := make([]FeatureWeight, k)
		for i := 0; i < k; i++ {
			top[i] = FeatureWeight{Feature: featureName(idxs[i]), LogProb: row[idxs[i]]}
		}

		report.Classes[label] = ClassAnalysis{
			Prior:       math.Exp(nb.ClassLogPrior[c]),
			TopFeatures: top,
		}
	}
	return report, nil
}
