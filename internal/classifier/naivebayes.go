package classifier

import (
	"fmt"
	"math"
	"slices"
)

// MultinomialNB is a multinomial naive Bayes classifier over TF-IDF
// features with Lidstone smoothing. Immutable after fitting.
type MultinomialNB struct {
	ClassLabels    []string    `json:"classes"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	Alpha          float64     `json:"alpha"`
}

// Classes returns the canonical class ordering used by PredictProba.
func (m *MultinomialNB) Classes() []string {
	return slices.Clone(m.ClassLabels)
}

// PredictProba returns the posterior distribution over Classes() for an
// encoded input. The distribution is non-negative and sums to 1.
func (m *MultinomialNB) PredictProba(encoded []float64) ([]float64, error) {
	if len(m.FeatureLogProb) == 0 {
		return nil, fmt.Errorf("classifier is not fitted")
	}
	if len(encoded) != len(m.FeatureLogProb[0]) {
		return nil, fmt.Errorf("encoded input has %d features, classifier expects %d", len(encoded), len(m.FeatureLogProb[0]))
	}

	joint := make([]float64, len(m.ClassLabels))
	for c := range m.ClassLabels {
		ll := m.ClassLogPrior[c]
		flp := m.FeatureLogProb[c]
		for i, x := range encoded {
			if x != 0 {
				ll += x * flp[i]
			}
		}
		joint[c] = ll
	}

	// Stable softmax over the joint log-likelihoods.
	maxLL := joint[0]
	for _, ll := range joint[1:] {
		if ll > maxLL {
			maxLL = ll
		}
	}
	var sum float64
	probs := make([]float64, len(joint))
	for c, ll := range joint {
		p := math.Exp(ll - maxLL)
		probs[c] = p
		sum += p
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs, nil
}

// Validate checks structural integrity after deserialization.
func (m *MultinomialNB) Validate() error {
	if len(m.ClassLabels) == 0 {
		return fmt.Errorf("classifier has no classes")
	}
	if len(m.ClassLogPrior) != len(m.ClassLabels) {
		return fmt.Errorf("classifier has %d priors for %d classes", len(m.ClassLogPrior), len(m.ClassLabels))
	}
	if len(m.FeatureLogProb) != len(m.ClassLabels) {
		return fmt.Errorf("classifier has %d feature rows for %d classes", len(m.FeatureLogProb), len(m.ClassLabels))
	}
	width := len(m.FeatureLogProb[0])
	if width == 0 {
		return fmt.Errorf("classifier has no features")
	}
	for c, row := range m.FeatureLogProb {
		if len(row) != width {
			return fmt.Errorf("classifier feature row %d has length %d, want %d", c, len(row), width)
		}
	}
	return nil
}

// fitNB fits a multinomial NB on encoded vectors with the given labels.
// classes fixes the canonical ordering.
func fitNB(vectors [][]float64, labels []string, classes []string, alpha float64) *MultinomialNB {
	classIdx := make(map[string]int, len(classes))
	for i, c := range classes {
		classIdx[c] = i
	}

	width := 0
	if len(vectors) > 0 {
		width = len(vectors[0])
	}

	counts := make([][]float64, len(classes))
	for c := range counts {
		counts[c] = make([]float64, width)
	}
	classCounts := make([]float64, len(classes))

	for i, vec := range vectors {
		c := classIdx[labels[i]]
		classCounts[c]++
		for j, x := range vec {
			counts[c][j] += x
		}
	}

	m := &MultinomialNB{
		ClassLabels:    slices.Clone(classes),
		ClassLogPrior:  make([]float64, len(classes)),
		FeatureLogProb: make([][]float64, len(classes)),
		Alpha:          alpha,
	}
	total := float64(len(vectors))
	for c := range classes {
		// Classes absent from the sample keep a vanishing prior rather
		// than dividing by zero.
		prior := classCounts[c]
		if prior == 0 {
			prior = math.SmallestNonzeroFloat64
		}
		m.ClassLogPrior[c] = math.Log(prior / total)

		smoothed := make([]float64, width)
		var rowSum float64
		for j := range smoothed {
			smoothed[j] = counts[c][j] + alpha
			rowSum += smoothed[j]
		}
		row := make([]float64, width)
		for j := range row {
			row[j] = math.Log(smoothed[j]) - math.Log(rowSum)
		}
		m.FeatureLogProb[c] = row
	}
	return m
}
