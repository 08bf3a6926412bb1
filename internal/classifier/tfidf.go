// Package classifier implements the trained bundle consumed by the
// inference engine: a TF-IDF feature encoder and a multinomial naive
// Bayes classifier, plus the training and analysis paths that produce
// them from a labeled title corpus.
package classifier

import (
	"fmt"
	"math"
	"strings"
)

// TFIDFEncoder maps normalized text onto a fixed-size TF-IDF feature
// vector. Immutable after fitting; Encode is safe for concurrent use.
type TFIDFEncoder struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	NgramMin    int            `json:"ngram_min"`
	NgramMax    int            `json:"ngram_max"`
	SublinearTF bool           `json:"sublinear_tf"`
}

// Encode produces the l2-normalized TF-IDF vector for text. Terms
// outside the fitted vocabulary are ignored.
func (e *TFIDFEncoder) Encode(text string) []float64 {
	vec := make([]float64, len(e.IDF))

	counts := make(map[int]float64)
	for _, term := range ngrams(tokenize(text), e.NgramMin, e.NgramMax) {
		if idx, ok := e.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		if e.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		v := tf * e.IDF[idx]
		vec[idx] = v
		norm += v * v
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			vec[idx] /= norm
		}
	}
	return vec
}

// Validate checks structural integrity after deserialization.
func (e *TFIDFEncoder) Validate() error {
	if len(e.Vocabulary) == 0 {
		return fmt.Errorf("vectorizer has empty vocabulary")
	}
	if len(e.IDF) != len(e.Vocabulary) {
		return fmt.Errorf("vectorizer idf length %d does not match vocabulary size %d", len(e.IDF), len(e.Vocabulary))
	}
	if e.NgramMin < 1 || e.NgramMax < e.NgramMin {
		return fmt.Errorf("vectorizer has invalid ngram range [%d, %d]", e.NgramMin, e.NgramMax)
	}
	for term, idx := range e.Vocabulary {
		if idx < 0 || idx >= len(e.IDF) {
			return fmt.Errorf("vectorizer vocabulary index %d for %q out of range", idx, term)
		}
	}
	return nil
}

func tokenize(text string) []string {
	return strings.Fields(text)
}

// ngrams expands tokens into space-joined n-grams for n in [nmin, nmax].
func ngrams(tokens []string, nmin, nmax int) []string {
	if nmin < 1 {
		nmin = 1
	}
	var out []string
	for n := nmin; n <= nmax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
