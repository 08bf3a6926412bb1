package classifier

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"sort"
	"strings"

	"github.com/siakad-labs/kbk-classifier/internal/textnorm"
)

// ErrTrainingData marks source data that is missing required fields or
// too small to fit a model. Surfaced to callers as a bad request.
var ErrTrainingData = errors.New("training data invalid")

// Sample is one labeled training title.
type Sample struct {
	Title string
	Label string
}

// TrainOptions control vectorizer and classifier fitting. Zero values
// are replaced by DefaultTrainOptions.
type TrainOptions struct {
	MaxFeatures int
	MinDF       int
	MaxDFRatio  float64
	NgramMin    int
	NgramMax    int
	SublinearTF bool
	Alpha       float64
	CVFolds     int
	Seed        int64
}

// DefaultTrainOptions mirror the parameters the production model was
// tuned with on the ~160-title corpus.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		MaxFeatures: 500,
		MinDF:       2,
		MaxDFRatio:  0.8,
		NgramMin:    1,
		NgramMax:    3,
		SublinearTF: true,
		Alpha:       0.1,
		CVFolds:     5,
		Seed:        42,
	}
}

// TrainResult is a freshly fitted bundle plus its evaluation metrics.
type TrainResult struct {
	Classifier  *MultinomialNB
	Encoder     *TFIDFEncoder
	Accuracy    float64
	CVAccuracy  float64
	Overfitting float64
	SampleCount int
}

// Headers accepted for the title and label columns, in priority order.
var (
	titleHeaders = []string{"judul ta bersih", "judul", "title"}
	labelHeaders = []string{"kbk", "label", "class"}
)

// LoadTrainingCSV reads labeled samples from a CSV file. The header row
// must contain a title column and a label column; rows with an empty
// title or label are rejected rather than silently skipped.
func LoadTrainingCSV(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open training data: %w", err)
	}
	defer f.Close()
	return readTrainingCSV(f)
}

func readTrainingCSV(r io.Reader) ([]Sample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read header: %v", ErrTrainingData, err)
	}

	titleIdx := findColumn(header, titleHeaders)
	labelIdx := findColumn(header, labelHeaders)
	if titleIdx < 0 || labelIdx < 0 {
		return nil, fmt.Errorf("%w: header %v is missing a title or label column", ErrTrainingData, header)
	}

	var samples []Sample
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %v", ErrTrainingData, line, err)
		}
		if titleIdx >= len(row) || labelIdx >= len(row) {
			return nil, fmt.Errorf("%w: row %d has %d fields", ErrTrainingData, line, len(row))
		}
		title := strings.TrimSpace(row[titleIdx])
		label := strings.TrimSpace(row[labelIdx])
		if title == "" || label == "" {
			return nil, fmt.Errorf("%w: row %d has an empty title or label", ErrTrainingData, line)
		}
		samples = append(samples, Sample{Title: title, Label: label})
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrTrainingData)
	}
	return samples, nil
}

func findColumn(header []string, candidates []string) int {
	for _, want := range candidates {
		for i, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), want) {
				return i
			}
		}
	}
	return -1
}

// Train fits a TF-IDF encoder and naive Bayes classifier on the samples
// and evaluates them with k-fold cross validation.
func Train(samples []Sample, opts TrainOptions) (*TrainResult, error) {
	if opts.MaxFeatures == 0 {
		opts = DefaultTrainOptions()
	}
	if len(samples) < opts.CVFolds {
		return nil, fmt.Errorf("%w: need at least %d samples, got %d", ErrTrainingData, opts.CVFolds, len(samples))
	}

	titles := make([]string, len(samples))
	labels := make([]string, len(samples))
	classSet := make(map[string]struct{})
	for i, s := range samples {
		titles[i] = textnorm.Normalize(s.Title)
		labels[i] = s.Label
		classSet[s.Label] = struct{}{}
	}
	if len(classSet) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 classes, got %d", ErrTrainingData, len(classSet))
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Strings(classes)

	encoder := fitEncoder(titles, opts)
	// An empty vocabulary would fit and save fine but fail structural
	// validation on every load; reject the corpus instead.
	if len(encoder.Vocabulary) == 0 {
		return nil, fmt.Errorf("%w: no term meets the document-frequency thresholds", ErrTrainingData)
	}
	vectors := make([][]float64, len(titles))
	for i, t := range titles {
		vectors[i] = encoder.Encode(t)
	}

	nb := fitNB(vectors, labels, classes, opts.Alpha)
	accuracy := evaluate(nb, vectors, labels)
	cvAccuracy := crossValidate(vectors, labels, classes, opts)

	return &TrainResult{
		Classifier:  nb,
		Encoder:     encoder,
		Accuracy:    accuracy,
		CVAccuracy:  cvAccuracy,
		Overfitting: accuracy - cvAccuracy,
		SampleCount: len(samples),
	}, nil
}

// fitEncoder builds the TF-IDF vocabulary: n-grams filtered by document
// frequency, capped to the most frequent MaxFeatures terms.
func fitEncoder(titles []string, opts TrainOptions) *TFIDFEncoder {
	df := make(map[string]int)
	totalCount := make(map[string]int)
	for _, t := range titles {
		seen := make(map[string]struct{})
		for _, term := range ngrams(tokenize(t), opts.NgramMin, opts.NgramMax) {
			totalCount[term]++
			seen[term] = struct{}{}
		}
		for term := range seen {
			df[term]++
		}
	}

	nDocs := len(titles)
	maxDF := int(opts.MaxDFRatio * float64(nDocs))
	var terms []string
	for term, d := range df {
		if d >= opts.MinDF && d <= maxDF {
			terms = append(terms, term)
		}
	}
	// Most frequent terms first; ties broken alphabetically so fitting
	// is deterministic.
	sort.Slice(terms, func(i, j int) bool {
		if totalCount[terms[i]] != totalCount[terms[j]] {
			return totalCount[terms[i]] > totalCount[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > opts.MaxFeatures {
		terms = terms[:opts.MaxFeatures]
	}
	sort.Strings(terms)

	vocab := make(map[string]int, len(terms))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		vocab[term] = i
		idf[i] = math.Log(float64(1+nDocs)/float64(1+df[term])) + 1
	}

	return &TFIDFEncoder{
		Vocabulary:  vocab,
		IDF:         idf,
		NgramMin:    opts.NgramMin,
		NgramMax:    opts.NgramMax,
		SublinearTF: opts.SublinearTF,
	}
}

func evaluate(nb *MultinomialNB, vectors [][]float64, labels []string) float64 {
	if len(vectors) == 0 {
		return 0
	}
	classes := nb.Classes()
	correct := 0
	for i, vec := range vectors {
		probs, err := nb.PredictProba(vec)
		if err != nil {
			continue
		}
		best := 0
		for c := range probs {
			if probs[c] > probs[best] {
				best = c
			}
		}
		if classes[best] == labels[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(vectors))
}

// crossValidate reports mean k-fold accuracy with a deterministic
// shuffle.
func crossValidate(vectors [][]float64, labels []string, classes []string, opts TrainOptions) float64 {
	n := len(vectors)
	perm := rand.New(rand.NewSource(opts.Seed)).Perm(n)

	var total float64
	for fold := 0; fold < opts.CVFolds; fold++ {
		var trainVecs, testVecs [][]float64
		var trainLabels, testLabels []string
		for i, idx := range perm {
			if i%opts.CVFolds == fold {
				testVecs = append(testVecs, vectors[idx])
				testLabels = append(testLabels, labels[idx])
			} else {
				trainVecs = append(trainVecs, vectors[idx])
				trainLabels = append(trainLabels, labels[idx])
			}
		}
		nb := fitNB(trainVecs, trainLabels, classes, opts.Alpha)
		total += evaluate(nb, testVecs, testLabels)
	}
	return total / float64(opts.CVFolds)
}
