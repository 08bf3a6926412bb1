package engine

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/siakad-labs/kbk-classifier/internal/domain"
)

// stubClassifier returns a fixed base distribution regardless of input.
type stubClassifier struct {
	classes []string
	probs   []float64
}

func (s *stubClassifier) Classes() []string { return s.classes }

func (s *stubClassifier) PredictProba(encoded []float64) ([]float64, error) {
	out := make([]float64, len(s.probs))
	copy(out, s.probs)
	return out, nil
}

// stubEncoder produces a constant vector; the engine only needs the
// call to succeed.
type stubEncoder struct{}

func (stubEncoder) Encode(text string) []float64 { return []float64{1} }

func uniformBundle(classes ...string) *domain.Bundle {
	probs := make([]float64, len(classes))
	for i := range probs {
		probs[i] = 1.0 / float64(len(classes))
	}
	return &domain.Bundle{
		Version:    domain.Version{Major: 1},
		Classifier: &stubClassifier{classes: classes, probs: probs},
		Encoder:    stubEncoder{},
	}
}

func TestPredictDistributionSumsToOne(t *testing.T) {
	eng := New(nil, nil, DefaultBoostFactor)
	bundle := uniformBundle("AI / Machine Learning", "Jaringan", "Animasi", "Software")

	pred, err := eng.Predict(bundle, "Sistem Klasifikasi Naive Bayes untuk prediksi judul berbasis web")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	var sum float64
	for _, p := range pred.Probabilities {
		if p < 0 {
			t.Errorf("Negative probability %f", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("Boosted distribution sums to %f, want 1", sum)
	}
	if pred.ModelVersion != "1.0.0" {
		t.Errorf("Expected model version 1.0.0, got %s", pred.ModelVersion)
	}
}

func TestPredictKeywordBoostWins(t *testing.T) {
	eng := New(nil, nil, DefaultBoostFactor)
	bundle := uniformBundle("AI / Machine Learning", "Jaringan", "Animasi", "Software")

	// With a uniform base, the class with the most lexicon hits must
	// win. "naive bayes", "klasifikasi" and "prediksi" all belong to
	// the ML lexicon.
	pred, err := eng.Predict(bundle, "sistem klasifikasi naive bayes untuk prediksi")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Predicted != "AI / Machine Learning" {
		t.Errorf("Expected AI / Machine Learning, got %s (%v)", pred.Predicted, pred.Probabilities)
	}

	pred, err = eng.Predict(bundle, "monitoring jaringan dengan mikrotik dan router")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Predicted != "Jaringan" {
		t.Errorf("Expected Jaringan, got %s (%v)", pred.Predicted, pred.Probabilities)
	}
}

func TestPredictBoostMonotonic(t *testing.T) {
	eng := New(nil, nil, DefaultBoostFactor)
	bundle := uniformBundle("AI / Machine Learning", "Jaringan", "Animasi", "Software")

	one, err := eng.Predict(bundle, "studi tentang jaringan kampus")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	two, err := eng.Predict(bundle, "studi tentang jaringan dan keamanan jaringan kampus")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if two.Probabilities["Jaringan"] <= one.Probabilities["Jaringan"] {
		t.Errorf("More keyword hits did not raise the class probability: %f vs %f",
			two.Probabilities["Jaringan"], one.Probabilities["Jaringan"])
	}
}

func TestPredictAuxiliaryBoost(t *testing.T) {
	// Base distribution slightly against Animasi; two sub-lexicon hits
	// (unity + augmented reality) trigger the strong multiplier and must
	// flip the outcome.
	bundle := &domain.Bundle{
		Version: domain.Version{Major: 1},
		Classifier: &stubClassifier{
			classes: []string{"Animasi", "Software"},
			probs:   []float64{0.40, 0.60},
		},
		Encoder: stubEncoder{},
	}
	// Empty lexicon isolates the auxiliary rule from the keyword overlay.
	lex := Lexicon{"Animasi": nil, "Software": nil}
	eng := New(lex, DefaultBoostRules(), DefaultBoostFactor)

	pred, err := eng.Predict(bundle, "pengembangan unity untuk augmented reality")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Predicted != "Animasi" {
		t.Errorf("Expected strong auxiliary boost to flip to Animasi, got %s (%v)", pred.Predicted, pred.Probabilities)
	}
	// 0.40 * 1.9 = 0.76 vs 0.60: normalized Animasi share.
	want := 0.76 / (0.76 + 0.60)
	if math.Abs(pred.Probabilities["Animasi"]-want) > 1e-9 {
		t.Errorf("Animasi probability %f, want %f", pred.Probabilities["Animasi"], want)
	}

	// A single hit applies the moderate multiplier only: 0.40*1.4=0.56,
	// not enough to flip.
	pred, err = eng.Predict(bundle, "pengembangan aplikasi dengan unity")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Predicted != "Software" {
		t.Errorf("Moderate boost must not flip: got %s (%v)", pred.Predicted, pred.Probabilities)
	}
}

func TestPredictZeroBoostFactor(t *testing.T) {
	// A configured factor of zero turns the keyword overlay off: the
	// boosted distribution equals the base posterior even with lexicon
	// hits on the losing class.
	bundle := &domain.Bundle{
		Version: domain.Version{Major: 1},
		Classifier: &stubClassifier{
			classes: []string{"Jaringan", "Software"},
			probs:   []float64{0.40, 0.60},
		},
		Encoder: stubEncoder{},
	}
	eng := New(DefaultLexicon(), nil, 0)

	pred, err := eng.Predict(bundle, "monitoring jaringan dengan mikrotik dan router")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Predicted != "Software" {
		t.Errorf("Zero factor must leave the base winner, got %s (%v)", pred.Predicted, pred.Probabilities)
	}
	if math.Abs(pred.Probabilities["Jaringan"]-0.40) > 1e-9 {
		t.Errorf("P(Jaringan) = %f, want base 0.40", pred.Probabilities["Jaringan"])
	}

	// A negative factor is unset and falls back to the default.
	if eng := New(DefaultLexicon(), nil, -1); eng.boostFactor != DefaultBoostFactor {
		t.Errorf("Negative factor: got %f, want DefaultBoostFactor", eng.boostFactor)
	}
}

func TestPredictTieBreaksToFirstClass(t *testing.T) {
	bundle := uniformBundle("Alpha", "Beta", "Gamma")
	// No lexicon hits possible, so the boosted distribution stays
	// uniform and ties resolve to canonical order.
	eng := New(Lexicon{}, nil, DefaultBoostFactor)

	pred, err := eng.Predict(bundle, "judul tanpa kata kunci")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}
	if pred.Predicted != "Alpha" {
		t.Errorf("Expected tie to resolve to first class, got %s", pred.Predicted)
	}
}

func TestPredictZeroDistribution(t *testing.T) {
	bundle := &domain.Bundle{
		Version:    domain.Version{Major: 1},
		Classifier: &stubClassifier{classes: []string{"A", "B"}, probs: []float64{0, 0}},
		Encoder:    stubEncoder{},
	}
	eng := New(Lexicon{}, nil, DefaultBoostFactor)

	if _, err := eng.Predict(bundle, "judul"); !errors.Is(err, ErrInference) {
		t.Errorf("Expected ErrInference for all-zero base distribution, got %v", err)
	}
}

func TestCountOccurrences(t *testing.T) {
	tests := []struct {
		text    string
		phrases []string
		want    int
	}{
		{"jaringan komputer jaringan", []string{"jaringan"}, 2},
		{"augmented reality markerless", []string{"augmented reality", "markerless"}, 2},
		{"aaa", []string{"aa"}, 2}, // overlapping matches count
		{"tanpa kecocokan", []string{"jaringan"}, 0},
		{"apapun", []string{""}, 0},
	}
	for _, tt := range tests {
		if got := countOccurrences(tt.text, tt.phrases); got != tt.want {
			t.Errorf("countOccurrences(%q, %v) = %d, want %d", tt.text, tt.phrases, got, tt.want)
		}
	}
}

func TestLoadLexiconFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	content := `
keywords:
  Jaringan: ["Jaringan", " MIKROTIK "]
  Software: ["web"]
boost_rules:
  - class: Jaringan
    tools: ["Mikrotik"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write lexicon file: %v", err)
	}

	lex, rules, err := LoadLexiconFile(path)
	if err != nil {
		t.Fatalf("LoadLexiconFile failed: %v", err)
	}
	if got := lex["Jaringan"]; len(got) != 2 || got[0] != "jaringan" || got[1] != "mikrotik" {
		t.Errorf("Phrases not lowercased/trimmed: %v", got)
	}
	if len(rules) != 1 {
		t.Fatalf("Expected 1 boost rule, got %d", len(rules))
	}
	if rules[0].Strong != 1.9 || rules[0].Moderate != 1.4 {
		t.Errorf("Expected default multipliers 1.9/1.4, got %f/%f", rules[0].Strong, rules[0].Moderate)
	}
	if rules[0].Tools[0] != "mikrotik" {
		t.Errorf("Rule phrases not lowercased: %v", rules[0].Tools)
	}
}

func TestLoadLexiconFileRejectsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("boost_rules: []\n"), 0o644); err != nil {
		t.Fatalf("write lexicon file: %v", err)
	}
	if _, _, err := LoadLexiconFile(path); err == nil {
		t.Error("Expected error for lexicon file without keywords")
	}

	if _, _, err := LoadLexiconFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for missing lexicon file")
	}
}
