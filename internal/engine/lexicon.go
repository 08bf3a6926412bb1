package engine

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lexicon maps a class label to its lowercase phrase triggers. Loaded
// once at startup, read-only at inference time.
type Lexicon map[string][]string

// BoostRule applies an extra multiplicative boost to one class based on
// hits across weighted sub-lexicons. Historically hard-coded for the
// Animasi class; kept data-driven so new hard classes are configuration,
// not code.
type BoostRule struct {
	Class      string   `yaml:"class"`
	Tools      []string `yaml:"tools"`
	Techniques []string `yaml:"techniques"`
	Concepts   []string `yaml:"concepts"`

	// Strong applies when the summed sub-lexicon hit count is at least
	// two, Moderate when it is exactly one.
	Strong   float64 `yaml:"strong"`
	Moderate float64 `yaml:"moderate"`
}

// multiplier returns the boost for a given sub-lexicon hit count.
func (r BoostRule) multiplier(hits int) float64 {
	switch {
	case hits >= 2:
		return r.Strong
	case hits == 1:
		return r.Moderate
	default:
		return 1.0
	}
}

// lexiconFile is the on-disk YAML shape for lexicon overrides.
type lexiconFile struct {
	Keywords   map[string][]string `yaml:"keywords"`
	BoostRules []BoostRule         `yaml:"boost_rules"`
}

// LoadLexiconFile reads a lexicon and boost rules from a YAML file.
// Phrases are lowercased so matching against normalized titles works
// regardless of how the file was authored.
func LoadLexiconFile(path string) (Lexicon, []BoostRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read lexicon file: %w", err)
	}

	var f lexiconFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("parse lexicon file: %w", err)
	}
	if len(f.Keywords) == 0 {
		return nil, nil, fmt.Errorf("lexicon file %s has no keywords", path)
	}

	lex := make(Lexicon, len(f.Keywords))
	for class, phrases := range f.Keywords {
		lowered := make([]string, len(phrases))
		for i, p := range phrases {
			lowered[i] = strings.ToLower(strings.TrimSpace(p))
		}
		lex[class] = lowered
	}
	for i := range f.BoostRules {
		r := &f.BoostRules[i]
		r.Tools = lowerAll(r.Tools)
		r.Techniques = lowerAll(r.Techniques)
		r.Concepts = lowerAll(r.Concepts)
		if r.Strong == 0 {
			r.Strong = 1.9
		}
		if r.Moderate == 0 {
			r.Moderate = 1.4
		}
	}
	return lex, f.BoostRules, nil
}

func lowerAll(phrases []string) []string {
	out := make([]string, len(phrases))
	for i, p := range phrases {
		out[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return out
}

// DefaultLexicon is the built-in phrase lexicon for the four KBK
// classes, used when no lexicon file is configured.
func DefaultLexicon() Lexicon {
	return Lexicon{
		"AI / Machine Learning": {
			"naive bayes", "machine learning", "neural", "prediksi", "klasifikasi",
			"algoritma", "knn", "decision", "clustering", "data mining",
			"deep learning", "ai", "saw", "ahp", "smart", "topsis", "spk",
			"keputusan", "rekomendasi",
		},
		"Jaringan": {
			"jaringan", "network", "server", "mikrotik", "router", "firewall",
			"monitoring", "iot", "sensor", "esp", "nodemcu", "mqtt", "wireless",
			"wifi", "keamanan jaringan",
		},
		"Animasi": {
			"augmented reality", "virtual reality", "ar", "vr", "3d", "animasi",
			"visualisasi", "ui ux", "design", "markerless", "unity", "blender",
			"interaktif", "media pembelajaran",
		},
		"Software": {
			"android", "mobile", "web", "api", "rest", "cloud", "aws", "docker",
			"laravel", "react", "flutter", "codeigniter", "framework", "database",
			"crud", "aplikasi",
		},
	}
}

// DefaultBoostRules carry the auxiliary boost for the historically
// under-predicted Animasi class: creative tool names, AR/VR technique
// names, and visual concept terms.
func DefaultBoostRules() []BoostRule {
	return []BoostRule{
		{
			Class:      "Animasi",
			Tools:      []string{"unity", "blender", "unreal", "maya", "vuforia"},
			Techniques: []string{"markerless", "marker based", "motion capture", "rigging", "rendering"},
			Concepts:   []string{"augmented reality", "virtual reality", "animasi 3d", "media interaktif", "visualisasi 3d"},
			Strong:     1.9,
			Moderate:   1.4,
		},
	}
}
