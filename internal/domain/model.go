package domain

import "time"

// ModelMetadata describes one persisted model version.
type ModelMetadata struct {
	Version          string    `json:"version"`
	Name             string    `json:"name"`
	Description      string    `json:"description"`
	Accuracy         float64   `json:"accuracy"`
	CVAccuracy       float64   `json:"cv_accuracy"`
	OverfittingScore float64   `json:"overfitting_score"`
	SampleCount      int       `json:"sample_count"`
	CreatedAt        time.Time `json:"created_at"`
	ModelPath        string    `json:"model_path"`
}

// Classifier is the opaque trained classifier consumed by the inference
// engine. Classes returns the canonical class ordering; PredictProba
// returns a non-negative distribution over that ordering summing to 1.
type Classifier interface {
	Classes() []string
	PredictProba(encoded []float64) ([]float64, error)
}

// Encoder turns normalized text into the feature vector the classifier
// was trained on.
type Encoder interface {
	Encode(text string) []float64
}

// Selector optionally reduces an encoded vector to the feature subset
// the classifier was trained on.
type Selector interface {
	Select(encoded []float64) []float64
}

// Bundle pairs a classifier with its feature encoder and optional
// selector as one versioned unit. Bundles are immutable after
// construction; concurrent predictions share them without locking.
type Bundle struct {
	Version    Version
	Classifier Classifier
	Encoder    Encoder
	Selector   Selector // may be nil
}
