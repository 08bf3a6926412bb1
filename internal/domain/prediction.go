package domain

import "time"

// Prediction is the result of one boosted inference over a title.
type Prediction struct {
	Title         string             `json:"title"`
	Predicted     string             `json:"predicted_class"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"model_version"`
}

// HistoryRecord is one past prediction kept in a session's history.
// Records expire after the configured retention window or when evicted
// by the per-session size cap.
type HistoryRecord struct {
	ID            string             `json:"id"`
	Timestamp     time.Time          `json:"timestamp"`
	Title         string             `json:"title"`
	Predicted     string             `json:"predicted_class"`
	Probabilities map[string]float64 `json:"probabilities"`
	ModelVersion  string             `json:"model_version"`
}
