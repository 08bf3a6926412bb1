package classifier

import (
	"encoding/json"
	"fmt"
)

// DecodeClassifier deserializes a classifier part and verifies it is
// structurally complete.
func DecodeClassifier(data []byte) (*MultinomialNB, error) {
	var m MultinomialNB
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal classifier: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("validate classifier: %w", err)
	}
	return &m, nil
}

// DecodeEncoder deserializes a vectorizer part and verifies it is
// structurally complete.
func DecodeEncoder(data []byte) (*TFIDFEncoder, error) {
	var e TFIDFEncoder
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("unmarshal vectorizer: %w", err)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("validate vectorizer: %w", err)
	}
	return &e, nil
}

// DecodeSelector deserializes an optional selector part.
func DecodeSelector(data []byte) (*KBestSelector, error) {
	var s KBestSelector
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("unmarshal selector: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("validate selector: %w", err)
	}
	return &s, nil
}
