package classifier

import "fmt"

// KBestSelector projects an encoded vector onto a fixed feature subset.
// Legacy bundles trained with feature selection carry one; newer
// training runs do not.
type KBestSelector struct {
	Indices []int `json:"indices"`
}

// Select returns the sub-vector at the selected indices. Out-of-range
// indices contribute zero rather than panicking on a malformed bundle.
func (s *KBestSelector) Select(encoded []float64) []float64 {
	out := make([]float64, len(s.Indices))
	for i, idx := range s.Indices {
		if idx >= 0 && idx < len(encoded) {
			out[i] = encoded[idx]
		}
	}
	return out
}

// Validate checks structural integrity after deserialization.
func (s *KBestSelector) Validate() error {
	if len(s.Indices) == 0 {
		return fmt.Errorf("selector has no indices")
	}
	for i, idx := range s.Indices {
		if idx < 0 {
			return fmt.Errorf("selector index %d is negative at position %d", idx, i)
		}
	}
	return nil
}
