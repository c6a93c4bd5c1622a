package classifier

import "github.com/ryansgi/rabbit/internal/core/features"

// Mock is a test double standing in for ONNXPredictor when no .onnx file is
// available. ProbFunc computes P(bot) for a given row; if nil, every row
// scores as confidently Human. Load is a no-op that always succeeds
type Mock struct {
	ProbFunc func(row features.Row) float64
}

// Load is a no-op; Mock owns no model file
func (m *Mock) Load(path string) error { return nil }

// Predict applies the shared label/confidence rule to ProbFunc's output
func (m *Mock) Predict(row features.Row) (Result, error) {
	p := 0.0
	if m.ProbFunc != nil {
		p = m.ProbFunc(row)
	}
	return resultFromProbability(p), nil
}
