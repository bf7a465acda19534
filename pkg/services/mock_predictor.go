package services

import (
	"context"
	"math/rand/v2"
	"time"

	"churn-predictor-api/pkg/models"
)

// MockPredictor stands in for a real scoring backend. It waits a fixed delay
// and returns a uniform random probability in [0, 1). The input is ignored.
type MockPredictor struct {
	delay  time.Duration
	source func() float64
}

// NewMockPredictor creates a mock. A nil source uses math/rand.
func NewMockPredictor(delay time.Duration, source func() float64) *MockPredictor {
	if source == nil {
		source = rand.Float64
	}
	return &MockPredictor{delay: delay, source: source}
}

// Predict implements session.Predictor.
func (m *MockPredictor) Predict(ctx context.Context, _ models.FormInput) (float64, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return 0, err
	}
	return m.source(), nil
}
