package presentation

import (
	"errors"
	"math"
	"testing"

	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/session"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatProbability(t *testing.T) {
	cases := map[float64]string{
		0.4321:    "43.2%",
		1.0:       "100.0%",
		0.0:       "0.0%",
		0.73:      "73.0%",
		0.2:       "20.0%",
		0.5:       "50.0%",
		0.99951:   "100.0%",
		0.0004:    "0.0%",
		0.1234999: "12.3%",
	}
	for p, want := range cases {
		assert.Equal(t, want, FormatProbability(p), "p=%v", p)
	}
}

func TestRenderHighRisk(t *testing.T) {
	got, err := Render(models.PredictionResult{Probability: 0.73, IsHighRisk: true})
	require.NoError(t, err)

	want := DisplayModel{
		Label:       HighRiskLabel,
		Probability: "73.0%",
		IsHighRisk:  true,
		RecommendedActions: []string{
			"Reach out to the customer for feedback",
			"Consider offering a personalized retention package",
			"Review pricing and service usage patterns",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Render mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderLowRiskHasNoActions(t *testing.T) {
	got, err := Render(models.PredictionResult{Probability: 0.2})
	require.NoError(t, err)
	assert.Equal(t, LowRiskLabel, got.Label)
	assert.Equal(t, "20.0%", got.Probability)
	assert.Empty(t, got.RecommendedActions)
}

func TestRenderBoundaryIsLowRisk(t *testing.T) {
	got, err := Render(models.PredictionResult{Probability: 0.5})
	require.NoError(t, err)
	assert.False(t, got.IsHighRisk)

	got, err = Render(models.PredictionResult{Probability: 0.5000001})
	require.NoError(t, err)
	assert.True(t, got.IsHighRisk)
	assert.Len(t, got.RecommendedActions, 3)
}

func TestRenderRejectsMalformedProbability(t *testing.T) {
	for _, p := range []float64{-0.01, 1.01, math.NaN(), math.Inf(1)} {
		_, err := Render(models.PredictionResult{Probability: p})
		assert.True(t, errors.Is(err, models.ErrProbabilityOutOfRange), "p=%v", p)
	}
}

func TestRenderDoesNotShareActionSlice(t *testing.T) {
	got, err := Render(models.PredictionResult{Probability: 0.9})
	require.NoError(t, err)
	got.RecommendedActions[0] = "changed"
	assert.Equal(t, "Reach out to the customer for feedback", RecommendedActions[0])
}

func TestViewState(t *testing.T) {
	idle := ViewState(session.State{Status: session.StatusIdle})
	assert.Equal(t, SubmitLabel, idle.ButtonLabel)
	assert.True(t, idle.SubmitEnabled)
	assert.Nil(t, idle.Result)

	pending := ViewState(session.State{Status: session.StatusPending, RequestID: "r1"})
	assert.Equal(t, PendingLabel, pending.ButtonLabel)
	assert.False(t, pending.SubmitEnabled)
	assert.Equal(t, "r1", pending.RequestID)

	res := models.PredictionResult{Probability: 0.73, IsHighRisk: true}
	resolved := ViewState(session.State{Status: session.StatusResolved, Result: &res})
	require.NotNil(t, resolved.Result)
	assert.Equal(t, "73.0%", resolved.Result.Probability)
	assert.True(t, resolved.SubmitEnabled)

	failed := ViewState(session.State{
		Status: session.StatusFailed,
		Err:    &session.PredictionError{RequestID: "r2", Err: errors.New("dial tcp: refused")},
	})
	assert.Equal(t, FailureMessage, failed.Error)
	assert.Contains(t, failed.Detail, "refused")
	assert.True(t, failed.SubmitEnabled)
	assert.Nil(t, failed.Result)
}

func TestEveryFieldHasALabel(t *testing.T) {
	assert.Len(t, FieldLabels, 6)
}
