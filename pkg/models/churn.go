package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// RiskThreshold is the probability above which a customer is classified as high risk.
// A probability exactly equal to the threshold is low risk.
const RiskThreshold = 0.5

// ErrProbabilityOutOfRange is returned when a probability is NaN or outside [0, 1].
var ErrProbabilityOutOfRange = errors.New("probability out of range [0, 1]")

// FormInput is the parsed, immutable snapshot of the six usage metrics.
type FormInput struct {
	ViewingHoursPerWeek       float64 `json:"viewingHoursPerWeek"`
	AvgViewingDurationMinutes float64 `json:"avgViewingDurationMinutes"`
	DownloadsPerMonth         float64 `json:"downloadsPerMonth"`
	AccountAgeMonths          float64 `json:"accountAgeMonths"`
	MonthlyCharges            float64 `json:"monthlyCharges"`
	TotalCharges              float64 `json:"totalCharges"`
}

// Features returns the metrics in canonical field order.
func (in FormInput) Features() []float64 {
	return []float64{
		in.ViewingHoursPerWeek,
		in.AvgViewingDurationMinutes,
		in.DownloadsPerMonth,
		in.AccountAgeMonths,
		in.MonthlyCharges,
		in.TotalCharges,
	}
}

// PredictionRequest is the snapshot owned by a single in-flight prediction.
type PredictionRequest struct {
	ID          string    `json:"id"`
	Input       FormInput `json:"input"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// PredictionResult is the outcome of one completed prediction.
type PredictionResult struct {
	Probability float64 `json:"probability"`
	IsHighRisk  bool    `json:"isHighRisk"`
}

// NewPredictionResult classifies p. It rejects NaN and values outside [0, 1].
func NewPredictionResult(p float64) (PredictionResult, error) {
	if err := CheckProbability(p); err != nil {
		return PredictionResult{}, err
	}
	return PredictionResult{
		Probability: p,
		IsHighRisk:  p > RiskThreshold,
	}, nil
}

// CheckProbability reports whether p is a usable probability.
func CheckProbability(p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%w: %v", ErrProbabilityOutOfRange, p)
	}
	return nil
}

// PredictResponse is the wire response of the scoring service.
type PredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// ErrorResponse is the wire error body of the scoring service.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}
