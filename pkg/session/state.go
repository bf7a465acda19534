package session

import (
	"errors"
	"fmt"

	"churn-predictor-api/pkg/models"
)

// Status is the phase of a prediction session.
type Status int

const (
	StatusIdle Status = iota
	StatusPending
	StatusResolved
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText lets Status appear by name in JSON.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a status name.
func (s *Status) UnmarshalText(text []byte) error {
	for _, st := range []Status{StatusIdle, StatusPending, StatusResolved, StatusFailed} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session status %q", text)
}

// State is a copy of the controller's state at one point in time.
// Result is set only when Resolved, Err only when Failed.
type State struct {
	Status    Status
	RequestID string
	Result    *models.PredictionResult
	Err       error
}

// Reason returns the failure message of a Failed state.
func (s State) Reason() string {
	if s.Err == nil {
		return ""
	}
	return s.Err.Error()
}

var (
	// ErrSubmissionInFlight is returned by Submit while a request is pending.
	ErrSubmissionInFlight = errors.New("a prediction is already in progress")
	// ErrControllerClosed is returned by Submit after Close.
	ErrControllerClosed = errors.New("session controller is closed")
)

// PredictionError wraps a failure of the prediction operation.
type PredictionError struct {
	RequestID string
	Err       error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction %s failed: %v", e.RequestID, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }
