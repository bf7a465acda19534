package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"churn-predictor-api/pkg/models"
)

// RemoteError is a non-2xx answer from the scoring service.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("scoring service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("scoring service returned status %d: %s", e.StatusCode, e.Message)
}

// HTTPPredictor calls a remote scoring service: POST {baseURL}/predict with
// the six metrics as a JSON object, answered by {"prediction": p}.
type HTTPPredictor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPredictor creates a client for the scoring service at baseURL.
func NewHTTPPredictor(baseURL string, timeout time.Duration) *HTTPPredictor {
	return &HTTPPredictor{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Predict implements session.Predictor.
func (p *HTTPPredictor) Predict(ctx context.Context, in models.FormInput) (float64, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to encode prediction request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build prediction request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to reach scoring service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody models.ErrorResponse
		_ = json.Unmarshal(body, &errBody)
		return 0, &RemoteError{StatusCode: resp.StatusCode, Message: errBody.Error}
	}

	var out struct {
		Prediction *float64 `json:"prediction"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if out.Prediction == nil {
		return 0, fmt.Errorf("scoring service response has no prediction field")
	}
	return *out.Prediction, nil
}
