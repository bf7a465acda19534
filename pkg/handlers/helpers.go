package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/services"
	"churn-predictor-api/pkg/session"

	"github.com/gin-gonic/gin"
)

const (
	invalidFormatMessage = "Invalid data format. Expecting a JSON object."
	modelMissingMessage  = "Model not found. Please check the deployment."

	// maxWait bounds the ?wait= long poll.
	maxWait = 30 * time.Second
)

// ControllerFactory builds a fresh session controller.
type ControllerFactory func() *session.Controller

// statusFor maps an error onto an HTTP status.
func statusFor(err error) int {
	var verr *form.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, form.ErrUnknownField), errors.Is(err, services.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrSubmissionInFlight), errors.Is(err, session.ErrControllerClosed):
		return http.StatusConflict
	case errors.Is(err, services.ErrModelUnavailable):
		return http.StatusInternalServerError
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes {"error": ..., "field": ...}.
func respondError(c *gin.Context, err error) {
	body := gin.H{"error": err.Error()}
	var verr *form.ValidationError
	if errors.As(err, &verr) {
		body["field"] = string(verr.Field)
	}
	_ = c.Error(err)
	c.JSON(statusFor(err), body)
}

// respondFailure writes the answer for a Failed prediction. A missing model is
// a deployment problem (500), anything else a bad gateway.
func respondFailure(c *gin.Context, st session.State) {
	_ = c.Error(st.Err)
	if errors.Is(st.Err, services.ErrModelUnavailable) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": modelMissingMessage})
		return
	}
	c.JSON(http.StatusBadGateway, gin.H{"error": st.Reason()})
}

// bindObject decodes the request body as a JSON object.
func bindObject(c *gin.Context) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(c.Request.Body).Decode(&body); err != nil || body == nil {
		return nil, errors.New(invalidFormatMessage)
	}
	return body, nil
}

// parseWait reads the ?wait= duration, capped at maxWait.
func parseWait(c *gin.Context) (time.Duration, error) {
	raw := c.Query("wait")
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid wait duration %q", raw)
	}
	return min(d, maxWait), nil
}

// predictOnce runs a single prediction through a throwaway controller and
// blocks until it settles or the client goes away.
func predictOnce(ctx context.Context, newController ControllerFactory, f *form.Form) (session.State, error) {
	ctrl := newController()
	defer ctrl.Close()

	if _, err := ctrl.SubmitForm(ctx, f); err != nil {
		return session.State{}, err
	}
	return ctrl.Wait(ctx)
}
