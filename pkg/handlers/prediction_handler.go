package handlers

import (
	"net/http"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/gin-gonic/gin"
)

// PredictionHandler serves one-shot predictions.
type PredictionHandler struct {
	newController ControllerFactory
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(newController ControllerFactory) *PredictionHandler {
	return &PredictionHandler{newController: newController}
}

// Predict keeps the contract of the legacy scoring service:
// a JSON object of the six metrics in, {"prediction": p} out.
func (h *PredictionHandler) Predict(c *gin.Context) {
	st, ok := h.run(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"prediction": st.Result.Probability})
}

// PredictDetailed returns the classified result together with what the form shows.
func (h *PredictionHandler) PredictDetailed(c *gin.Context) {
	st, ok := h.run(c)
	if !ok {
		return
	}

	view := presentation.ViewState(st)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"requestId": st.RequestID,
			"result":    st.Result,
			"display":   view.Result,
		},
	})
}

// run parses the body and waits for a Resolved state. On any other outcome it
// writes the error response and reports false.
func (h *PredictionHandler) run(c *gin.Context) (session.State, bool) {
	body, err := bindObject(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return session.State{}, false
	}

	f, err := form.FromMap(body)
	if err != nil {
		respondError(c, err)
		return session.State{}, false
	}

	st, err := predictOnce(c.Request.Context(), h.newController, f)
	if err != nil {
		respondError(c, err)
		return session.State{}, false
	}
	if st.Status != session.StatusResolved {
		respondFailure(c, st)
		return session.State{}, false
	}
	return st, true
}
