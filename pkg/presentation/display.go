// Package presentation maps prediction results and session states onto what
// the form shows.
package presentation

import (
	"fmt"
	"math"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/session"
)

const (
	Title    = "Customer Churn Predictor"
	Subtitle = "Enter customer data to predict the likelihood of churn"

	HighRiskLabel = "High Risk of Churn"
	LowRiskLabel  = "Low Risk of Churn"

	SubmitLabel  = "Predict Churn Risk"
	PendingLabel = "Analyzing..."

	FailureMessage = "We could not get a churn prediction. Please try again."
)

// RecommendedActions is shown for high risk results only.
var RecommendedActions = []string{
	"Reach out to the customer for feedback",
	"Consider offering a personalized retention package",
	"Review pricing and service usage patterns",
}

// FieldLabels are the human readable labels of the form inputs.
var FieldLabels = map[form.Field]string{
	form.ViewingHoursPerWeek:       "Viewing Hours per Week",
	form.AvgViewingDurationMinutes: "Average Viewing Duration (minutes)",
	form.DownloadsPerMonth:         "Content Downloads per Month",
	form.AccountAgeMonths:          "Account Age (months)",
	form.MonthlyCharges:            "Monthly Charges ($)",
	form.TotalCharges:              "Total Charges ($)",
}

// DisplayModel is the rendered result panel.
type DisplayModel struct {
	Label              string   `json:"label"`
	Probability        string   `json:"probability"`
	IsHighRisk         bool     `json:"isHighRisk"`
	RecommendedActions []string `json:"recommendedActions,omitempty"`
}

// FormatProbability renders p as a percentage with exactly one decimal.
func FormatProbability(p float64) string {
	return fmt.Sprintf("%.1f%%", math.Round(p*1000)/10)
}

// Render maps a result onto its display model. Malformed probabilities are
// rejected rather than clamped.
func Render(r models.PredictionResult) (DisplayModel, error) {
	if err := models.CheckProbability(r.Probability); err != nil {
		return DisplayModel{}, err
	}
	high := r.Probability > models.RiskThreshold

	dm := DisplayModel{
		Label:       LowRiskLabel,
		Probability: FormatProbability(r.Probability),
		IsHighRisk:  high,
	}
	if high {
		dm.Label = HighRiskLabel
		dm.RecommendedActions = append([]string(nil), RecommendedActions...)
	}
	return dm, nil
}

// SessionView is everything needed to draw the form for one state.
type SessionView struct {
	Status        session.Status `json:"status"`
	RequestID     string         `json:"requestId,omitempty"`
	ButtonLabel   string         `json:"buttonLabel"`
	SubmitEnabled bool           `json:"submitEnabled"`
	Result        *DisplayModel  `json:"result,omitempty"`
	Error         string         `json:"error,omitempty"`
	Detail        string         `json:"detail,omitempty"`
}

// ViewState maps a controller state onto a view.
func ViewState(st session.State) SessionView {
	v := SessionView{
		Status:        st.Status,
		RequestID:     st.RequestID,
		ButtonLabel:   SubmitLabel,
		SubmitEnabled: true,
	}

	switch st.Status {
	case session.StatusPending:
		v.ButtonLabel = PendingLabel
		v.SubmitEnabled = false
	case session.StatusResolved:
		if st.Result == nil {
			break
		}
		dm, err := Render(*st.Result)
		if err != nil {
			v.Error = FailureMessage
			v.Detail = err.Error()
			break
		}
		v.Result = &dm
	case session.StatusFailed:
		v.Error = FailureMessage
		v.Detail = st.Reason()
	}
	return v
}
