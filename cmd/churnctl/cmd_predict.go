package main

import (
	"encoding/json"
	"fmt"
	"io"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/spf13/cobra"
)

// predictFlags maps flag names to form fields.
var predictFlags = []struct {
	name  string
	field form.Field
}{
	{"viewing-hours", form.ViewingHoursPerWeek},
	{"avg-duration", form.AvgViewingDurationMinutes},
	{"downloads", form.DownloadsPerMonth},
	{"account-age", form.AccountAgeMonths},
	{"monthly-charges", form.MonthlyCharges},
	{"total-charges", form.TotalCharges},
}

var (
	predictValues = make(map[string]*string, len(predictFlags))
	predictJSON   bool
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict churn risk for one customer",
	Long: `Predicts churn risk for one customer. All six metrics are required.

Example:
  churnctl predict --viewing-hours 2 --avg-duration 15 --downloads 0 \
    --account-age 3 --monthly-charges 60 --total-charges 180`,
	Args: cobra.NoArgs,
	RunE: runPredict,
}

func init() {
	for _, f := range predictFlags {
		predictValues[f.name] = predictCmd.Flags().String(f.name, "", presentation.FieldLabels[f.field])
	}
	predictCmd.Flags().BoolVar(&predictJSON, "json", false, "Print the result as JSON")
}

func runPredict(cmd *cobra.Command, args []string) error {
	f := form.New()
	for _, pf := range predictFlags {
		if err := f.UpdateField(string(pf.field), *predictValues[pf.name]); err != nil {
			return err
		}
	}
	in, err := f.TrySnapshot()
	if err != nil {
		return fmt.Errorf("invalid input: %w", err)
	}

	p, err := newPredictor()
	if err != nil {
		return err
	}
	ctrl := newController(p)
	defer ctrl.Close()

	if _, err := ctrl.Submit(cmd.Context(), in); err != nil {
		return err
	}
	st, err := ctrl.Wait(cmd.Context())
	if err != nil {
		return err
	}
	if st.Status != session.StatusResolved {
		return fmt.Errorf("%s: %s", presentation.FailureMessage, st.Reason())
	}

	dm, err := presentation.Render(*st.Result)
	if err != nil {
		return err
	}
	if predictJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"input":   in,
			"result":  st.Result,
			"display": dm,
		})
	}
	printDisplay(cmd.OutOrStdout(), dm)
	return nil
}

func printDisplay(w io.Writer, dm presentation.DisplayModel) {
	fmt.Fprintln(w, dm.Label)
	fmt.Fprintf(w, "Churn Probability: %s\n", dm.Probability)
	if len(dm.RecommendedActions) > 0 {
		fmt.Fprintln(w, "Recommended Actions:")
		for _, a := range dm.RecommendedActions {
			fmt.Fprintf(w, "  - %s\n", a)
		}
	}
}
