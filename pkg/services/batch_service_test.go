package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// byViewingHours answers 0.9 for inactive customers, 0.1 otherwise, and fails
// for a viewing time of 99.
var byViewingHours = session.PredictorFunc(func(_ context.Context, in models.FormInput) (float64, error) {
	switch {
	case in.ViewingHoursPerWeek == 99:
		return 0, errors.New("backend down")
	case in.ViewingHoursPerWeek < 5:
		return 0.9, nil
	default:
		return 0.1, nil
	}
})

func TestBatchScoreMixedRows(t *testing.T) {
	svc := NewBatchService(byViewingHours, 2, nil)
	rows := [][]string{
		{"totalCharges", "viewingHours", "avgDuration", "downloads", "accountAge", "monthlyCharges", "notes"},
		{"600", "1", "30", "2", "12", "50", "inactive"},
		{"600", "20", "30", "2", "12", "50", ""},
		{"600", "abc", "30", "2", "12", "50"},
		{"600", "99", "30", "2", "12", "50"},
		{"600", "20", "30"},
	}

	out, err := svc.Score(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, out, 5)

	assert.Equal(t, 2, out[0].Row)
	require.NotNil(t, out[0].Display)
	assert.Equal(t, presentation.HighRiskLabel, out[0].Display.Label)
	assert.Equal(t, "90.0%", out[0].Display.Probability)
	assert.Equal(t, 600.0, out[0].Input.TotalCharges)

	require.NotNil(t, out[1].Result)
	assert.False(t, out[1].Result.IsHighRisk)

	assert.Nil(t, out[2].Input)
	assert.Equal(t, string(form.ViewingHoursPerWeek), out[2].Field)
	assert.NotEmpty(t, out[2].Error)

	assert.NotNil(t, out[3].Input)
	assert.Nil(t, out[3].Result)
	assert.Contains(t, out[3].Error, "backend down")

	assert.Equal(t, string(form.DownloadsPerMonth), out[4].Field)

	sum := Summarize(out)
	require.NotNil(t, sum.Probability)
	assert.Equal(t, 2, sum.Probability.Count)
	assert.InDelta(t, 0.5, sum.Probability.Mean, 1e-9)
	assert.InDelta(t, 0.4, sum.Probability.StdDev, 1e-9)
	assert.Equal(t, 0.1, sum.Probability.Min)
	assert.Equal(t, 0.9, sum.Probability.Max)

	sum.Probability = nil
	assert.Equal(t, BatchSummary{Total: 5, Scored: 2, HighRisk: 1, Invalid: 2, Failed: 1}, sum)
}

func TestBatchScoreRequiresAllColumns(t *testing.T) {
	svc := NewBatchService(byViewingHours, 1, nil)
	_, err := svc.Score(context.Background(), [][]string{
		{"viewingHours", "avgDuration", "downloads", "accountAge", "monthlyCharges"},
		{"1", "2", "3", "4", "5"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "totalCharges")
}

func TestBatchScoreRequiresDataRow(t *testing.T) {
	svc := NewBatchService(byViewingHours, 1, nil)
	_, err := svc.Score(context.Background(), [][]string{{"viewingHours"}})
	assert.Error(t, err)
}

func TestBatchScoreAbortsOnCancelledContext(t *testing.T) {
	blocking := session.PredictorFunc(func(ctx context.Context, _ models.FormInput) (float64, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	svc := NewBatchService(blocking, 1, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Score(ctx, [][]string{
		{"viewingHours", "avgDuration", "downloads", "accountAge", "monthlyCharges", "totalCharges"},
		{"1", "2", "3", "4", "5", "6"},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBatchReadRowsCSV(t *testing.T) {
	svc := NewBatchService(byViewingHours, 1, nil)
	rows, err := svc.ReadRows("customers.CSV", strings.NewReader("a,b\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"a", "b"}, {"1", "2", "3"}}, rows)
}

func TestBatchReadRowsUnsupported(t *testing.T) {
	svc := NewBatchService(byViewingHours, 1, nil)
	_, err := svc.ReadRows("customers.pdf", strings.NewReader(""))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestBatchWorkbookRoundTrip(t *testing.T) {
	src := excelize.NewFile()
	defer src.Close()
	sheet := src.GetSheetName(0)
	require.NoError(t, src.SetSheetRow(sheet, "A1", &[]interface{}{
		"viewing_hours_per_week", "avg_viewing_duration_minutes", "downloads_per_month",
		"account_age_months", "monthly_charges", "total_charges",
	}))
	require.NoError(t, src.SetSheetRow(sheet, "A2", &[]interface{}{1, 30, 2, 12, 50, 600}))
	require.NoError(t, src.SetSheetRow(sheet, "A3", &[]interface{}{"", 30, 2, 12, 50, 600}))
	in, err := src.WriteToBuffer()
	require.NoError(t, err)

	svc := NewBatchService(byViewingHours, 4, nil)
	rows, err := svc.ReadRows("customers.xlsx", bytes.NewReader(in.Bytes()))
	require.NoError(t, err)
	scored, err := svc.Score(context.Background(), rows)
	require.NoError(t, err)
	require.Len(t, scored, 2)

	out, err := svc.WriteWorkbook(scored)
	require.NoError(t, err)

	result, err := excelize.OpenReader(out)
	require.NoError(t, err)
	defer result.Close()

	assert.Equal(t, "Predictions", result.GetSheetName(0))
	got, err := result.GetRows("Predictions")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"row", "viewingHoursPerWeek", "avgViewingDurationMinutes", "downloadsPerMonth",
		"accountAgeMonths", "monthlyCharges", "totalCharges", "probability", "risk", "error"}, got[0])
	assert.Equal(t, "90.0%", got[1][7])
	assert.Equal(t, presentation.HighRiskLabel, got[1][8])
	assert.Contains(t, got[2][9], "missing field")
}

func TestDescribeProbabilities(t *testing.T) {
	assert.Nil(t, describeProbabilities(nil))

	stats := describeProbabilities([]float64{0.2, 0.4, 0.6, 0.8})
	require.NotNil(t, stats)
	assert.Equal(t, 4, stats.Count)
	assert.InDelta(t, 0.5, stats.Mean, 1e-9)
	assert.InDelta(t, 0.2236068, stats.StdDev, 1e-6)
	assert.Equal(t, 0.2, stats.Min)
	assert.Equal(t, 0.8, stats.Max)
}
