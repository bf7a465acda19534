package form

import (
	"errors"
	"testing"

	"churn-predictor-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filledForm(t *testing.T) *Form {
	t.Helper()
	f := New()
	values := map[string]string{
		"viewingHoursPerWeek":       "10",
		"avgViewingDurationMinutes": "30",
		"downloadsPerMonth":         "2",
		"accountAgeMonths":          "12",
		"monthlyCharges":            "50",
		"totalCharges":              "600",
	}
	for name, v := range values {
		require.NoError(t, f.UpdateField(name, v))
	}
	return f
}

func TestTrySnapshotSucceedsWhenAllFieldsNumeric(t *testing.T) {
	f := filledForm(t)

	in, err := f.TrySnapshot()
	require.NoError(t, err)
	assert.Equal(t, models.FormInput{
		ViewingHoursPerWeek:       10,
		AvgViewingDurationMinutes: 30,
		DownloadsPerMonth:         2,
		AccountAgeMonths:          12,
		MonthlyCharges:            50,
		TotalCharges:              600,
	}, in)
}

func TestTrySnapshotRejectsEachMissingField(t *testing.T) {
	for _, field := range Fields {
		t.Run(string(field), func(t *testing.T) {
			f := filledForm(t)
			require.NoError(t, f.UpdateField(string(field), "   "))

			_, err := f.TrySnapshot()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, field, verr.Field)
			assert.True(t, errors.Is(err, ErrMissingField))
		})
	}
}

func TestTrySnapshotRejectsNonNumericValues(t *testing.T) {
	cases := []string{"abc", "12x", "NaN", "Inf", "-Inf", "1,5"}
	for _, raw := range cases {
		t.Run(raw, func(t *testing.T) {
			f := filledForm(t)
			require.NoError(t, f.UpdateField("monthlyCharges", raw))

			_, err := f.TrySnapshot()
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, MonthlyCharges, verr.Field)
			assert.ErrorIs(t, err, ErrNotANumber)
			assert.Contains(t, err.Error(), "monthlyCharges")
		})
	}
}

func TestTrySnapshotReportsFirstFieldInCanonicalOrder(t *testing.T) {
	f := New()
	require.NoError(t, f.UpdateField("totalCharges", "oops"))

	_, err := f.TrySnapshot()
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ViewingHoursPerWeek, verr.Field)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestTrySnapshotAcceptsNegativeValues(t *testing.T) {
	f := filledForm(t)
	require.NoError(t, f.UpdateField("monthlyCharges", "-5.5"))

	in, err := f.TrySnapshot()
	require.NoError(t, err)
	assert.Equal(t, -5.5, in.MonthlyCharges)
}

func TestSnapshotIsDetachedFromLaterEdits(t *testing.T) {
	f := filledForm(t)
	in, err := f.TrySnapshot()
	require.NoError(t, err)

	require.NoError(t, f.UpdateField("totalCharges", "1"))
	assert.Equal(t, 600.0, in.TotalCharges)
}

func TestUpdateFieldAcceptsLegacyAliases(t *testing.T) {
	f := New()
	require.NoError(t, f.UpdateField("viewingHours", "1"))
	require.NoError(t, f.UpdateField("avgDuration", "2"))
	require.NoError(t, f.UpdateField("downloads", "3"))
	require.NoError(t, f.UpdateField("AccountAge", "4"))
	require.NoError(t, f.UpdateField("monthly_charges", "5"))
	require.NoError(t, f.UpdateField("totalCharges", "6"))

	in, err := f.TrySnapshot()
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 4, 5, 6}, in.Features())
}

func TestUpdateFieldRejectsUnknownName(t *testing.T) {
	f := New()
	err := f.UpdateField("age", "4")
	assert.ErrorIs(t, err, ErrUnknownField)
}

func TestFromMapHandlesNumbersAndStrings(t *testing.T) {
	f, err := FromMap(map[string]any{
		"viewingHours":   10.0,
		"avgDuration":    "30",
		"downloads":      2,
		"accountAge":     int64(12),
		"monthlyCharges": 49.99,
		"totalCharges":   "600",
	})
	require.NoError(t, err)

	in, err := f.TrySnapshot()
	require.NoError(t, err)
	assert.Equal(t, 49.99, in.MonthlyCharges)
	assert.Equal(t, 2.0, in.DownloadsPerMonth)
}

func TestFromMapNilIsMissing(t *testing.T) {
	f, err := FromMap(map[string]any{"totalCharges": nil})
	require.NoError(t, err)
	_, err = f.TrySnapshot()
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestFromInputRoundTrips(t *testing.T) {
	want := models.FormInput{ViewingHoursPerWeek: 1.25, AvgViewingDurationMinutes: 2, DownloadsPerMonth: 3, AccountAgeMonths: 4, MonthlyCharges: 5, TotalCharges: 6}
	got, err := FromInput(want).TrySnapshot()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestResetClearsValues(t *testing.T) {
	f := filledForm(t)
	f.Reset()
	assert.Equal(t, "", f.Value(TotalCharges))
	_, err := f.TrySnapshot()
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestApplyIsAllOrNothing(t *testing.T) {
	f := New()
	require.NoError(t, f.UpdateField("monthlyCharges", "50"))

	err := f.Apply(map[string]any{"downloads": 3, "tenure": 12})
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Empty(t, f.Value(DownloadsPerMonth))

	require.NoError(t, f.Apply(map[string]any{"downloads": 3, "monthlyCharges": nil}))
	assert.Equal(t, "3", f.Value(DownloadsPerMonth))
	assert.Empty(t, f.Value(MonthlyCharges))
}
