// Package form holds the raw text of the six usage metrics while they are
// being edited and turns them into a models.FormInput on submission.
package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"churn-predictor-api/pkg/models"
)

// Field names one of the six metrics.
type Field string

const (
	ViewingHoursPerWeek       Field = "viewingHoursPerWeek"
	AvgViewingDurationMinutes Field = "avgViewingDurationMinutes"
	DownloadsPerMonth         Field = "downloadsPerMonth"
	AccountAgeMonths          Field = "accountAgeMonths"
	MonthlyCharges            Field = "monthlyCharges"
	TotalCharges              Field = "totalCharges"
)

// Fields lists every field in canonical order.
var Fields = []Field{
	ViewingHoursPerWeek,
	AvgViewingDurationMinutes,
	DownloadsPerMonth,
	AccountAgeMonths,
	MonthlyCharges,
	TotalCharges,
}

// aliases maps lower-cased names, including the short names used by the
// first web form, to canonical fields.
var aliases = map[string]Field{
	"viewinghours":              ViewingHoursPerWeek,
	"viewinghoursperweek":       ViewingHoursPerWeek,
	"avgduration":               AvgViewingDurationMinutes,
	"avgviewingdurationminutes": AvgViewingDurationMinutes,
	"downloads":                 DownloadsPerMonth,
	"downloadspermonth":         DownloadsPerMonth,
	"accountage":                AccountAgeMonths,
	"accountagemonths":          AccountAgeMonths,
	"monthlycharges":            MonthlyCharges,
	"totalcharges":              TotalCharges,
}

// ParseField resolves a canonical name or alias, ignoring case,
// underscores and surrounding whitespace.
func ParseField(name string) (Field, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.ReplaceAll(key, "_", "")
	f, ok := aliases[key]
	return f, ok
}

var (
	// ErrUnknownField is returned when a name does not match any field.
	ErrUnknownField = errors.New("unknown field")
	// ErrMissingField is the kind of a ValidationError for an empty field.
	ErrMissingField = errors.New("missing field")
	// ErrNotANumber is the kind of a ValidationError for an unparseable field.
	ErrNotANumber = errors.New("not a number")
)

// ValidationError names the first field that blocked a snapshot.
type ValidationError struct {
	Kind  error
	Field Field
	Value string
}

func (e *ValidationError) Error() string {
	if e.Kind == ErrNotANumber {
		return fmt.Sprintf("%s: %q is not a number", e.Field, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Kind)
}

func (e *ValidationError) Unwrap() error { return e.Kind }

// Form is the Input Manager. It is safe for concurrent use.
type Form struct {
	mu     sync.RWMutex
	values map[Field]string
}

// New returns an empty form.
func New() *Form {
	return &Form{values: make(map[Field]string, len(Fields))}
}

// UpdateField stores raw text for the named field without validating it.
func (f *Form) UpdateField(name, raw string) error {
	field, ok := ParseField(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	f.mu.Lock()
	f.values[field] = raw
	f.mu.Unlock()
	return nil
}

// Value returns the raw text currently held for field.
func (f *Form) Value(field Field) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.values[field]
}

// Values returns a copy of every raw value keyed by canonical name.
func (f *Form) Values() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]string, len(Fields))
	for _, field := range Fields {
		out[string(field)] = f.values[field]
	}
	return out
}

// Reset clears every field.
func (f *Form) Reset() {
	f.mu.Lock()
	f.values = make(map[Field]string, len(Fields))
	f.mu.Unlock()
}

// TrySnapshot parses all six fields. Fields are checked in canonical order and
// the first failure is returned as a *ValidationError.
func (f *Form) TrySnapshot() (models.FormInput, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	parsed := make(map[Field]float64, len(Fields))
	for _, field := range Fields {
		raw := strings.TrimSpace(f.values[field])
		if raw == "" {
			return models.FormInput{}, &ValidationError{Kind: ErrMissingField, Field: field}
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return models.FormInput{}, &ValidationError{Kind: ErrNotANumber, Field: field, Value: raw}
		}
		parsed[field] = v
	}

	return models.FormInput{
		ViewingHoursPerWeek:       parsed[ViewingHoursPerWeek],
		AvgViewingDurationMinutes: parsed[AvgViewingDurationMinutes],
		DownloadsPerMonth:         parsed[DownloadsPerMonth],
		AccountAgeMonths:          parsed[AccountAgeMonths],
		MonthlyCharges:            parsed[MonthlyCharges],
		TotalCharges:              parsed[TotalCharges],
	}, nil
}

// Apply stores several raw values at once. Values may be strings or numbers,
// such as a decoded JSON object; nil clears a field. Nothing is stored when
// any name is unknown.
func (f *Form) Apply(values map[string]any) error {
	resolved := make(map[Field]string, len(values))
	for name, v := range values {
		field, ok := ParseField(name)
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, name)
		}
		resolved[field] = rawText(v)
	}

	f.mu.Lock()
	for field, raw := range resolved {
		f.values[field] = raw
	}
	f.mu.Unlock()
	return nil
}

// FromMap builds a form from loosely typed values. Numbers are formatted back
// to text so that validation stays in TrySnapshot.
func FromMap(values map[string]any) (*Form, error) {
	f := New()
	if err := f.Apply(values); err != nil {
		return nil, err
	}
	return f, nil
}

func rawText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return fmt.Sprint(x)
	}
}

// FromInput fills a form with an already parsed snapshot.
func FromInput(in models.FormInput) *Form {
	f := New()
	for i, v := range in.Features() {
		f.values[Fields[i]] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return f
}
