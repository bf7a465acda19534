package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"churn-predictor-api/pkg/form"
	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/session"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrUnsupportedFormat is returned for files that are neither .xlsx nor .csv.
var ErrUnsupportedFormat = errors.New("unsupported file format: upload .xlsx or .csv")

// BatchRow is the outcome for one data row. Row is 1-based and counts the header.
type BatchRow struct {
	Row     int                        `json:"row"`
	Input   *models.FormInput          `json:"input,omitempty"`
	Result  *models.PredictionResult   `json:"result,omitempty"`
	Display *presentation.DisplayModel `json:"display,omitempty"`
	Error   string                     `json:"error,omitempty"`
	Field   string                     `json:"field,omitempty"`
}

// BatchSummary aggregates a batch.
type BatchSummary struct {
	Total    int `json:"total"`
	Scored   int `json:"scored"`
	HighRisk int `json:"high_risk"`
	Invalid  int `json:"invalid"`
	Failed   int `json:"failed"`

	Probability *ProbabilityStats `json:"probability,omitempty"`
}

// BatchService scores spreadsheets of customers.
type BatchService struct {
	predictor   session.Predictor
	concurrency int
	logger      *zap.Logger
}

// NewBatchService creates a batch scorer running at most concurrency predictions at once.
func NewBatchService(predictor session.Predictor, concurrency int, logger *zap.Logger) *BatchService {
	if concurrency <= 0 {
		concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchService{predictor: predictor, concurrency: concurrency, logger: logger}
}

// ReadRows reads the first sheet of an .xlsx file or a whole .csv file.
func (s *BatchService) ReadRows(fileName string, r io.Reader) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet rows: %w", err)
		}
		return rows, nil
	case ".csv":
		cr := csv.NewReader(r)
		cr.FieldsPerRecord = -1
		rows, err := cr.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}
		return rows, nil
	default:
		return nil, ErrUnsupportedFormat
	}
}

// Score validates and scores every data row. The first row must be a header
// naming the six fields (canonical names or aliases, any order). Invalid rows
// and failed predictions are reported per row; only ctx cancellation aborts.
func (s *BatchService) Score(ctx context.Context, rows [][]string) ([]BatchRow, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("file needs a header row and at least one data row")
	}

	columns, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	out := make([]BatchRow, len(rows)-1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, row := range rows[1:] {
		idx := i
		out[idx].Row = i + 2

		f := form.New()
		for col, field := range columns {
			if col < len(row) {
				_ = f.UpdateField(string(field), row[col])
			}
		}
		in, err := f.TrySnapshot()
		if err != nil {
			var verr *form.ValidationError
			if errors.As(err, &verr) {
				out[idx].Field = string(verr.Field)
			}
			out[idx].Error = err.Error()
			continue
		}
		out[idx].Input = &in

		g.Go(func() error {
			p, err := s.predictor.Predict(gctx, in)
			if err == nil {
				var result models.PredictionResult
				if result, err = models.NewPredictionResult(p); err == nil {
					dm, _ := presentation.Render(result)
					out[idx].Result = &result
					out[idx].Display = &dm
					return nil
				}
			}
			if ctxErr := gctx.Err(); ctxErr != nil {
				return ctxErr
			}
			out[idx].Error = err.Error()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("batch scoring aborted: %w", err)
	}

	sum := Summarize(out)
	s.logger.Info("batch scored",
		zap.Int("rows", sum.Total),
		zap.Int("high_risk", sum.HighRisk),
		zap.Int("invalid", sum.Invalid),
		zap.Int("failed", sum.Failed),
	)
	if sum.Probability != nil {
		s.logger.Debug("batch probability spread",
			zap.Float64("mean", sum.Probability.Mean),
			zap.Float64("std_dev", sum.Probability.StdDev),
		)
	}
	return out, nil
}

// resolveColumns maps column indexes to fields and reports missing ones.
func resolveColumns(header []string) (map[int]form.Field, error) {
	columns := make(map[int]form.Field, len(form.Fields))
	seen := make(map[form.Field]bool, len(form.Fields))
	for i, name := range header {
		field, ok := form.ParseField(name)
		if !ok || seen[field] {
			continue
		}
		columns[i] = field
		seen[field] = true
	}

	var missing []string
	for _, field := range form.Fields {
		if !seen[field] {
			missing = append(missing, string(field))
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required columns not found: %s", strings.Join(missing, ", "))
	}
	return columns, nil
}

// Summarize counts the outcomes of a batch.
func Summarize(rows []BatchRow) BatchSummary {
	sum := BatchSummary{Total: len(rows)}
	var probabilities []float64
	for _, r := range rows {
		switch {
		case r.Result != nil:
			sum.Scored++
			probabilities = append(probabilities, r.Result.Probability)
			if r.Result.IsHighRisk {
				sum.HighRisk++
			}
		case r.Input == nil:
			sum.Invalid++
		default:
			sum.Failed++
		}
	}
	sum.Probability = describeProbabilities(probabilities)
	return sum
}

// WriteWorkbook renders batch results as an .xlsx workbook.
func (s *BatchService) WriteWorkbook(rows []BatchRow) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Predictions"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{"row"}
	for _, field := range form.Fields {
		header = append(header, string(field))
	}
	header = append(header, "probability", "risk", "error")
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, r := range rows {
		line := []interface{}{r.Row}
		if r.Input != nil {
			for _, v := range r.Input.Features() {
				line = append(line, v)
			}
		} else {
			for range form.Fields {
				line = append(line, "")
			}
		}
		if r.Display != nil {
			line = append(line, r.Display.Probability, r.Display.Label, "")
		} else {
			line = append(line, "", "", r.Error)
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &line); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", r.Row, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to encode workbook: %w", err)
	}
	return buf, nil
}
