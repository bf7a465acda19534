package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"churn-predictor-api/pkg/presentation"
	"churn-predictor-api/pkg/services"

	"github.com/spf13/cobra"
)

var (
	batchOutput      string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch [file]",
	Short: "Score every customer in an .xlsx or .csv file",
	Long: `Scores every row of a spreadsheet. The first row must name the six
metrics (for example viewingHours, avgDuration, downloads, accountAge,
monthlyCharges, totalCharges) in any order.

With --output the results are written to a new workbook; otherwise a table
is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	batchCmd.Flags().StringVarP(&batchOutput, "output", "o", "", "Write results to this .xlsx file")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "Parallel predictions (default BATCH_CONCURRENCY)")
}

func runBatch(cmd *cobra.Command, args []string) error {
	p, err := newPredictor()
	if err != nil {
		return err
	}
	concurrency := cfg.BatchConcurrency
	if batchConcurrency > 0 {
		concurrency = batchConcurrency
	}
	svc := services.NewBatchService(p, concurrency, logger)

	file, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer file.Close()

	rows, err := svc.ReadRows(args[0], file)
	if err != nil {
		return err
	}
	results, err := svc.Score(cmd.Context(), rows)
	if err != nil {
		return err
	}
	sum := services.Summarize(results)

	if batchOutput != "" {
		buf, err := svc.WriteWorkbook(results)
		if err != nil {
			return err
		}
		if err := os.WriteFile(batchOutput, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", batchOutput, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows scored (%d high risk, %d invalid, %d failed), written to %s\n",
			sum.Scored, sum.HighRisk, sum.Invalid, sum.Failed, batchOutput)
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ROW\tPROBABILITY\tRISK\tERROR")
	for _, r := range results {
		if r.Display != nil {
			fmt.Fprintf(tw, "%d\t%s\t%s\t\n", r.Row, r.Display.Probability, r.Display.Label)
		} else {
			fmt.Fprintf(tw, "%d\t\t\t%s\n", r.Row, r.Error)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d rows scored, %d high risk\n", sum.Scored, sum.Total, sum.HighRisk)
	if p := sum.Probability; p != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "mean probability %s (std dev %.3f, range %s to %s)\n",
			presentation.FormatProbability(p.Mean), p.StdDev,
			presentation.FormatProbability(p.Min), presentation.FormatProbability(p.Max))
	}
	return nil
}
