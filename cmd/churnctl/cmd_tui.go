package main

import (
	"churn-predictor-api/internal/tui"

	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Fill in the churn form interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := newPredictor()
		if err != nil {
			return err
		}
		ctrl := newController(p)
		defer ctrl.Close()
		return tui.Run(ctrl)
	},
}
