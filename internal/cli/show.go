package cli

import (
	"github.com/spf13/cobra"

	"sessionchart/internal/app"
)

var showInstrument string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print a per-session summary for each instrument",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Show(cmd.Context(), app.ShowOptions{Instrument: showInstrument})
	},
}

func init() {
	showCmd.Flags().StringVar(&showInstrument, "instrument", "", "Only show this instrument")
}
