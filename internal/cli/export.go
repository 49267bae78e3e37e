package cli

import (
	"github.com/spf13/cobra"

	"sessionchart/internal/app"
)

var (
	exportInstrument string
	exportCSVPath    string
	exportAvgPath    string
	exportPNGPath    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export one instrument's sessions as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Export(cmd.Context(), app.ExportOptions{
			Instrument: exportInstrument,
			CSVPath:    exportCSVPath,
			AvgPath:    exportAvgPath,
			PNGPath:    exportPNGPath,
		})
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportInstrument, "instrument", "", "Instrument name as configured (e.g. TUZ5)")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write rebased session CSV")
	exportCmd.Flags().StringVar(&exportAvgPath, "avg", "", "Path to write average session CSV")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	_ = exportCmd.MarkFlagRequired("instrument")
}
