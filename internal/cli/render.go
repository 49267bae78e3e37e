package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"sessionchart/internal/app"
)

var (
	renderOut   string
	renderEvery time.Duration
	renderCron  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write session charts, CSV files and the dashboard page",
	RunE: func(cmd *cobra.Command, args []string) error {
		if renderEvery < 0 {
			return fmt.Errorf("--every must not be negative")
		}
		return getApp().Render(cmd.Context(), app.RenderOptions{
			OutDir: renderOut,
			Every:  renderEvery,
			Cron:   renderCron,
		})
	},
}

func init() {
	renderCmd.Flags().StringVar(&renderOut, "out", "", "Output directory (defaults to output.dir)")
	renderCmd.Flags().DurationVar(&renderEvery, "every", 0, "Re-render on this interval until interrupted (defaults to scheduler.interval)")
	renderCmd.Flags().StringVar(&renderCron, "cron", "", "Re-render on a cron schedule until interrupted (defaults to scheduler.cron)")
}
