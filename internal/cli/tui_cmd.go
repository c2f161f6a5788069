package cli

import (
	"github.com/spf13/cobra"

	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/tui"
)

func newTUICmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive terminal interface",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gw, _, err := app.gateway(cmd.Context())
			if err != nil {
				return err
			}
			// log lines would tear the alternate screen
			app.Logger = log.Discard()
			queue := notify.NewQueue()
			tr, err := app.newTracker(gw, queue)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tr, queue)
		},
	}
}
