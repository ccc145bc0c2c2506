package commands

import (
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/daemons"
	"github.com/spf13/cobra"
)

func NewDaemonCommand() *cobra.Command {
	daemon := cobra.Command{
		Use:   "daemon",
		Short: "daemon",
	}

	daemon.AddCommand(&cobra.Command{
		Use:   "trigger",
		Short: "Runs one round of the background jobs regardless of leadership",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var runner *daemons.DaemonRunner
			closeAll, err := populate(cmd, &runner)
			if err != nil {
				return err
			}
			defer closeAll()

			start := time.Now()
			if err := runner.RunDaemons(cmd.Context()); err != nil {
				return err
			}
			slog.Info("background jobs finished", "duration", time.Since(start))
			return nil
		},
	})

	return &daemon
}
