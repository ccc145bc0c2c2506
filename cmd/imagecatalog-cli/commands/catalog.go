package commands

import (
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/spf13/cobra"
)

func NewCatalogCommand() *cobra.Command {
	catalog := cobra.Command{
		Use:   "catalog",
		Short: "Distro catalog",
	}

	sync := &cobra.Command{
		Use:   "sync",
		Short: "Reconciles the distro table with the os-release catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var catalogSync shared.CatalogSyncService
			closeAll, err := populate(cmd, &catalogSync)
			if err != nil {
				return err
			}
			defer closeAll()

			start := time.Now()
			report, err := catalogSync.Sync(cmd.Context())
			if err != nil {
				return err
			}
			slog.Info("catalog synchronized", "duration", time.Since(start))
			return printJSON(report)
		},
	}
	sync.Flags().String("catalog-path", "", "local os-release checkout, overrides CATALOG_REPOSITORY_URL")
	sync.Flags().String("catalog-repository-url", "", "git repository to clone the catalog from")
	catalog.AddCommand(sync)

	return &catalog
}
