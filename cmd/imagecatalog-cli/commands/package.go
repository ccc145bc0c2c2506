package commands

import (
	"log/slog"

	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/spf13/cobra"
)

func NewPackageCommand() *cobra.Command {
	pkg := cobra.Command{
		Use:   "package",
		Short: "Image packages",
	}

	sync := &cobra.Command{
		Use:     "sync <name>...",
		Short:   "Fetches the latest release of the given packages",
		Example: "imagecatalog-cli package sync library/redis bitnami/postgresql",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				packageRepository shared.PackageRepository
				packageSync       shared.PackageSyncService
			)
			closeAll, err := populate(cmd, &packageRepository, &packageSync)
			if err != nil {
				return err
			}
			defer closeAll()

			for _, name := range args {
				p, err := packageRepository.FindOrCreateByName(nil, name)
				if err != nil {
					return err
				}
				if err := packageSync.SyncLatestRelease(cmd.Context(), p.ID); err != nil {
					return err
				}
				slog.Info("package synchronized", "package", name)
			}
			return nil
		},
	}
	sync.Flags().String("packages-api-url", "", "overrides PACKAGES_API_URL")
	pkg.AddCommand(sync)

	popular := &cobra.Command{
		Use:   "popular",
		Short: "Discovers the next page of popular packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var packageSync shared.PackageSyncService
			closeAll, err := populate(cmd, &packageSync)
			if err != nil {
				return err
			}
			defer closeAll()
			return packageSync.SyncPopular(cmd.Context())
		},
	}
	popular.Flags().String("packages-api-url", "", "overrides PACKAGES_API_URL")
	pkg.AddCommand(popular)

	return &pkg
}
