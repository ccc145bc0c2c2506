package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/queue"
	"github.com/l3montree-dev/imagecatalog/services"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	version := cobra.Command{
		Use:   "version",
		Short: "Image versions",
	}

	sync := &cobra.Command{
		Use:     "sync <package> <number>",
		Short:   "Scans one image version and stores its dependencies",
		Example: "imagecatalog-cli version sync library/redis 7.2",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				packageRepository shared.PackageRepository
				versionRepository shared.VersionRepository
				bomSync           shared.BOMSyncService
				jobQueue          *queue.Queue
			)
			closeAll, err := populate(cmd, &packageRepository, &versionRepository, &bomSync, &jobQueue)
			if err != nil {
				return err
			}
			defer closeAll()

			p, err := packageRepository.FindByName(nil, args[0])
			if err != nil {
				return fmt.Errorf("could not find package %s: %w", args[0], err)
			}
			v, err := versionRepository.FindOrCreateByNumber(nil, p.ID, args[1])
			if err != nil {
				return err
			}
			ran, err := jobQueue.RunExclusive(cmd.Context(), models.JobKindBOMSync, services.EntityKey(v.ID), func(ctx context.Context) error {
				return bomSync.SyncVersion(ctx, v.ID)
			})
			if err != nil {
				return err
			}
			if !ran {
				return fmt.Errorf("%s is already queued or being scanned, try again later", v.ImageReference(p.Name))
			}
			slog.Info("version synchronized", "image", v.ImageReference(p.Name))
			return nil
		},
	}
	sync.Flags().String("scanner-binary", "", "overrides SCANNER_BINARY")
	sync.Flags().Duration("scanner-timeout", 0, "overrides SCANNER_TIMEOUT")
	version.AddCommand(sync)

	return &version
}
