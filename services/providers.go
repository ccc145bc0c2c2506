package services

import (
	"context"

	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/scanner"
	"github.com/l3montree-dev/imagecatalog/shared"
	"go.uber.org/fx"
)

func newInvoker(cfg config.Config) Scanner {
	return scanner.NewInvoker(cfg.ScannerBinary, cfg.ScannerTimeout)
}

func newVersionProvider(cfg config.Config) shared.ScannerVersionProvider {
	return scanner.NewVersionProvider(cfg.ScannerBinary)
}

// NewCatalogSource prefers a local checkout over cloning the repository.
func NewCatalogSource(cfg config.Config) CatalogSource {
	if cfg.CatalogPath != "" {
		return NewDirCatalogSource(cfg.CatalogPath)
	}
	return NewGitCatalogSource(cfg.CatalogRepositoryURL)
}

// newLeaderElector campaigns for leadership while the application runs.
func newLeaderElector(lc fx.Lifecycle, configService shared.ConfigService) shared.LeaderElector {
	elector := NewDatabaseLeaderElector(configService)
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go elector.Run(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return elector.resign()
		},
	})
	return elector
}

// ServiceModule provides all service-layer constructors
var ServiceModule = fx.Options(
	fx.Provide(fx.Annotate(NewConfigService, fx.As(new(shared.ConfigService)))),
	fx.Provide(newLeaderElector),
	fx.Provide(newInvoker),
	fx.Provide(newVersionProvider),
	fx.Provide(NewCatalogSource),
	fx.Provide(fx.Annotate(NewBOMSyncService, fx.As(new(shared.BOMSyncService)))),
	fx.Provide(fx.Annotate(NewCatalogSyncService, fx.As(new(shared.CatalogSyncService)))),
	fx.Provide(fx.Annotate(NewPackageSyncService, fx.As(new(shared.PackageSyncService)))),
	fx.Provide(fx.Annotate(NewDistroMatcher, fx.As(new(shared.DistroMatcher)))),
	fx.Provide(fx.Annotate(NewDistroService, fx.As(new(shared.DistroService)))),
)
