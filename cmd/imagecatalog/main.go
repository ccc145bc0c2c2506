// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/controllers"
	"github.com/l3montree-dev/imagecatalog/daemons"
	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/middlewares"
	"github.com/l3montree-dev/imagecatalog/monitoring"
	"github.com/l3montree-dev/imagecatalog/queue"
	"github.com/l3montree-dev/imagecatalog/router"
	"github.com/l3montree-dev/imagecatalog/services"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

var release string // set at build time

//	@title			imagecatalog API
//	@version		v1
//	@description	Container image BOMs and distro identities

//	@license.name	AGPL-3

// @host		localhost:8080
// @BasePath	/api/v1
func main() {
	shared.LoadConfig() // nolint: errcheck
	shared.InitLogger(shared.ParseLogLevel(os.Getenv("LOG_LEVEL")))
	monitoring.InitSentry(release)

	if err := run(); err != nil {
		slog.Error("imagecatalog stopped", "err", err)
		monitoring.Flush()
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}

	db, pool, err := database.NewFromEnv()
	if err != nil {
		return fmt.Errorf("failed to setup database connection: %w", err)
	}
	defer pool.Close()

	if os.Getenv("DISABLE_AUTOMIGRATE") != "true" {
		slog.Info("running database migrations...")
		if err := database.RunMigrationsWithDB(db); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	} else {
		slog.Info("automatic migrations disabled via DISABLE_AUTOMIGRATE=true")
	}

	broker := database.NewPostgreSQLBroker(pool)
	defer broker.Close()

	app := fx.New(
		fx.Supply(db, cfg),
		fx.Provide(func() shared.PubSubBroker { return broker }),
		fx.Provide(middlewares.Server),
		repositories.Module,
		queue.Module,
		services.ServiceModule,
		controllers.ControllerModule,
		router.RouterModule,
		daemons.StartModule,

		fx.Invoke(services.RegisterJobHandlers),
		fx.Invoke(runWorkers),
		fx.Invoke(func(router.APIV1Router) {}),
		fx.Invoke(serve),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func runWorkers(lc fx.Lifecycle, pool *queue.WorkerPool) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				if err := pool.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					slog.Error("worker pool stopped", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}

func serve(lc fx.Lifecycle, e *echo.Echo, cfg config.Config) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
					slog.Error("server stopped", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return e.Shutdown(ctx)
		},
	})
}
