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

package daemons

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/monitoring"
	"github.com/l3montree-dev/imagecatalog/shared"
	"go.uber.org/fx"
)

// DaemonRunner periodically feeds the job queue. Only the leader instance does work.
type DaemonRunner struct {
	configService      shared.ConfigService
	leaderElector      shared.LeaderElector
	jobQueue           shared.JobQueue
	packageRepository  shared.PackageRepository
	versionRepository  shared.VersionRepository
	packageSyncService shared.PackageSyncService
	versionProvider    shared.ScannerVersionProvider
	cfg                config.Config
	now                func() time.Time

	// serializes ticks with manual triggers
	mu sync.Mutex
}

func NewDaemonRunner(
	configService shared.ConfigService,
	leaderElector shared.LeaderElector,
	jobQueue shared.JobQueue,
	packageRepository shared.PackageRepository,
	versionRepository shared.VersionRepository,
	packageSyncService shared.PackageSyncService,
	versionProvider shared.ScannerVersionProvider,
	cfg config.Config,
) *DaemonRunner {
	return &DaemonRunner{
		configService:      configService,
		leaderElector:      leaderElector,
		jobQueue:           jobQueue,
		packageRepository:  packageRepository,
		versionRepository:  versionRepository,
		packageSyncService: packageSyncService,
		versionProvider:    versionProvider,
		cfg:                cfg,
		now:                time.Now,
	}
}

// Start ticks every DAEMON_INTERVAL until ctx is done.
func (runner *DaemonRunner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(runner.cfg.DaemonInterval)
		defer ticker.Stop()
		for {
			runner.tick(ctx)
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}

func (runner *DaemonRunner) tick(ctx context.Context) {
	if !runner.leaderElector.IsLeader() {
		slog.Debug("not the leader - skipping background jobs")
		return
	}
	slog.Info("this instance is the leader - running background jobs")
	if err := runner.RunDaemons(ctx); err != nil {
		slog.Error("background jobs failed", "err", err)
	}
}

func newDaemonRunnerWithLifecycle(lc fx.Lifecycle, runner *DaemonRunner) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			runner.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

// observe records the duration of one daemon step.
func observe(daemon string, start time.Time) {
	monitoring.DaemonTickDuration.WithLabelValues(daemon).Observe(time.Since(start).Minutes())
}

var Module = fx.Module("daemons",
	fx.Provide(NewDaemonRunner),
)

// StartModule additionally runs the ticker for the lifetime of the application.
var StartModule = fx.Options(
	Module,
	fx.Invoke(newDaemonRunnerWithLifecycle),
)
