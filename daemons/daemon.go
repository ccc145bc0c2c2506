package daemons

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/shared"
)

const (
	catalogSyncKey     = "daemons.catalogSync"
	popularPackagesKey = "daemons.popularPackages"
)

func getLastRunTime(configService shared.ConfigService, key string) (time.Time, error) {
	var lastRun struct {
		Time time.Time `json:"time"`
	}

	err := configService.GetJSONConfig(key, &lastRun)
	if errors.Is(err, shared.ErrNotFound) {
		slog.Info("no last run time found. Setting to 0", "key", key)
		return time.Time{}, nil
	} else if err != nil {
		slog.Error("could not get last run time", "err", err, "key", key)
		return time.Time{}, err
	}

	return lastRun.Time, nil
}

func (runner *DaemonRunner) shouldRun(key string, interval time.Duration) bool {
	lastTime, err := getLastRunTime(runner.configService, key)
	if err != nil {
		return false
	}
	return runner.now().Sub(lastTime) > interval
}

func (runner *DaemonRunner) markRan(key string) error {
	return runner.configService.SetJSONConfig(key, struct {
		Time time.Time `json:"time"`
	}{
		Time: runner.now(),
	})
}

// RunDaemons runs every periodic step once. A failing step does not stop the others.
func (runner *DaemonRunner) RunDaemons(ctx context.Context) error {
	runner.mu.Lock()
	defer runner.mu.Unlock()

	daemonStart := time.Now()
	var errs []error

	if runner.shouldRun(catalogSyncKey, runner.cfg.CatalogSyncInterval) {
		if err := runner.EnqueueCatalogSync(ctx); err != nil {
			errs = append(errs, fmt.Errorf("catalog sync: %w", err))
		} else if err := runner.markRan(catalogSyncKey); err != nil {
			slog.Error("could not mark catalog sync as run", "err", err)
		}
	}

	if runner.shouldRun(popularPackagesKey, runner.cfg.PopularSyncInterval) {
		if err := runner.SyncPopularPackages(ctx); err != nil {
			errs = append(errs, fmt.Errorf("popular packages: %w", err))
		} else if err := runner.markRan(popularPackagesKey); err != nil {
			slog.Error("could not mark popular packages as run", "err", err)
		}
	}

	if _, err := runner.EnqueueStalePackages(ctx); err != nil {
		errs = append(errs, fmt.Errorf("stale packages: %w", err))
	}
	if _, err := runner.EnqueueUnscannedVersions(ctx); err != nil {
		errs = append(errs, fmt.Errorf("unscanned versions: %w", err))
	}
	if _, err := runner.EnqueueOutdatedVersions(ctx); err != nil {
		errs = append(errs, fmt.Errorf("outdated versions: %w", err))
	}

	slog.Info("background jobs finished", "duration", time.Since(daemonStart), "failed", len(errs))
	return errors.Join(errs...)
}
