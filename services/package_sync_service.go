package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/l3montree-dev/imagecatalog/common"
	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/pkg/errors"
)

const popularPageKey = "packages.popularPage"

const popularPageSize = 100

// PackageSyncService mirrors package metadata from the packages api.
type PackageSyncService struct {
	packageRepository shared.PackageRepository
	versionRepository shared.VersionRepository
	configService     shared.ConfigService
	jobQueue          shared.JobQueue
	client            *http.Client
	apiURL            string
	now               func() time.Time
}

func NewPackageSyncService(
	packageRepository shared.PackageRepository,
	versionRepository shared.VersionRepository,
	configService shared.ConfigService,
	jobQueue shared.JobQueue,
	cfg config.Config,
) *PackageSyncService {
	return &PackageSyncService{
		packageRepository: packageRepository,
		versionRepository: versionRepository,
		configService:     configService,
		jobQueue:          jobQueue,
		client:            common.NewHTTPClient(30*time.Second, cfg.HTTPCacheTTL),
		apiURL:            cfg.PackagesAPIURL,
		now:               time.Now,
	}
}

func (s *PackageSyncService) getJSON(ctx context.Context, u string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "could not reach packages api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("packages api answered %d for %s", resp.StatusCode, u)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// SyncLatestRelease reads the latest release of the package and schedules a scan if it changed.
func (s *PackageSyncService) SyncLatestRelease(ctx context.Context, packageID uint) error {
	pkg, err := s.packageRepository.Read(packageID)
	if err != nil {
		return errors.Wrap(err, "could not read package")
	}

	var remote dtos.EcosystemsPackageResponse
	if err := s.getJSON(ctx, s.apiURL+"/packages/"+pkg.Name, &remote); err != nil {
		return err
	}

	now := s.now()
	number := "latest"
	if remote.LatestReleaseNumber != nil && *remote.LatestReleaseNumber != "" {
		number = *remote.LatestReleaseNumber
	}

	if remote.Description != nil {
		pkg.Description = remote.Description
	}
	pkg.Downloads = utils.OrDefault(remote.Downloads, pkg.Downloads)
	if remote.RepositoryURL != nil {
		pkg.RepositoryURL = remote.RepositoryURL
	}
	pkg.LastSyncedAt = &now

	unchanged := pkg.LatestReleaseNumber != nil && *pkg.LatestReleaseNumber == number &&
		sameTime(pkg.LatestReleasePublishedAt, remote.LatestReleasePublishedAt)
	if unchanged {
		slog.Debug("latest release unchanged", "package", pkg.Name, "release", number)
		return s.packageRepository.UpdateMetadata(nil, &pkg)
	}

	var version models.Version
	err = s.packageRepository.Transaction(func(tx shared.DB) error {
		var err error
		version, err = s.versionRepository.FindOrCreateByNumber(tx, pkg.ID, number)
		if err != nil {
			return err
		}
		if err := s.versionRepository.SetPublishedAt(tx, version.ID, remote.LatestReleasePublishedAt); err != nil {
			return err
		}

		pkg.LatestReleaseNumber = &number
		pkg.LatestReleasePublishedAt = remote.LatestReleasePublishedAt
		if err := s.packageRepository.UpdateMetadata(tx, &pkg); err != nil {
			return err
		}
		return s.packageRepository.RefreshVersionsCount(tx, pkg.ID)
	})
	if err != nil {
		return shared.WithCause(shared.ErrPersistence, err)
	}

	if _, err := s.jobQueue.Enqueue(ctx, models.JobKindBOMSync, EntityKey(version.ID)); err != nil {
		return errors.Wrap(err, "could not enqueue bom sync")
	}
	slog.Info("new release found", "package", pkg.Name, "release", number)
	return nil
}

// SyncPopular discovers one page of the most downloaded packages. The next page is remembered across runs.
func (s *PackageSyncService) SyncPopular(ctx context.Context) error {
	page := 1
	if err := s.configService.GetJSONConfig(popularPageKey, &page); err != nil && !errors.Is(err, shared.ErrNotFound) {
		return errors.Wrap(err, "could not read popular page cursor")
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("sort", "downloads")
	q.Set("order", "desc")
	q.Set("limit", strconv.Itoa(popularPageSize))
	q.Set("page", strconv.Itoa(page))

	var remote []dtos.EcosystemsPackageResponse
	if err := s.getJSON(ctx, s.apiURL+"/packages?"+q.Encode(), &remote); err != nil {
		return err
	}

	listed := utils.Filter(remote, func(r dtos.EcosystemsPackageResponse) bool {
		return r.Downloads != nil && r.Name != ""
	})
	enqueued := 0
	for _, r := range listed {
		pkg, err := s.packageRepository.FindOrCreateByName(nil, r.Name)
		if err != nil {
			return errors.Wrapf(err, "could not store package %s", r.Name)
		}
		added, err := s.jobQueue.Enqueue(ctx, models.JobKindPackageSync, EntityKey(pkg.ID))
		if err != nil {
			return err
		}
		if added {
			enqueued++
		}
	}

	next := page + 1
	if len(remote) == 0 {
		// ran past the last page
		next = 1
	}
	slog.Info("popular packages discovered", "page", page, "received", len(remote), "enqueued", enqueued)
	return s.configService.SetJSONConfig(popularPageKey, next)
}
