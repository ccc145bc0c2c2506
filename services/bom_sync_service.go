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

package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/scanner"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/pkg/errors"
)

type Scanner interface {
	Scan(ctx context.Context, imageRef string) scanner.Result
}

type BOMSyncService struct {
	packageRepository    shared.PackageRepository
	versionRepository    shared.VersionRepository
	scanResultRepository shared.ScanResultRepository
	dependencyRepository shared.DependencyRepository
	scanner              Scanner
	now                  func() time.Time
}

func NewBOMSyncService(
	packageRepository shared.PackageRepository,
	versionRepository shared.VersionRepository,
	scanResultRepository shared.ScanResultRepository,
	dependencyRepository shared.DependencyRepository,
	scanner Scanner,
) *BOMSyncService {
	return &BOMSyncService{
		packageRepository:    packageRepository,
		versionRepository:    versionRepository,
		scanResultRepository: scanResultRepository,
		dependencyRepository: dependencyRepository,
		scanner:              scanner,
		now:                  time.Now,
	}
}

// SyncVersion scans the image of one version and replaces its bom.
// Scan, parse and persistence failures are recorded on the version and returned, the previous bom stays intact.
func (s *BOMSyncService) SyncVersion(ctx context.Context, versionID uint) error {
	version, err := s.versionRepository.Read(versionID)
	if err != nil {
		return errors.Wrap(err, "could not read version")
	}
	pkg, err := s.packageRepository.Read(version.PackageID)
	if err != nil {
		return errors.Wrap(err, "could not read package")
	}

	imageRef := version.ImageReference(pkg.Name)
	slog.Info("scanning image", "image", imageRef, "versionID", version.ID)

	res := s.scanner.Scan(ctx, imageRef)
	if err := scanFailure(res); err != nil {
		return s.recordFailure(version, err)
	}

	doc, err := scanner.ParseDocument(res.Output)
	if err != nil {
		return s.recordFailure(version, shared.WithCause(shared.ErrScanOutputParse, err))
	}

	if err := s.persist(pkg, version, doc); err != nil {
		return s.recordFailure(version, shared.WithCause(shared.ErrPersistence, err))
	}

	slog.Info("scanned image", "image", imageRef, "artifacts", len(doc.Artifacts), "duration", res.Duration)
	return nil
}

func scanFailure(res scanner.Result) error {
	switch res.Outcome {
	case scanner.OutcomeSuccess:
		return nil
	case scanner.OutcomeTimeout:
		return shared.WithCause(shared.ErrScanTimeout, res.Err)
	default:
		return shared.WithCause(shared.ErrScanExecution, res.Err)
	}
}

// persist writes the scan result, the cached summaries and the dependency set in one transaction.
func (s *BOMSyncService) persist(pkg models.Package, version models.Version, doc scanner.Document) error {
	deps := utils.Map(normalize.ExtractDependencies(doc.Purls()), func(r normalize.DependencyRecord) models.Dependency {
		return models.NewDependency(pkg.ID, version.ID, r)
	})
	now := s.now()

	return s.packageRepository.Transaction(func(tx shared.DB) error {
		scanResult := models.ScanResult{VersionID: version.ID, Data: doc.Raw}
		if err := s.scanResultRepository.Upsert(tx, &scanResult); err != nil {
			return errors.Wrap(err, "could not store scan result")
		}
		if err := s.versionRepository.ApplyScanSummary(tx, version.ID, scanResult.DistroName, scanResult.SyftVersion, scanResult.ArtifactsCount, now); err != nil {
			return errors.Wrap(err, "could not update version")
		}
		if err := s.packageRepository.MarkScanned(tx, pkg.ID, len(deps), now); err != nil {
			return errors.Wrap(err, "could not update package")
		}
		if err := s.dependencyRepository.ReplaceForVersion(tx, version.ID, deps); err != nil {
			return errors.Wrap(err, "could not replace dependencies")
		}
		return nil
	})
}

func (s *BOMSyncService) recordFailure(version models.Version, err error) error {
	syncErr := shared.SyncErrorString(err)
	slog.Warn("could not sync bom", "versionID", version.ID, "err", syncErr)
	if recordErr := s.versionRepository.RecordSyncFailure(version.ID, syncErr, s.now()); recordErr != nil {
		return errors.Wrap(recordErr, "could not record sync failure")
	}
	return err
}
