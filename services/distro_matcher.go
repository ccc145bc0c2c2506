package services

import (
	"log/slog"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/pkg/errors"
)

// DistroMatcher resolves the distro recorded on a version to a catalog entry.
type DistroMatcher struct {
	distroRepository     shared.DistroRepository
	versionRepository    shared.VersionRepository
	scanResultRepository shared.ScanResultRepository
}

func NewDistroMatcher(distroRepository shared.DistroRepository, versionRepository shared.VersionRepository, scanResultRepository shared.ScanResultRepository) *DistroMatcher {
	return &DistroMatcher{
		distroRepository:     distroRepository,
		versionRepository:    versionRepository,
		scanResultRepository: scanResultRepository,
	}
}

// Match tries the pretty name first and falls back to the scanner's id and version id.
// An unknown distro is reported as (Distro{}, false, nil).
func (m *DistroMatcher) Match(tx shared.DB, distroName string, scanned *normalize.ScannedDistro) (models.Distro, bool, error) {
	if distroName != "" {
		distro, err := m.distroRepository.FindByPrettyName(tx, distroName)
		if err == nil {
			return distro, true, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return models.Distro{}, false, err
		}
	}

	if scanned == nil || scanned.ID == "" || scanned.VersionID == "" {
		return models.Distro{}, false, nil
	}

	distro, err := m.distroRepository.FindByIdentity(tx, scanned.ID, scanned.VersionID, utils.EmptyThenNil(scanned.VariantID))
	if errors.Is(err, shared.ErrNotFound) {
		return models.Distro{}, false, nil
	}
	if err != nil {
		return models.Distro{}, false, err
	}
	return distro, true, nil
}

func (m *DistroMatcher) MatchVersion(tx shared.DB, v models.Version) (models.Distro, bool, error) {
	var scanned *normalize.ScannedDistro
	scanResult, err := m.scanResultRepository.FindByVersionID(tx, v.ID)
	switch {
	case err == nil:
		if d, ok := scanResult.ScannedDistro(); ok {
			scanned = &d
		}
	case !errors.Is(err, shared.ErrNotFound):
		return models.Distro{}, false, err
	}
	return m.Match(tx, utils.SafeDereference(v.DistroName), scanned)
}

// MissingFromCatalog lists distro names found in scans that resolve to no catalog entry, most frequent first.
func (m *DistroMatcher) MissingFromCatalog() ([]dtos.MissingDistro, error) {
	counts, err := m.versionRepository.CountByDistroName()
	if err != nil {
		return nil, errors.Wrap(err, "could not count versions by distro")
	}

	missing := make([]dtos.MissingDistro, 0)
	for _, c := range counts {
		var scanned *normalize.ScannedDistro
		sample, err := m.versionRepository.SampleScanResult(c.DistroName)
		switch {
		case err == nil:
			if d, ok := sample.ScannedDistro(); ok {
				scanned = &d
			}
		case !errors.Is(err, shared.ErrNotFound):
			return nil, err
		}

		_, found, err := m.Match(nil, c.DistroName, scanned)
		if err != nil {
			return nil, err
		}
		if found {
			continue
		}
		slog.Debug("distro missing from catalog", "distro", c.DistroName, "count", c.Count)
		missing = append(missing, dtos.MissingDistro{
			DistroName:   c.DistroName,
			Count:        c.Count,
			GuessedImage: normalize.GuessDockerImage(c.DistroName),
		})
	}
	return missing, nil
}
