package services

import (
	"sort"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/pkg/errors"
)

type DistroService struct {
	distroRepository  shared.DistroRepository
	packageRepository shared.PackageRepository
}

func NewDistroService(distroRepository shared.DistroRepository, packageRepository shared.PackageRepository) *DistroService {
	return &DistroService{
		distroRepository:  distroRepository,
		packageRepository: packageRepository,
	}
}

func (s *DistroService) Detail(slug string) (dtos.DistroDetail, error) {
	distro, err := s.distroRepository.FindBySlug(nil, slug)
	if err != nil {
		return dtos.DistroDetail{}, err
	}

	detail := dtos.DistroDetail{
		Distro:             distro,
		GroupingKey:        distro.GroupingKey(),
		DisplayName:        distro.DisplayName(),
		VersionDisplayText: distro.VersionDisplayText(),
		IsRollingRelease:   distro.IsRollingRelease(),
		RelatedDistros:     []models.Distro{},
	}

	if ids := distro.IDLikeList(); len(ids) > 0 {
		related, err := s.distroRepository.ListByIDFields(ids, distro.ID)
		if err != nil {
			return detail, errors.Wrap(err, "could not load related distros")
		}
		detail.RelatedDistros = related
	}

	if image, ok := distro.LikelyDockerImage(); ok {
		detail.LikelyDockerImage = &image
		pkg, err := s.likelyPackage(image.PackageName)
		if err != nil {
			return detail, err
		}
		detail.LikelyPackage = pkg
	}
	return detail, nil
}

// likelyPackage prefers the official library namespace.
func (s *DistroService) likelyPackage(name string) (*models.Package, error) {
	for _, candidate := range []string{"library/" + name, name} {
		pkg, err := s.packageRepository.FindByName(nil, candidate)
		if err == nil {
			return &pkg, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// Groups clusters the catalog by grouping key. Groups with the most images come first.
func (s *DistroService) Groups() ([]dtos.DistroGroup, error) {
	distros, err := s.distroRepository.All()
	if err != nil {
		return nil, errors.Wrap(err, "could not load distros")
	}

	byKey := make(map[string][]models.Distro)
	for _, d := range distros {
		key := d.GroupingKey()
		byKey[key] = append(byKey[key], d)
	}

	groups := make([]dtos.DistroGroup, 0, len(byKey))
	for key, members := range byKey {
		sortGroupMembers(members)
		groups = append(groups, dtos.DistroGroup{
			GroupingKey: key,
			Label:       normalize.GroupLabel(key),
			Stats:       models.GroupStats(members),
			Distros:     members,
		})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Stats.TotalImages != groups[j].Stats.TotalImages {
			return groups[i].Stats.TotalImages > groups[j].Stats.TotalImages
		}
		return groups[i].GroupingKey < groups[j].GroupingKey
	})
	return groups, nil
}

func sortGroupMembers(members []models.Distro) {
	sort.SliceStable(members, func(i, j int) bool {
		a, b := members[i], members[j]
		if a.VersionsCount != b.VersionsCount {
			return a.VersionsCount > b.VersionsCount
		}
		return a.PrettyName < b.PrettyName
	})
}
