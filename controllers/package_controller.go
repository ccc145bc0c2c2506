package controllers

import (
	"net/http"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type PackageController struct {
	packageRepository    shared.PackageRepository
	versionRepository    shared.VersionRepository
	scanResultRepository shared.ScanResultRepository
	dependencyRepository shared.DependencyRepository
	distroMatcher        shared.DistroMatcher
	versionProvider      shared.ScannerVersionProvider
}

func NewPackageController(
	packageRepository shared.PackageRepository,
	versionRepository shared.VersionRepository,
	scanResultRepository shared.ScanResultRepository,
	dependencyRepository shared.DependencyRepository,
	distroMatcher shared.DistroMatcher,
	versionProvider shared.ScannerVersionProvider,
) *PackageController {
	return &PackageController{
		packageRepository:    packageRepository,
		versionRepository:    versionRepository,
		scanResultRepository: scanResultRepository,
		dependencyRepository: dependencyRepository,
		distroMatcher:        distroMatcher,
		versionProvider:      versionProvider,
	}
}

// @Summary List packages
// @Param q query string false "Search in name and description"
// @Param sort query string false "name, downloads, versions_count, dependencies_count, last_synced_at, latest_release_published_at"
// @Param order query string false "asc or desc"
// @Success 200 {object} shared.Paged[models.Package]
// @Router /packages [get]
func (c *PackageController) List(ctx shared.Context) error {
	sort := shared.GetSortQuery(ctx, repositories.PackageSortFields, shared.SortQuery{Field: "downloads", Operator: "desc"})
	paged, err := c.packageRepository.ListPaged(shared.GetPageInfo(ctx), shared.GetSearch(ctx), sort)
	if err != nil {
		return echo.NewHTTPError(500, "could not list packages").WithInternal(err)
	}
	return ctx.JSON(200, paged)
}

// @Summary Read package
// @Param name path string true "Package name, path-escaped"
// @Success 200 {object} dtos.PackageDetail
// @Router /packages/{name} [get]
func (c *PackageController) Read(ctx shared.Context) error {
	name, err := packageName(ctx)
	if err != nil {
		return err
	}
	pkg, err := c.packageRepository.FindByName(nil, name)
	if err != nil {
		return notFoundOr(err, "package")
	}

	versions, err := c.versionRepository.ListByPackage(pkg.ID, shared.GetPageInfo(ctx))
	if err != nil {
		return echo.NewHTTPError(500, "could not list versions").WithInternal(err)
	}

	detail := dtos.PackageDetail{
		Package:         pkg,
		PackagesHTMLURL: pkg.PackagesHTMLURL(),
		DockerHubURL:    pkg.DockerHubURL(),
		Versions:        versions.Data,
		VersionsTotal:   versions.Total,
	}
	latest, err := c.versionRepository.ListLatestByPackage(nil, pkg.ID)
	switch {
	case err == nil:
		detail.LatestVersion = &latest
	case !errors.Is(err, shared.ErrNotFound):
		return echo.NewHTTPError(500, "could not load latest version").WithInternal(err)
	}

	return conditionalJSON(ctx, pkg.ID, pkg.UpdatedAt, detail)
}

func (c *PackageController) readVersion(ctx shared.Context) (models.Package, models.Version, error) {
	name, err := packageName(ctx)
	if err != nil {
		return models.Package{}, models.Version{}, err
	}
	number := strings.TrimSpace(ctx.QueryParam("number"))
	if number == "" {
		return models.Package{}, models.Version{}, echo.NewHTTPError(400, "version number is required")
	}

	pkg, err := c.packageRepository.FindByName(nil, name)
	if err != nil {
		return pkg, models.Version{}, notFoundOr(err, "package")
	}
	version, err := c.versionRepository.FindByNumber(nil, pkg.ID, number)
	if err != nil {
		return pkg, version, notFoundOr(err, "version")
	}
	return pkg, version, nil
}

// @Summary Read version
// @Param name query string true "Package name"
// @Param number query string true "Version number"
// @Success 200 {object} dtos.VersionDetail
// @Router /packages/versions [get]
func (c *PackageController) ReadVersion(ctx shared.Context) error {
	pkg, version, err := c.readVersion(ctx)
	if err != nil {
		return err
	}

	detail := dtos.VersionDetail{
		Version:        version,
		PackageName:    pkg.Name,
		ImageReference: version.ImageReference(pkg.Name),
		Purls:          []string{},
	}
	if current, err := c.versionProvider.Version(ctx.Request().Context()); err == nil {
		detail.Outdated = version.Outdated(current)
	}

	scanResult, err := c.scanResultRepository.FindByVersionID(nil, version.ID)
	switch {
	case err == nil:
		detail.Purls = scanResult.Purls()
	case !errors.Is(err, shared.ErrNotFound):
		return echo.NewHTTPError(500, "could not load scan result").WithInternal(err)
	}

	distro, found, err := c.distroMatcher.MatchVersion(nil, version)
	if err != nil {
		return echo.NewHTTPError(500, "could not match distro").WithInternal(err)
	}
	if found {
		detail.Distro = &distro
	}

	return conditionalJSON(ctx, version.ID, version.UpdatedAt, detail)
}

// @Summary List the dependencies of a version
// @Param name query string true "Package name"
// @Param number query string true "Version number"
// @Success 200 {array} models.Dependency
// @Router /packages/versions/dependencies [get]
func (c *PackageController) ListDependencies(ctx shared.Context) error {
	_, version, err := c.readVersion(ctx)
	if err != nil {
		return err
	}
	deps, err := c.dependencyRepository.ListByVersion(nil, version.ID)
	if err != nil {
		return echo.NewHTTPError(500, "could not list dependencies").WithInternal(err)
	}
	return ctx.JSON(200, deps)
}

// @Summary Export the dependencies of a version as CycloneDX
// @Param name query string true "Package name"
// @Param number query string true "Version number"
// @Success 200 {object} cdx.BOM
// @Router /packages/versions/sbom.cdx.json [get]
func (c *PackageController) SBOMJSON(ctx shared.Context) error {
	pkg, version, err := c.readVersion(ctx)
	if err != nil {
		return err
	}
	deps, err := c.dependencyRepository.ListByVersion(nil, version.ID)
	if err != nil {
		return echo.NewHTTPError(500, "could not list dependencies").WithInternal(err)
	}

	syncedAt := version.UpdatedAt
	if version.LastSyncedAt != nil {
		syncedAt = *version.LastSyncedAt
	}
	bom := normalize.DependenciesToCycloneDX(pkg.Name, version.Number, utils.SafeDereference(version.SyftVersion), syncedAt, utils.Map(deps, models.Dependency.Record))

	ctx.Response().Header().Set(echo.HeaderContentType, "application/vnd.cyclonedx+json")
	ctx.Response().WriteHeader(http.StatusOK)
	return cdx.NewBOMEncoder(ctx.Response().Writer, cdx.BOMFileFormatJSON).Encode(bom)
}
