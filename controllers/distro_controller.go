package controllers

import (
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/labstack/echo/v4"
)

type DistroController struct {
	distroRepository shared.DistroRepository
	distroService    shared.DistroService
	distroMatcher    shared.DistroMatcher
}

func NewDistroController(distroRepository shared.DistroRepository, distroService shared.DistroService, distroMatcher shared.DistroMatcher) *DistroController {
	return &DistroController{
		distroRepository: distroRepository,
		distroService:    distroService,
		distroMatcher:    distroMatcher,
	}
}

// @Summary List catalog entries
// @Param q query string false "Search in the pretty name"
// @Success 200 {object} shared.Paged[models.Distro]
// @Router /distros [get]
func (c *DistroController) List(ctx shared.Context) error {
	sort := shared.GetSortQuery(ctx, repositories.DistroSortFields, shared.SortQuery{Field: "versions_count", Operator: "desc"})
	paged, err := c.distroRepository.ListPaged(shared.GetPageInfo(ctx), shared.GetSearch(ctx), sort)
	if err != nil {
		return echo.NewHTTPError(500, "could not list distros").WithInternal(err)
	}
	return ctx.JSON(200, paged)
}

// @Summary List catalog entries grouped by distribution family
// @Success 200 {array} dtos.DistroGroup
// @Router /distros/groups [get]
func (c *DistroController) Groups(ctx shared.Context) error {
	groups, err := c.distroService.Groups()
	if err != nil {
		return echo.NewHTTPError(500, "could not group distros").WithInternal(err)
	}
	return ctx.JSON(200, groups)
}

// @Summary List distros found in scans which are not in the catalog
// @Success 200 {array} dtos.MissingDistro
// @Router /distros/missing [get]
func (c *DistroController) Missing(ctx shared.Context) error {
	missing, err := c.distroMatcher.MissingFromCatalog()
	if err != nil {
		return echo.NewHTTPError(500, "could not compute missing distros").WithInternal(err)
	}
	return ctx.JSON(200, missing)
}

// @Summary Read catalog entry
// @Param slug path string true "Distro slug"
// @Success 200 {object} dtos.DistroDetail
// @Router /distros/{slug} [get]
func (c *DistroController) Read(ctx shared.Context) error {
	slug := shared.SanitizeParam(ctx.Param("slug"))
	detail, err := c.distroService.Detail(slug)
	if err != nil {
		return notFoundOr(err, "distro")
	}
	return conditionalJSON(ctx, detail.ID, detail.UpdatedAt, detail)
}
