package controllers

import (
	"strings"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/labstack/echo/v4"
)

type DependencyController struct {
	dependencyRepository shared.DependencyRepository
}

func NewDependencyController(dependencyRepository shared.DependencyRepository) *DependencyController {
	return &DependencyController{
		dependencyRepository: dependencyRepository,
	}
}

type dependencyLookupResponse struct {
	Usage        dtos.DependencyUsage            `json:"usage"`
	Dependencies shared.Paged[models.Dependency] `json:"dependencies"`
}

// @Summary Find the images depending on a package
// @Param ecosystem query string true "Package type like deb or npm"
// @Param name query string true "Package name"
// @Success 200 {object} dependencyLookupResponse
// @Router /dependencies [get]
func (c *DependencyController) Lookup(ctx shared.Context) error {
	ecosystem := strings.TrimSpace(ctx.QueryParam("ecosystem"))
	name := strings.TrimSpace(ctx.QueryParam("name"))
	if ecosystem == "" || name == "" {
		return echo.NewHTTPError(400, "ecosystem and name are required")
	}

	usage, err := c.dependencyRepository.Usage(ecosystem, name)
	if err != nil {
		return echo.NewHTTPError(500, "could not compute usage").WithInternal(err)
	}
	deps, err := c.dependencyRepository.ListByPackageName(ecosystem, name, shared.GetPageInfo(ctx))
	if err != nil {
		return echo.NewHTTPError(500, "could not list dependencies").WithInternal(err)
	}
	return ctx.JSON(200, dependencyLookupResponse{Usage: usage, Dependencies: deps})
}
