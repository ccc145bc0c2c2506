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


package router

import (
	"github.com/l3montree-dev/imagecatalog/controllers"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type APIV1Router struct {
	*echo.Group
}

func NewAPIV1Router(e *echo.Echo,
	db shared.DB,
	packageController *controllers.PackageController,
	distroController *controllers.DistroController,
	dependencyController *controllers.DependencyController,
	scannerController *controllers.ScannerController,
) APIV1Router {
	e.GET("/metrics/", echo.WrapHandler(promhttp.Handler()))

	apiV1Router := e.Group("/api/v1")
	apiV1Router.GET("/health/", func(ctx echo.Context) error {
		// Check database connectivity
		sqlDB, err := db.DB()
		if err != nil {
			return ctx.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  "failed to get database instance",
			})
		}

		if err := sqlDB.Ping(); err != nil {
			return ctx.JSON(503, map[string]string{
				"status": "unhealthy",
				"error":  "database ping failed",
			})
		}

		return ctx.JSON(200, map[string]string{
			"status": "healthy",
		})
	})
	apiV1Router.GET("/scanner/", scannerController.Info)
	apiV1Router.GET("/dependencies/", dependencyController.Lookup)

	packageRouter := apiV1Router.Group("/packages")
	packageRouter.GET("/", packageController.List)
	packageRouter.GET("/versions/", packageController.ReadVersion)
	packageRouter.GET("/versions/dependencies/", packageController.ListDependencies)
	packageRouter.GET("/versions/sbom.cdx.json/", packageController.SBOMJSON)
	// escaped names keep their raw path, which the trailing slash middleware does not touch
	packageRouter.GET("/:name", packageController.Read)
	packageRouter.GET("/:name/", packageController.Read)

	distroRouter := apiV1Router.Group("/distros")
	distroRouter.GET("/", distroController.List)
	distroRouter.GET("/groups/", distroController.Groups)
	distroRouter.GET("/missing/", distroController.Missing)
	distroRouter.GET("/:slug/", distroController.Read)

	return APIV1Router{
		Group: apiV1Router,
	}
}
