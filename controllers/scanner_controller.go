package controllers

import (
	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/labstack/echo/v4"
)

type ScannerController struct {
	versionProvider shared.ScannerVersionProvider
	binary          string
}

func NewScannerController(versionProvider shared.ScannerVersionProvider, cfg config.Config) *ScannerController {
	return &ScannerController{
		versionProvider: versionProvider,
		binary:          cfg.ScannerBinary,
	}
}

// @Summary Installed scanner version
// @Success 200 {object} dtos.ScannerInfo
// @Router /scanner [get]
func (c *ScannerController) Info(ctx shared.Context) error {
	version, err := c.versionProvider.Version(ctx.Request().Context())
	if err != nil {
		return echo.NewHTTPError(503, "scanner is not available").WithInternal(err)
	}
	return ctx.JSON(200, dtos.ScannerInfo{Binary: c.binary, Version: version})
}
