package dtos

import (
	"github.com/l3montree-dev/imagecatalog/database/models"
)

type PackageDetail struct {
	models.Package
	PackagesHTMLURL string           `json:"packagesHtmlUrl"`
	DockerHubURL    string           `json:"dockerHubUrl"`
	LatestVersion   *models.Version  `json:"latestVersion"`
	Versions        []models.Version `json:"versions"`
	VersionsTotal   int64            `json:"versionsTotal"`
}

type VersionDetail struct {
	models.Version
	PackageName    string         `json:"packageName"`
	ImageReference string         `json:"imageReference"`
	Outdated       bool           `json:"outdated"`
	Distro         *models.Distro `json:"distro"`
	Purls          []string       `json:"purls"`
}
