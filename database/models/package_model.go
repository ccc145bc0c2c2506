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

package models

import (
	"strings"
	"time"

	"github.com/google/go-containerregistry/pkg/name"
)

// Package is a docker hub repository like library/redis.
type Package struct {
	Model
	Name          string  `json:"name" gorm:"uniqueIndex;not null"`
	Description   *string `json:"description"`
	Downloads     int64   `json:"downloads"`
	RepositoryURL *string `json:"repositoryUrl"`

	LatestReleaseNumber      *string    `json:"latestReleaseNumber"`
	LatestReleasePublishedAt *time.Time `json:"latestReleasePublishedAt"`

	VersionsCount     int        `json:"versionsCount"`
	DependenciesCount int        `json:"dependenciesCount"`
	HasSBOM           bool       `json:"hasSbom" gorm:"column:has_sbom"`
	LastSyncedAt      *time.Time `json:"lastSyncedAt"`

	Versions []Version `json:"versions,omitempty" gorm:"foreignKey:PackageID;constraint:OnDelete:CASCADE;"`
}

func (Package) TableName() string {
	return "packages"
}

func (p Package) PackagesHTMLURL() string {
	return "https://packages.ecosyste.ms/registries/hub.docker.com/packages/" + p.Name
}

// DockerHubURL points to the repository page. Official images live below /_/.
func (p Package) DockerHubURL() string {
	repo, err := name.NewRepository(p.Name)
	if err != nil {
		return ""
	}
	path := repo.RepositoryStr()
	if after, ok := strings.CutPrefix(path, "library/"); ok {
		return "https://hub.docker.com/_/" + after
	}
	return "https://hub.docker.com/r/" + path
}
