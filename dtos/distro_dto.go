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

package dtos

import (
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/normalize"
)

type DistroNameCount struct {
	DistroName string `json:"distroName"`
	Count      int64  `json:"count"`
}

// MissingDistro is a distro name found in scans which no catalog entry resolves.
type MissingDistro struct {
	DistroName   string `json:"distroName"`
	Count        int64  `json:"count"`
	GuessedImage string `json:"guessedImage,omitempty"`
}

type DistroGroup struct {
	GroupingKey string                  `json:"groupingKey"`
	Label       string                  `json:"label"`
	Stats       models.DistroGroupStats `json:"stats"`
	Distros     []models.Distro         `json:"distros"`
}

type DistroDetail struct {
	models.Distro
	GroupingKey        string                 `json:"groupingKey"`
	DisplayName        string                 `json:"displayName"`
	VersionDisplayText string                 `json:"versionDisplayText"`
	IsRollingRelease   bool                   `json:"isRollingRelease"`
	RelatedDistros     []models.Distro        `json:"relatedDistros"`
	LikelyDockerImage  *normalize.DockerImage `json:"likelyDockerImage"`
	LikelyPackage      *models.Package        `json:"likelyPackage"`
}

type CatalogEntryError struct {
	Path  string `json:"path"`
	Slug  string `json:"slug,omitempty"`
	Error string `json:"error"`
}

type CatalogSyncReport struct {
	Seen      int                 `json:"seen"`
	Created   int                 `json:"created"`
	Updated   int                 `json:"updated"`
	Unchanged int                 `json:"unchanged"`
	Skipped   int                 `json:"skipped"`
	Pruned    int64               `json:"pruned"`
	Errors    []CatalogEntryError `json:"errors"`
}
