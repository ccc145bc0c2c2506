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
	"time"

	"github.com/l3montree-dev/imagecatalog/normalize"
)

type Dependency struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	VersionID    uint      `json:"versionId" gorm:"not null;index"`
	PackageID    uint      `json:"packageId" gorm:"not null;index"`
	Ecosystem    string    `json:"ecosystem" gorm:"not null;index:idx_dependencies_ecosystem_package_name,priority:1"`
	PackageName  string    `json:"packageName" gorm:"not null;index:idx_dependencies_ecosystem_package_name,priority:2"`
	Requirements string    `json:"requirements" gorm:"not null"`
	Purl         string    `json:"purl" gorm:"not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (Dependency) TableName() string {
	return "dependencies"
}

func NewDependency(packageID, versionID uint, r normalize.DependencyRecord) Dependency {
	return Dependency{
		VersionID:    versionID,
		PackageID:    packageID,
		Ecosystem:    r.Ecosystem,
		PackageName:  r.PackageName,
		Requirements: r.Requirement,
		Purl:         r.SourceIdentifier,
	}
}

func (d Dependency) Record() normalize.DependencyRecord {
	return normalize.DependencyRecord{
		Ecosystem:        d.Ecosystem,
		PackageName:      d.PackageName,
		Requirement:      d.Requirements,
		SourceIdentifier: d.Purl,
	}
}
