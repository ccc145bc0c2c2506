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
)

// Version is one tag of a package. The bom fields are a cache of the latest successful scan.
type Version struct {
	Model
	PackageID   uint       `json:"packageId" gorm:"not null;index"`
	Number      string     `json:"number" gorm:"not null"`
	PublishedAt *time.Time `json:"publishedAt"`

	DistroName     *string `json:"distroName" gorm:"index"`
	SyftVersion    *string `json:"syftVersion"`
	ArtifactsCount int     `json:"artifactsCount"`

	LastSyncedAt  *time.Time `json:"lastSyncedAt"`
	LastSyncError *string    `json:"lastSyncError" gorm:"type:text"`

	ScanResult   *ScanResult  `json:"-" gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE;"`
	Dependencies []Dependency `json:"-" gorm:"foreignKey:VersionID;constraint:OnDelete:CASCADE;"`
}

func (Version) TableName() string {
	return "versions"
}

// ImageReference is the argument passed to the scanner. Both parts are used verbatim.
func (v Version) ImageReference(packageName string) string {
	return packageName + ":" + v.Number
}

// Outdated reports whether the version was scanned with a different scanner version than the installed one.
func (v Version) Outdated(currentScannerVersion string) bool {
	if v.SyftVersion == nil {
		return false
	}
	return *v.SyftVersion != currentScannerVersion
}

func (v Version) HasBOM() bool {
	return v.SyftVersion != nil
}
