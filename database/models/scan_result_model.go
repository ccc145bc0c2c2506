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
	databasetypes "github.com/l3montree-dev/imagecatalog/database/types"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"gorm.io/gorm"
)

// ScanResult is the raw scanner document of one version.
type ScanResult struct {
	Model
	VersionID uint                `json:"versionId" gorm:"uniqueIndex;not null"`
	Data      databasetypes.JSONB `json:"data" gorm:"type:jsonb;not null"`

	DistroName     *string `json:"distroName"`
	SyftVersion    *string `json:"syftVersion"`
	ArtifactsCount int     `json:"artifactsCount"`
}

func (ScanResult) TableName() string {
	return "scan_results"
}

func (s ScanResult) Distro() string {
	v, _ := s.Data.Dig("distro", "prettyName")
	return v
}

func (s ScanResult) DescriptorVersion() string {
	v, _ := s.Data.Dig("descriptor", "version")
	return v
}

func (s ScanResult) Artifacts() []map[string]any {
	raw, ok := s.Data["artifacts"].([]any)
	if !ok {
		return nil
	}
	res := make([]map[string]any, 0, len(raw))
	for _, a := range raw {
		if m, ok := a.(map[string]any); ok {
			res = append(res, m)
		}
	}
	return res
}

// Purls returns the sorted, unique, non blank artifact identifiers.
func (s ScanResult) Purls() []string {
	artifacts := s.Artifacts()
	purls := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		if p, ok := a["purl"].(string); ok {
			purls = append(purls, p)
		}
	}
	return normalize.UniqueIdentifiers(purls)
}

// ScannedDistro is the os identity as reported by the scanner.
func (s ScanResult) ScannedDistro() (normalize.ScannedDistro, bool) {
	if _, ok := s.Data["distro"].(map[string]any); !ok {
		return normalize.ScannedDistro{}, false
	}
	d := normalize.ScannedDistro{}
	d.PrettyName, _ = s.Data.Dig("distro", "prettyName")
	d.ID, _ = s.Data.Dig("distro", "id")
	d.VersionID, _ = s.Data.Dig("distro", "versionID")
	d.VariantID, _ = s.Data.Dig("distro", "variantID")
	return d, true
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// BeforeSave caches the summary fields so reads never need to walk the payload.
func (s *ScanResult) BeforeSave(tx *gorm.DB) error {
	s.DistroName = nilIfEmpty(s.Distro())
	s.SyftVersion = nilIfEmpty(s.DescriptorVersion())
	s.ArtifactsCount = len(s.Purls())
	return nil
}
