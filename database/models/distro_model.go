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

	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/utils"
)

// Distro is a catalog entry built from one os-release descriptor.
type Distro struct {
	Model
	Slug       string `json:"slug" gorm:"uniqueIndex;not null"`
	PrettyName string `json:"prettyName" gorm:"not null;index"`
	RawContent string `json:"rawContent" gorm:"type:text"`

	IDField          *string `json:"idField" gorm:"column:id_field;index"`
	IDLike           *string `json:"idLike"`
	Name             *string `json:"name"`
	VersionID        *string `json:"versionId"`
	VersionCodename  *string `json:"versionCodename"`
	Variant          *string `json:"variant"`
	VariantID        *string `json:"variantId"`
	BuildID          *string `json:"buildId"`
	HomeURL          *string `json:"homeUrl"`
	SupportURL       *string `json:"supportUrl"`
	BugReportURL     *string `json:"bugReportUrl"`
	DocumentationURL *string `json:"documentationUrl"`
	Logo             *string `json:"logo"`
	ANSIColor        *string `json:"ansiColor" gorm:"column:ansi_color"`
	CPEName          *string `json:"cpeName" gorm:"column:cpe_name"`
	ImageID          *string `json:"imageId"`
	ImageVersion     *string `json:"imageVersion"`

	Discontinued   bool  `json:"discontinued"`
	VersionsCount  int   `json:"versionsCount"`
	TotalDownloads int64 `json:"totalDownloads"`
}

func (Distro) TableName() string {
	return "distros"
}

func (d Distro) OSRelease() normalize.OSRelease {
	s := utils.SafeDereference
	return normalize.OSRelease{
		ID:               s(d.IDField),
		IDLike:           s(d.IDLike),
		Name:             s(d.Name),
		VersionID:        s(d.VersionID),
		PrettyName:       d.PrettyName,
		VersionCodename:  s(d.VersionCodename),
		Variant:          s(d.Variant),
		VariantID:        s(d.VariantID),
		BuildID:          s(d.BuildID),
		HomeURL:          s(d.HomeURL),
		SupportURL:       s(d.SupportURL),
		BugReportURL:     s(d.BugReportURL),
		DocumentationURL: s(d.DocumentationURL),
		Logo:             s(d.Logo),
		ANSIColor:        s(d.ANSIColor),
		CPEName:          s(d.CPEName),
		ImageID:          s(d.ImageID),
		ImageVersion:     s(d.ImageVersion),
	}
}

// Assign overwrites the descriptor fields and reports whether anything changed.
func (d *Distro) Assign(o normalize.OSRelease, rawContent string, discontinued bool) bool {
	before := d.OSRelease()
	changed := before != o || d.RawContent != rawContent || d.Discontinued != discontinued

	e := utils.EmptyThenNil
	d.PrettyName = o.PrettyName
	d.RawContent = rawContent
	d.Discontinued = discontinued
	d.IDField = e(o.ID)
	d.IDLike = e(o.IDLike)
	d.Name = e(o.Name)
	d.VersionID = e(o.VersionID)
	d.VersionCodename = e(o.VersionCodename)
	d.Variant = e(o.Variant)
	d.VariantID = e(o.VariantID)
	d.BuildID = e(o.BuildID)
	d.HomeURL = e(o.HomeURL)
	d.SupportURL = e(o.SupportURL)
	d.BugReportURL = e(o.BugReportURL)
	d.DocumentationURL = e(o.DocumentationURL)
	d.Logo = e(o.Logo)
	d.ANSIColor = e(o.ANSIColor)
	d.CPEName = e(o.CPEName)
	d.ImageID = e(o.ImageID)
	d.ImageVersion = e(o.ImageVersion)
	return changed
}

func (d Distro) GroupingKey() string {
	return normalize.GroupingKey(d.Slug)
}

// IDLikeList splits the space separated ID_LIKE value.
func (d Distro) IDLikeList() []string {
	return strings.Fields(utils.SafeDereference(d.IDLike))
}

func (d Distro) IsRollingRelease() bool {
	for _, v := range []*string{d.VersionID, d.BuildID, d.VersionCodename} {
		if strings.EqualFold(utils.SafeDereference(v), "rolling") {
			return true
		}
	}
	return false
}

func (d Distro) DisplayName() string {
	name := utils.SafeDereference(d.Name)
	if name == "Puppy" && d.PrettyName != name {
		if fields := strings.Fields(d.PrettyName); len(fields) > 0 {
			return name + " " + fields[0]
		}
	}
	if name != "" {
		return name
	}
	return normalize.GroupLabel(utils.SafeDereference(d.IDField))
}

func (d Distro) VersionDisplayText() string {
	versionID := utils.SafeDereference(d.VersionID)
	if d.IsRollingRelease() || strings.Contains(versionID, "TEMPLATE") {
		return "rolling"
	}

	text := versionID
	if text == "" {
		text = d.PrettyName
	}

	buildID := utils.SafeDereference(d.BuildID)
	switch {
	case d.Variant != nil && *d.Variant != "":
		return text + " (" + *d.Variant + ")"
	case d.VersionCodename != nil && *d.VersionCodename != "":
		return text + " (" + *d.VersionCodename + ")"
	case buildID != "" && buildID != versionID:
		return text + " - " + buildID
	case strings.Contains(strings.ToLower(d.PrettyName), "stream"):
		return text + " Stream"
	}
	return text
}

func (d Distro) LikelyDockerImage() (normalize.DockerImage, bool) {
	return normalize.LikelyDockerImage(d.OSRelease())
}

type DistroGroupStats struct {
	TotalImages     int   `json:"totalImages"`
	TotalDownloads  int64 `json:"totalDownloads"`
	IsSingleRolling bool  `json:"isSingleRolling"`
}

func GroupStats(distros []Distro) DistroGroupStats {
	stats := DistroGroupStats{}
	for _, d := range distros {
		stats.TotalImages += d.VersionsCount
		stats.TotalDownloads += d.TotalDownloads
	}
	stats.IsSingleRolling = len(distros) == 1 && distros[0].IsRollingRelease()
	return stats
}
