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

package normalize

import (
	"bufio"
	"regexp"
	"strings"
)

// OSRelease holds the allow-listed keys of an os-release descriptor.
type OSRelease struct {
	ID               string `json:"id"`
	IDLike           string `json:"idLike"`
	Name             string `json:"name"`
	VersionID        string `json:"versionId"`
	PrettyName       string `json:"prettyName"`
	VersionCodename  string `json:"versionCodename"`
	Variant          string `json:"variant"`
	VariantID        string `json:"variantId"`
	BuildID          string `json:"buildId"`
	HomeURL          string `json:"homeUrl"`
	SupportURL       string `json:"supportUrl"`
	BugReportURL     string `json:"bugReportUrl"`
	DocumentationURL string `json:"documentationUrl"`
	Logo             string `json:"logo"`
	ANSIColor        string `json:"ansiColor"`
	CPEName          string `json:"cpeName"`
	ImageID          string `json:"imageId"`
	ImageVersion     string `json:"imageVersion"`
}

var osReleaseLine = regexp.MustCompile(`^([A-Z0-9_]+)=(.+)$`)

func (o *OSRelease) field(key string) *string {
	switch key {
	case "ID":
		return &o.ID
	case "ID_LIKE":
		return &o.IDLike
	case "NAME":
		return &o.Name
	case "VERSION_ID":
		return &o.VersionID
	case "PRETTY_NAME":
		return &o.PrettyName
	case "VERSION_CODENAME":
		return &o.VersionCodename
	case "VARIANT":
		return &o.Variant
	case "VARIANT_ID":
		return &o.VariantID
	case "BUILD_ID":
		return &o.BuildID
	case "HOME_URL":
		return &o.HomeURL
	case "SUPPORT_URL":
		return &o.SupportURL
	case "BUG_REPORT_URL":
		return &o.BugReportURL
	case "DOCUMENTATION_URL":
		return &o.DocumentationURL
	case "LOGO":
		return &o.Logo
	case "ANSI_COLOR":
		return &o.ANSIColor
	case "CPE_NAME":
		return &o.CPEName
	case "IMAGE_ID":
		return &o.ImageID
	case "IMAGE_VERSION":
		return &o.ImageVersion
	}
	return nil
}

func unquote(v string) string {
	if len(v) >= 2 {
		first, last := v[0], v[len(v)-1]
		if first == last && (first == '"' || first == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

// ParseOSRelease reads KEY=VALUE lines. Comments, blank lines and unknown keys are ignored.
func ParseOSRelease(content string) OSRelease {
	var res OSRelease
	scanner := bufio.NewScanner(strings.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		m := osReleaseLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if f := res.field(m[1]); f != nil {
			*f = unquote(m[2])
		}
	}
	return res
}

// LooksLikeOSRelease is a cheap check used to skip readme or license files in a catalog tree.
func LooksLikeOSRelease(content string) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	return strings.Contains(content, "NAME=") || strings.Contains(content, "PRETTY_NAME=")
}

// Valid reports whether the descriptor can become a catalog entry.
func (o OSRelease) Valid() bool {
	return strings.TrimSpace(o.PrettyName) != ""
}

// ScannedDistro is the distro block of a scan result. The scanner uses its own field names
// (versionID, variantID) which differ from the os-release keys.
type ScannedDistro struct {
	PrettyName string
	ID         string
	VersionID  string
	VariantID  string
}
