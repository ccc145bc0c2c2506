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
	"strings"
	"time"

	cdx "github.com/CycloneDX/cyclonedx-go"
	"github.com/package-url/packageurl-go"
)

// ImagePurl builds pkg:docker/<namespace>/<name>@<tag> for a docker hub package name like library/redis.
func ImagePurl(packageName, versionNumber string) string {
	namespace := ""
	name := packageName
	if idx := strings.LastIndex(packageName, "/"); idx != -1 {
		namespace = packageName[:idx]
		name = packageName[idx+1:]
	}
	return packageurl.NewPackageURL("docker", namespace, name, versionNumber, nil, "").ToString()
}

// DependenciesToCycloneDX exports the dependency set of one image version. The image is the metadata
// component and directly depends on every record.
func DependenciesToCycloneDX(packageName, versionNumber, scannerVersion string, syncedAt time.Time, deps []DependencyRecord) *cdx.BOM {
	rootRef := ImagePurl(packageName, versionNumber)

	bom := cdx.NewBOM()
	bom.Metadata = &cdx.Metadata{
		Timestamp: syncedAt.UTC().Format(time.RFC3339),
		Component: &cdx.Component{
			BOMRef:     rootRef,
			Type:       cdx.ComponentTypeContainer,
			Name:       packageName,
			Version:    versionNumber,
			PackageURL: rootRef,
		},
	}
	if scannerVersion != "" {
		bom.Metadata.Tools = &cdx.ToolsChoice{
			Components: &[]cdx.Component{{
				Type:    cdx.ComponentTypeApplication,
				Name:    "syft",
				Version: scannerVersion,
			}},
		}
	}

	components := make([]cdx.Component, 0, len(deps))
	refs := make([]string, 0, len(deps))
	seen := make(map[string]struct{}, len(deps))
	for _, d := range deps {
		if _, ok := seen[d.SourceIdentifier]; ok {
			continue
		}
		seen[d.SourceIdentifier] = struct{}{}

		version := d.Requirement
		if version == "*" {
			version = ""
		}
		components = append(components, cdx.Component{
			BOMRef:     d.SourceIdentifier,
			Type:       cdx.ComponentTypeLibrary,
			Name:       d.PackageName,
			Version:    version,
			PackageURL: d.SourceIdentifier,
		})
		refs = append(refs, d.SourceIdentifier)
	}

	bom.Components = &components
	bom.Dependencies = &[]cdx.Dependency{{
		Ref:          rootRef,
		Dependencies: &refs,
	}}
	return bom
}
