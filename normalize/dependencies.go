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
	"log/slog"
	"slices"
	"strings"
)

// DependencyRecord is one package reference found inside a scanned image.
type DependencyRecord struct {
	Ecosystem        string `json:"ecosystem"`
	PackageName      string `json:"packageName"`
	Requirement      string `json:"requirement"`
	SourceIdentifier string `json:"purl"`
}

// UniqueIdentifiers drops blanks, sorts and removes exact duplicates.
func UniqueIdentifiers(identifiers []string) []string {
	res := make([]string, 0, len(identifiers))
	for _, id := range identifiers {
		if strings.TrimSpace(id) == "" {
			continue
		}
		res = append(res, id)
	}
	slices.Sort(res)
	return slices.Compact(res)
}

// ExtractDependencies turns the artifact identifiers of a scan into dependency records.
// Identifiers which cannot be parsed are skipped. The result only depends on the input set,
// so running it twice on the same scan yields the same records.
func ExtractDependencies(identifiers []string) []DependencyRecord {
	unique := UniqueIdentifiers(identifiers)
	records := make([]DependencyRecord, 0, len(unique))
	for _, raw := range unique {
		id, err := ParseIdentifier(raw)
		if err != nil {
			slog.Debug("skipping artifact", "purl", raw, "err", err)
			continue
		}
		records = append(records, DependencyRecord{
			Ecosystem:        id.Type,
			PackageName:      id.PackageName(),
			Requirement:      id.Requirement(),
			SourceIdentifier: raw,
		})
	}
	return records
}
