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
	"errors"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var ErrInvalidCatalogPath = errors.New("catalog path has no segments below the root")

const (
	DiscontinuedMarker = "discontinued"
	UnstableToken      = "unstable"
)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of characters outside [a-z0-9] into a single dash.
func Slugify(s string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// PathIdentity is the slug and discontinued flag derived from a catalog file location.
type PathIdentity struct {
	Slug         string
	Discontinued bool
}

type pathState struct {
	segments     []string
	discontinued bool
}

// pathRule is applied to the segments of a catalog path in declaration order.
type pathRule struct {
	name      string
	predicate func(p pathState) bool
	transform func(p pathState) pathState
}

var pathRules = []pathRule{
	{
		name: "strip discontinued head",
		predicate: func(p pathState) bool {
			return len(p.segments) > 0 && p.segments[0] == DiscontinuedMarker
		},
		transform: func(p pathState) pathState {
			return pathState{segments: p.segments[1:], discontinued: true}
		},
	},
	{
		name: "segment repeating its parent is the unstable release",
		predicate: func(p pathState) bool {
			for i := 1; i < len(p.segments); i++ {
				if p.segments[i] == p.segments[i-1] {
					return true
				}
			}
			return false
		},
		transform: func(p pathState) pathState {
			out := make([]string, len(p.segments))
			for i, s := range p.segments {
				if i > 0 && s == p.segments[i-1] {
					out[i] = UnstableToken
					continue
				}
				out[i] = s
			}
			return pathState{segments: out, discontinued: p.discontinued}
		},
	},
}

func splitCatalogPath(relPath string) []string {
	parts := strings.FieldsFunc(relPath, func(r rune) bool { return r == '/' || r == '\\' })
	res := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "." {
			continue
		}
		res = append(res, p)
	}
	return res
}

// IdentityFromPath derives the identity of a descriptor file from its path relative to the catalog root,
// e.g. "discontinued/ubuntu/kylin/22.04" or "debian/debian".
func IdentityFromPath(relPath string) (PathIdentity, error) {
	state := pathState{segments: splitCatalogPath(relPath)}
	for _, rule := range pathRules {
		if rule.predicate(state) {
			state = rule.transform(state)
		}
	}

	slug := Slugify(strings.Join(state.segments, "-"))
	if slug == "" {
		return PathIdentity{}, ErrInvalidCatalogPath
	}
	return PathIdentity{Slug: slug, Discontinued: state.discontinued}, nil
}

var reservedVersionWords = map[string]struct{}{
	"unstable": {},
	"rolling":  {},
	"sid":      {},
	"rawhide":  {},
}

// boundaryRules decide whether a slug token starts the version part of a slug.
var boundaryRules = []struct {
	name      string
	predicate func(token string) bool
}{
	{name: "starts with a digit", predicate: func(token string) bool {
		return token != "" && unicode.IsDigit(rune(token[0]))
	}},
	{name: "reserved release word", predicate: func(token string) bool {
		_, ok := reservedVersionWords[token]
		return ok
	}},
}

func isVersionBoundary(token string) bool {
	for _, r := range boundaryRules {
		if r.predicate(token) {
			return true
		}
	}
	return false
}

// GroupingKey returns the family part of a slug: ubuntu-kylin-22-04 becomes ubuntu-kylin.
// Slugs starting with a version or without one group by themselves.
func GroupingKey(slug string) string {
	tokens := strings.Split(slug, "-")
	for i, token := range tokens {
		if !isVersionBoundary(token) {
			continue
		}
		if i == 0 {
			return slug
		}
		return strings.Join(tokens[:i], "-")
	}
	return slug
}

var titleCaser = cases.Title(language.English)

// GroupLabel is the human readable label of a grouping key.
func GroupLabel(groupingKey string) string {
	return titleCaser.String(strings.ReplaceAll(groupingKey, "-", " "))
}
