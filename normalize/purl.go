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
	"fmt"
	"regexp"
	"strings"

	"github.com/package-url/packageurl-go"
)

var ErrIdentifierParse = errors.New("IdentifierParseFailure")

// Identifier is the decomposed form of a package url found in a scan result.
type Identifier struct {
	Type      string
	Namespace string
	Name      string
	Version   string
}

var whitespace = regexp.MustCompile(`\s+`)

// ParseIdentifier decomposes a string like pkg:maven/org.springframework/spring-core@5.3.23.
func ParseIdentifier(s string) (Identifier, error) {
	p, err := packageurl.FromString(s)
	if err != nil {
		return Identifier{}, fmt.Errorf("%w: %s", ErrIdentifierParse, err.Error())
	}
	if p.Type == "" || p.Name == "" {
		return Identifier{}, fmt.Errorf("%w: %q has no type or name", ErrIdentifierParse, s)
	}

	return Identifier{
		Type:      p.Type,
		Namespace: p.Namespace,
		Name:      p.Name,
		Version:   p.Version,
	}, nil
}

// PackageName joins namespace and name. Maven coordinates use a colon, everything else a slash.
func (i Identifier) PackageName() string {
	name := whitespace.ReplaceAllString(i.Name, "")
	if i.Namespace == "" {
		return name
	}
	sep := "/"
	if i.Type == "maven" {
		sep = ":"
	}
	return i.Namespace + sep + name
}

// Requirement returns the version or the wildcard if the identifier is unversioned.
func (i Identifier) Requirement() string {
	if i.Version == "" {
		return "*"
	}
	return i.Version
}

// EcosystemToType maps ecosystem names used by registries to the purl type stored on dependencies.
func EcosystemToType(ecosystem string) string {
	ecosystem = strings.ToLower(strings.TrimSpace(ecosystem))
	switch ecosystem {
	case "go":
		return "golang"
	case "actions":
		return "github"
	case "adelie", "alpine", "postmarketos":
		return "apk"
	case "packagist":
		return "composer"
	case "rubygems":
		return "gem"
	case "dart":
		return "pub"
	default:
		return ecosystem
	}
}
