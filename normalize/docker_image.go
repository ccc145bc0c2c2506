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
	"regexp"
	"strings"

	"github.com/google/go-containerregistry/pkg/name"
)

type imageGuessRule struct {
	pattern *regexp.Regexp
	build   func(m []string) string
}

// imageGuessRules are evaluated in order against the lowercased distro name. The first match wins.
var imageGuessRules = []imageGuessRule{
	{regexp.MustCompile(`^alpine linux v?(\d+\.\d+)`), func(m []string) string { return "alpine:" + m[1] }},
	{regexp.MustCompile(`^debian gnu/linux (\d+)`), func(m []string) string { return "debian:" + m[1] }},
	{regexp.MustCompile(`^ubuntu (\d+\.\d+)`), func(m []string) string { return "ubuntu:" + m[1] }},
	{regexp.MustCompile(`^fedora.*?(\d+)`), func(m []string) string { return "fedora:" + m[1] }},
	{regexp.MustCompile(`^centos.*?(\d+)`), func(m []string) string { return "centos:" + m[1] }},
	{regexp.MustCompile(`^rocky linux (\d+)`), func(m []string) string { return "rockylinux:" + m[1] }},
	{regexp.MustCompile(`^almalinux (\d+)`), func(m []string) string { return "almalinux:" + m[1] }},
	{regexp.MustCompile(`^red hat.*?(\d+)`), func(m []string) string { return "redhat/ubi" + m[1] }},
	{regexp.MustCompile(`^oracle linux.*?(\d+)`), func(m []string) string { return "oraclelinux:" + m[1] }},
	{regexp.MustCompile(`^amazon linux (\d+)`), func(m []string) string { return "amazonlinux:" + m[1] }},
	{regexp.MustCompile(`^arch linux`), func(m []string) string { return "archlinux:latest" }},
}

// GuessDockerImage guesses the docker hub image for a free text distro name like "Alpine Linux v3.19".
// Returns an empty string if no rule matches.
func GuessDockerImage(distroName string) string {
	lower := strings.ToLower(distroName)
	for _, rule := range imageGuessRules {
		m := rule.pattern.FindStringSubmatch(lower)
		if m == nil {
			continue
		}
		image := rule.build(m)
		if _, err := name.NewTag(image); err != nil {
			return ""
		}
		return image
	}
	return ""
}

// officialImages maps an os-release ID to the docker hub repository. An empty value means the ID is the repository.
var officialImages = map[string]string{
	"debian":      "",
	"ubuntu":      "",
	"alpine":      "",
	"fedora":      "",
	"centos":      "",
	"rocky":       "",
	"almalinux":   "",
	"amazonlinux": "amazonlinux",
	"arch":        "archlinux",
	"opensuse":    "opensuse/leap",
	"ol":          "oraclelinux",
}

var codenameTagged = map[string]struct{}{
	"debian": {},
	"ubuntu": {},
}

type DockerImage struct {
	Image       string `json:"image"`
	URL         string `json:"url"`
	PackageName string `json:"packageName"`
}

// LikelyDockerImage returns the official docker hub image of a catalog entry.
func LikelyDockerImage(o OSRelease) (DockerImage, bool) {
	id := strings.ToLower(o.ID)
	if id == "" {
		return DockerImage{}, false
	}
	repo, ok := officialImages[id]
	if !ok {
		return DockerImage{}, false
	}
	if repo == "" {
		repo = id
	}

	var tag string
	if _, ok := codenameTagged[id]; ok && o.VersionCodename != "" {
		tag = o.VersionCodename
	} else if o.VersionID != "" {
		tag = strings.TrimPrefix(o.VersionID, "v")
	}

	image := repo
	if tag != "" {
		image = repo + ":" + tag
	}
	if _, err := name.ParseReference(image); err != nil {
		return DockerImage{}, false
	}

	parts := strings.Split(repo, "/")
	return DockerImage{
		Image:       image,
		URL:         "https://hub.docker.com/_/" + parts[len(parts)-1],
		PackageName: repo,
	}, true
}
