package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuessDockerImage(t *testing.T) {
	tests := []struct {
		distroName string
		expected   string
	}{
		{"Alpine Linux v3.19", "alpine:3.19"},
		{"Debian GNU/Linux 12 (bookworm)", "debian:12"},
		{"Ubuntu 22.04.3 LTS", "ubuntu:22.04"},
		{"Fedora Linux 39 (Container Image)", "fedora:39"},
		{"CentOS Stream 9", "centos:9"},
		{"Rocky Linux 9.3 (Blue Onyx)", "rockylinux:9"},
		{"AlmaLinux 8.9 (Midnight Oncilla)", "almalinux:8"},
		{"Red Hat Enterprise Linux 9.3 (Plow)", "redhat/ubi9"},
		{"Oracle Linux Server 8.9", "oraclelinux:8"},
		{"Amazon Linux 2023", "amazonlinux:2023"},
		{"Arch Linux", "archlinux:latest"},
		{"Distroless", ""},
	}
	for _, tt := range tests {
		t.Run(tt.distroName, func(t *testing.T) {
			assert.Equal(t, tt.expected, GuessDockerImage(tt.distroName))
		})
	}
}

func TestLikelyDockerImage(t *testing.T) {
	t.Run("debian should be tagged with the codename", func(t *testing.T) {
		img, ok := LikelyDockerImage(OSRelease{ID: "debian", VersionID: "12", VersionCodename: "bookworm"})
		assert.True(t, ok)
		assert.Equal(t, DockerImage{Image: "debian:bookworm", URL: "https://hub.docker.com/_/debian", PackageName: "debian"}, img)
	})

	t.Run("mapped ids should use the mapped repository and strip a leading v", func(t *testing.T) {
		img, ok := LikelyDockerImage(OSRelease{ID: "opensuse", VersionID: "v15.5"})
		assert.True(t, ok)
		assert.Equal(t, "opensuse/leap:15.5", img.Image)
		assert.Equal(t, "https://hub.docker.com/_/leap", img.URL)
		assert.Equal(t, "opensuse/leap", img.PackageName)
	})

	t.Run("should return the bare repository if there is no version", func(t *testing.T) {
		img, ok := LikelyDockerImage(OSRelease{ID: "arch", VersionID: ""})
		assert.True(t, ok)
		assert.Equal(t, "archlinux", img.Image)
	})

	t.Run("should not guess images for unknown ids", func(t *testing.T) {
		_, ok := LikelyDockerImage(OSRelease{ID: "puppy", VersionID: "9"})
		assert.False(t, ok)
	})
}
