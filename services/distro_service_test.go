package services

import (
	"testing"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/l3montree-dev/imagecatalog/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistroServiceDetail(t *testing.T) {
	db := integrationtestutil.InitSQLiteDatabase(t)
	distros := repositories.NewDistroRepository(db)
	packages := repositories.NewPackageRepository(db)
	service := NewDistroService(distros, packages)

	save := func(slug string, o normalize.OSRelease) models.Distro {
		d := models.Distro{Slug: slug}
		d.Assign(o, "", false)
		require.NoError(t, distros.Save(nil, &d))
		return d
	}
	save("ubuntu-22-04", normalize.OSRelease{PrettyName: "Ubuntu 22.04.3 LTS", Name: "Ubuntu", ID: "ubuntu", IDLike: "debian", VersionID: "22.04", VersionCodename: "jammy"})
	debian := save("debian-12", normalize.OSRelease{PrettyName: "Debian GNU/Linux 12 (bookworm)", ID: "debian", VersionID: "12"})
	save("arch", normalize.OSRelease{PrettyName: "Arch Linux", Name: "Arch Linux", ID: "arch", BuildID: "rolling"})

	official, err := packages.FindOrCreateByName(nil, "library/ubuntu")
	require.NoError(t, err)
	_, err = packages.FindOrCreateByName(nil, "ubuntu")
	require.NoError(t, err)

	t.Run("should resolve related distros and the likely image", func(t *testing.T) {
		detail, err := service.Detail("ubuntu-22-04")
		require.NoError(t, err)

		assert.Equal(t, "ubuntu", detail.GroupingKey)
		assert.Equal(t, "Ubuntu", detail.DisplayName)
		assert.Equal(t, "22.04 (jammy)", detail.VersionDisplayText)
		assert.False(t, detail.IsRollingRelease)
		require.Len(t, detail.RelatedDistros, 1)
		assert.Equal(t, debian.ID, detail.RelatedDistros[0].ID)

		require.NotNil(t, detail.LikelyDockerImage)
		assert.Equal(t, "ubuntu:jammy", detail.LikelyDockerImage.Image)
		require.NotNil(t, detail.LikelyPackage)
		assert.Equal(t, official.ID, detail.LikelyPackage.ID)
	})

	t.Run("should leave the likely package empty if no package exists", func(t *testing.T) {
		detail, err := service.Detail("arch")
		require.NoError(t, err)

		assert.True(t, detail.IsRollingRelease)
		assert.Equal(t, "rolling", detail.VersionDisplayText)
		assert.Empty(t, detail.RelatedDistros)
		require.NotNil(t, detail.LikelyDockerImage)
		assert.Equal(t, "archlinux", detail.LikelyDockerImage.PackageName)
		assert.Nil(t, detail.LikelyPackage)
	})

	t.Run("should return not found for an unknown slug", func(t *testing.T) {
		_, err := service.Detail("plan9")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDistroServiceGroups(t *testing.T) {
	db := integrationtestutil.InitSQLiteDatabase(t)
	distros := repositories.NewDistroRepository(db)
	service := NewDistroService(distros, repositories.NewPackageRepository(db))

	for _, d := range []models.Distro{
		{Slug: "ubuntu-22-04", PrettyName: "Ubuntu 22.04", VersionsCount: 3, TotalDownloads: 10},
		{Slug: "ubuntu-24-04", PrettyName: "Ubuntu 24.04", VersionsCount: 5, TotalDownloads: 20},
		{Slug: "ubuntu-kylin-22-04", PrettyName: "Ubuntu Kylin 22.04", VersionsCount: 1},
		{Slug: "arch", PrettyName: "Arch Linux", BuildID: utils.Ptr("rolling")},
	} {
		require.NoError(t, distros.Save(nil, &d))
	}

	groups, err := service.Groups()
	require.NoError(t, err)
	require.Len(t, groups, 3)

	assert.Equal(t, "ubuntu", groups[0].GroupingKey)
	assert.Equal(t, "Ubuntu", groups[0].Label)
	assert.Equal(t, models.DistroGroupStats{TotalImages: 8, TotalDownloads: 30}, groups[0].Stats)
	assert.Equal(t, "ubuntu-24-04", groups[0].Distros[0].Slug)

	assert.Equal(t, "ubuntu-kylin", groups[1].GroupingKey)
	assert.Equal(t, "Ubuntu Kylin", groups[1].Label)

	assert.Equal(t, "arch", groups[2].GroupingKey)
	assert.True(t, groups[2].Stats.IsSingleRolling)
}
